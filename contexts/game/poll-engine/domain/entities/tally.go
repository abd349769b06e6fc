package entities

// ToggleOutcome classifies the effect of one ballot press.
type ToggleOutcome string

const (
	ToggleCast          ToggleOutcome = "cast"
	ToggleRetracted     ToggleOutcome = "retracted"
	ToggleLimitReached  ToggleOutcome = "limit_reached"
	ToggleUnknownOption ToggleOutcome = "unknown_option"
)

// ToggleResult reports what a press did. On ToggleLimitReached, Selections
// holds the options the voter currently occupies so the rejection message can
// enumerate them, and no state was changed.
type ToggleResult struct {
	Outcome    ToggleOutcome
	Option     Option
	Selections []Option
	Limit      int
}

// Toggle flips one (option, voter) ballot: a present vote is retracted, an
// absent one is cast unless the voter already holds MaxVotesPerUser options.
// The caller serializes concurrent toggles on the same poll.
func (p *Poll) Toggle(optionID string, voterID string) ToggleResult {
	option, ok := p.OptionByID(optionID)
	if !ok {
		return ToggleResult{Outcome: ToggleUnknownOption}
	}

	voters := p.Votes[optionID]
	for i, held := range voters {
		if held == voterID {
			p.Votes[optionID] = append(voters[:i:i], voters[i+1:]...)
			return ToggleResult{Outcome: ToggleRetracted, Option: option}
		}
	}

	selections := p.Selections(voterID)
	if len(selections) >= p.MaxVotesPerUser {
		return ToggleResult{
			Outcome:    ToggleLimitReached,
			Option:     option,
			Selections: selections,
			Limit:      p.MaxVotesPerUser,
		}
	}

	p.Votes[optionID] = append(voters, voterID)
	return ToggleResult{Outcome: ToggleCast, Option: option}
}

// Selections lists the options the voter currently holds, in declared order.
func (p *Poll) Selections(voterID string) []Option {
	held := make([]Option, 0)
	for _, option := range p.Options {
		for _, voter := range p.Votes[option.ID] {
			if voter == voterID {
				held = append(held, option)
				break
			}
		}
	}
	return held
}

// Counts reports the distinct-voter count per option in declared order.
func (p *Poll) Counts() []OptionCount {
	counts := make([]OptionCount, 0, len(p.Options))
	for _, option := range p.Options {
		counts = append(counts, OptionCount{
			Option: option,
			Count:  len(p.Votes[option.ID]),
		})
	}
	return counts
}

// Winners returns every option whose count equals the maximum, in declared
// order. All max-tied options are co-winners; an all-zero tally returns every
// option tied at zero.
func (p *Poll) Winners() []Option {
	max := 0
	for _, option := range p.Options {
		if count := len(p.Votes[option.ID]); count > max {
			max = count
		}
	}
	winners := make([]Option, 0, 1)
	for _, option := range p.Options {
		if len(p.Votes[option.ID]) == max {
			winners = append(winners, option)
		}
	}
	return winners
}
