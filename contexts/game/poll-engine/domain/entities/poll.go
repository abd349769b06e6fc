package entities

import (
	"context"
	"time"
)

// Option is one selectable choice inside a poll. IDs are unique within a
// poll; labels are display-only and may collide.
type Option struct {
	ID    string
	Label string
}

// VoterContext carries the identity information an eligibility predicate may
// inspect. Roles holds the voter's guild role names at the time of the press.
type VoterContext struct {
	UserID      string
	DisplayName string
	Roles       []string
	ChannelID   string
}

// EligibilityFunc decides whether a voter may participate. The predicate is
// responsible for telling the voter why they were rejected; the engine only
// observes the boolean.
type EligibilityFunc func(ctx context.Context, voter VoterContext) bool

// CompletionFunc receives the ordered winner set exactly once when the poll
// finalizes. When nil, the engine falls back to the renderer's default
// winner announcement.
type CompletionFunc func(ctx context.Context, winners []Option)

// Poll is one active election. After publication only Votes mutates; every
// other field is immutable for the poll's lifetime.
type Poll struct {
	ID              string
	Topic           string
	Options         []Option
	ExpireAt        time.Time
	MaxVotesPerUser int
	AnonymousVote   bool
	ShowLiveCounts  bool

	// Votes maps option id to the voters currently holding a ballot on it.
	// Set semantics: a voter appears at most once per option. Insertion
	// order is kept so disclosures list voters in the order they voted.
	Votes map[string][]string

	ChannelID string
	RenderRef string

	Eligibility EligibilityFunc
	OnComplete  CompletionFunc

	CreatedAt time.Time
}

// NewPoll initializes the vote sets for every declared option.
func NewPoll(id string, topic string, options []Option) *Poll {
	votes := make(map[string][]string, len(options))
	for _, option := range options {
		votes[option.ID] = nil
	}
	return &Poll{
		ID:      id,
		Topic:   topic,
		Options: append([]Option(nil), options...),
		Votes:   votes,
	}
}

// OptionByID returns the declared option for an id.
func (p *Poll) OptionByID(optionID string) (Option, bool) {
	for _, option := range p.Options {
		if option.ID == optionID {
			return option, true
		}
	}
	return Option{}, false
}

// OptionCount pairs an option with its distinct-voter count and, for
// non-anonymous disclosure, the voters themselves.
type OptionCount struct {
	Option Option
	Count  int
	Voters []string
}

// PollView is a read-only deep snapshot of a poll, safe to hand to render
// and transport code without holding the poll's lock.
type PollView struct {
	ID              string
	Topic           string
	Options         []OptionCount
	ExpireAt        time.Time
	MaxVotesPerUser int
	AnonymousVote   bool
	ShowLiveCounts  bool
	ChannelID       string
	RenderRef       string
	Closed          bool
}

// View snapshots the poll. The caller must hold whatever lock serializes
// mutations of Votes.
func (p *Poll) View(closed bool) PollView {
	options := make([]OptionCount, 0, len(p.Options))
	for _, option := range p.Options {
		voters := append([]string(nil), p.Votes[option.ID]...)
		options = append(options, OptionCount{
			Option: option,
			Count:  len(voters),
			Voters: voters,
		})
	}
	return PollView{
		ID:              p.ID,
		Topic:           p.Topic,
		Options:         options,
		ExpireAt:        p.ExpireAt,
		MaxVotesPerUser: p.MaxVotesPerUser,
		AnonymousVote:   p.AnonymousVote,
		ShowLiveCounts:  p.ShowLiveCounts,
		ChannelID:       p.ChannelID,
		RenderRef:       p.RenderRef,
		Closed:          closed,
	}
}
