package entities

import "testing"

func newTestPoll(limit int) *Poll {
	poll := NewPoll("poll-1", "test", []Option{
		{ID: "a", Label: "Alice"},
		{ID: "b", Label: "Bob"},
		{ID: "c", Label: "Carol"},
	})
	poll.MaxVotesPerUser = limit
	return poll
}

func TestToggleCastAndRetractIsInverse(t *testing.T) {
	poll := newTestPoll(1)

	first := poll.Toggle("a", "v1")
	if first.Outcome != ToggleCast {
		t.Fatalf("expected cast, got %s", first.Outcome)
	}
	if first.Option.Label != "Alice" {
		t.Fatalf("expected label Alice, got %s", first.Option.Label)
	}
	second := poll.Toggle("a", "v1")
	if second.Outcome != ToggleRetracted {
		t.Fatalf("expected retraction, got %s", second.Outcome)
	}
	for _, count := range poll.Counts() {
		if count.Count != 0 {
			t.Fatalf("expected empty tally after retraction, option %s has %d", count.Option.ID, count.Count)
		}
	}
}

func TestToggleEnforcesVoteLimit(t *testing.T) {
	poll := newTestPoll(1)

	if res := poll.Toggle("a", "v1"); res.Outcome != ToggleCast {
		t.Fatalf("expected cast, got %s", res.Outcome)
	}
	res := poll.Toggle("b", "v1")
	if res.Outcome != ToggleLimitReached {
		t.Fatalf("expected limit reached, got %s", res.Outcome)
	}
	if res.Limit != 1 {
		t.Fatalf("expected limit 1, got %d", res.Limit)
	}
	if len(res.Selections) != 1 || res.Selections[0].Label != "Alice" {
		t.Fatalf("expected current selections [Alice], got %v", res.Selections)
	}
	if len(poll.Votes["b"]) != 0 {
		t.Fatalf("rejected cast must not mutate the tally")
	}
}

func TestToggleSequencesNeverExceedLimit(t *testing.T) {
	poll := newTestPoll(2)
	presses := []string{"a", "b", "c", "a", "c", "b", "a", "c", "b", "a"}
	for _, optionID := range presses {
		poll.Toggle(optionID, "v1")
		if held := len(poll.Selections("v1")); held > 2 {
			t.Fatalf("voter holds %d options, limit is 2", held)
		}
	}
}

func TestRetractionFreesLimitSlot(t *testing.T) {
	poll := newTestPoll(2)

	poll.Toggle("a", "v1")
	poll.Toggle("b", "v1")
	if res := poll.Toggle("a", "v1"); res.Outcome != ToggleRetracted {
		t.Fatalf("expected retraction, got %s", res.Outcome)
	}
	selections := poll.Selections("v1")
	if len(selections) != 1 || selections[0].ID != "b" {
		t.Fatalf("expected only b selected, got %v", selections)
	}
	if res := poll.Toggle("c", "v1"); res.Outcome != ToggleCast {
		t.Fatalf("expected cast after freeing a slot, got %s", res.Outcome)
	}
}

func TestWinnersReturnsAllMaxTiedOptions(t *testing.T) {
	poll := newTestPoll(1)
	for _, voter := range []string{"v1", "v2", "v3"} {
		poll.Toggle("a", voter)
	}
	for _, voter := range []string{"v4", "v5", "v6"} {
		poll.Toggle("b", voter)
	}
	poll.Toggle("c", "v7")

	winners := poll.Winners()
	if len(winners) != 2 {
		t.Fatalf("expected two co-winners, got %d", len(winners))
	}
	if winners[0].ID != "a" || winners[1].ID != "b" {
		t.Fatalf("expected winners in declared order [a b], got %v", winners)
	}
}

func TestWinnersOnEmptyTallyReturnsEveryOption(t *testing.T) {
	poll := newTestPoll(1)
	winners := poll.Winners()
	if len(winners) != len(poll.Options) {
		t.Fatalf("expected all %d options tied at zero, got %d", len(poll.Options), len(winners))
	}
}

func TestCountsKeepDeclaredOrderWithDuplicateLabels(t *testing.T) {
	poll := NewPoll("poll-2", "dup", []Option{
		{ID: "x1", Label: "same"},
		{ID: "x2", Label: "same"},
	})
	poll.MaxVotesPerUser = 1
	poll.Toggle("x2", "v1")

	counts := poll.Counts()
	if counts[0].Option.ID != "x1" || counts[0].Count != 0 {
		t.Fatalf("unexpected first count: %+v", counts[0])
	}
	if counts[1].Option.ID != "x2" || counts[1].Count != 1 {
		t.Fatalf("unexpected second count: %+v", counts[1])
	}
}

func TestViewIsDeepCopy(t *testing.T) {
	poll := newTestPoll(1)
	poll.Toggle("a", "v1")
	view := poll.View(false)
	view.Options[0].Voters[0] = "tampered"
	if poll.Votes["a"][0] != "v1" {
		t.Fatalf("view must not alias the live tally")
	}
}
