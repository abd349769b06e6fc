package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidOptions    = errors.New("poll options are invalid")
	ErrInvalidParameters = errors.New("poll parameters are invalid")
	ErrPollNotFound      = errors.New("poll not found")
	ErrPollClosed        = errors.New("poll is closed")
	ErrDuplicatePollID   = errors.New("poll id already registered")
	ErrUnknownOption     = errors.New("option id is not part of the poll")
	ErrNotEligible       = errors.New("voter is not eligible")
	ErrVoteLimitExceeded = errors.New("vote limit exceeded")
)

// LimitExceededError reports a rejected cast with the voter's current
// selections so the rejection message can enumerate them. It matches
// ErrVoteLimitExceeded under errors.Is.
type LimitExceededError struct {
	Limit      int
	Selections []string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("vote limit of %d exceeded, currently selected: %s",
		e.Limit, strings.Join(e.Selections, ", "))
}

func (e *LimitExceededError) Is(target error) bool {
	return target == ErrVoteLimitExceeded
}
