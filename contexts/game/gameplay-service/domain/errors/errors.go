package errors

import "errors"

var (
	ErrEnrollmentNotFound    = errors.New("enrollment window not found")
	ErrEnrollmentClosed      = errors.New("enrollment window already closed")
	ErrDuplicateEnrollmentID = errors.New("enrollment id already registered")
	ErrCountdownActive       = errors.New("a countdown is already running in this channel")
	ErrCountdownNotFound     = errors.New("no countdown running in this channel")
	ErrNoAlivePlayers        = errors.New("no alive players in session")
	ErrNoCandidates          = errors.New("no sheriff candidates enrolled")
	ErrInvalidDuration       = errors.New("duration must be positive")
)
