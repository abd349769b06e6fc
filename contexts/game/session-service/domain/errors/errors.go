package errors

import "errors"

var (
	ErrInvalidPlayerCount = errors.New("player count must be between 1 and 20")
	ErrSessionNotFound    = errors.New("session not found")
	ErrDuplicateSessionID = errors.New("session id already registered")
	ErrPlayerNotFound     = errors.New("player not found in session")
	ErrRoleCountMismatch  = errors.New("eligible member count does not match available role count")
	ErrRoomCountMismatch  = errors.New("voice room seat count does not match role count")
)
