package sessions

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrTooManySessions  = errors.New("too many active sessions")
	ErrInvalidNickname  = errors.New("invalid nickname")
	ErrBlockUnavailable = errors.New("block cannot be revealed")
	ErrNoPersistence    = errors.New("snapshot persistence not configured")
	ErrManagerClosed    = errors.New("session manager closed")
)
