package session

import "errors"

var (
	// ErrNotFound is returned when a student has no live session
	ErrNotFound = errors.New("session not found")
	// ErrLocked is returned for edits after the submission lock
	ErrLocked = errors.New("submission is locked")
	// ErrClosed is returned when the session has been torn down
	ErrClosed = errors.New("session closed")
)
