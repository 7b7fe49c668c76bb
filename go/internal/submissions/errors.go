package submissions

import "errors"

var (
	ErrNotFound         = errors.New("submission not found")
	ErrInvalidCode      = errors.New("invalid code")
	ErrAlreadySubmitted = errors.New("student has already submitted")
	ErrInvalidScore     = errors.New("score must be between 0 and 100")
)
