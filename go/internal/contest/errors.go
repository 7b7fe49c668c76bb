package contest

import "errors"

var (
	ErrInvalidPasskey     = errors.New("invalid passkey")
	ErrTooManyAttempts    = errors.New("too many passkey attempts")
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrInvalidSettings    = errors.New("invalid contest settings")
	ErrUnknownStudent     = errors.New("unknown student")
)
