package students

import "errors"

var (
	ErrNotFound           = errors.New("student not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
