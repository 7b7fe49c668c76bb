package questions

import "errors"

var (
	ErrNotFound     = errors.New("question not found")
	ErrInvalidInput = errors.New("invalid question")
	ErrExists       = errors.New("question already exists")
	ErrEmptyBank    = errors.New("question bank is empty")
)
