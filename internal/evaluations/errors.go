package evaluations

import "errors"

var (
	ErrNotFound     = errors.New("evaluation not found")
	ErrInvalidInput = errors.New("invalid input")
)
