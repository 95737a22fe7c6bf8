package applications

import "errors"

var (
	ErrNotFound          = errors.New("application not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTerminalState     = errors.New("application is in a terminal state")
	ErrInvalidInput      = errors.New("invalid input")
)
