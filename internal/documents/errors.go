package documents

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidFileType = errors.New("file type not allowed")
	ErrTooManyFiles    = errors.New("too many files in batch")
	ErrFileTooLarge    = errors.New("file exceeds size limit")
)
