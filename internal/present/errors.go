package present

import "errors"

var (
	ErrUnknownMode  = errors.New("present: unknown presentation mode")
	ErrSizeMismatch = errors.New("present: back buffer size differs from source")
)
