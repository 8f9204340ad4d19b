package movie

import (
	"errors"
	"fmt"
)

var (
	ErrOpen   = errors.New("could not open movie")
	ErrClosed = errors.New("movie closed")
)

// OpenError is returned by Open and OpenBytes. It matches ErrOpen and
// whatever caused it.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrOpen, e.Path, e.Err)
}

func (e *OpenError) Unwrap() []error {
	return []error{ErrOpen, e.Err}
}
