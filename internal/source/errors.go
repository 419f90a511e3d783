package source

import (
	"errors"
	"fmt"
)

// ErrEmptySource is returned when the subject file has no lines at all.
var ErrEmptySource = errors.New("empty source file")

// UnreadableSourceError reports a subject file that could not be opened or read.
type UnreadableSourceError struct {
	Path string
	Err  error
}

func (e *UnreadableSourceError) Error() string {
	return fmt.Sprintf("cannot read source %q: %v", e.Path, e.Err)
}

func (e *UnreadableSourceError) Unwrap() error { return e.Err }
