package pipeline

import (
	"errors"
	"fmt"
)

// ErrPipelineClosed is returned when output is emitted after shutdown.
var ErrPipelineClosed = errors.New("pipeline: closed")

// WriteError indicates an output file could not be created or appended to.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e WriteError) Unwrap() error {
	return e.Err
}
