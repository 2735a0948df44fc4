package worker

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates the worker process could not be started at all.
var ErrUnavailable = errors.New("worker unavailable")

// ExitError indicates the worker started but exited non-zero. Stderr carries
// the diagnostic text accumulated while the worker ran.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("worker exited with code %d: %s", e.Code, e.Stderr)
}

// MalformedError indicates the worker exited cleanly but its output could not
// be decoded as the expected response envelope.
type MalformedError struct {
	Raw []byte
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed worker response: %v", e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
