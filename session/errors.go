package session

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrRead indicates a failed read from the device or the input source.
	ErrRead = errors.New("read failure")

	// ErrWrite indicates a failed or zero-length write to the display or the device.
	ErrWrite = errors.New("write failure")

	// ErrFlush indicates a failed flush of the display or the device.
	ErrFlush = errors.New("flush failure")
)

// Side names the pipeline that failed.
type Side string

const (
	SideReader Side = "reader"
	SideWriter Side = "writer"
)

// Endpoints as they appear in error messages.
const (
	EndpointDevice  = "serial port"
	EndpointDisplay = "stdout"
	EndpointInput   = "stdin"
)

// Error is a classified pipeline failure. It preserves the cause for
// errors.As inspection and matches its Kind via errors.Is.
type Error struct {
	// Kind is the sentinel for classification (ErrRead, ErrWrite, ErrFlush).
	Kind error
	// Side is the pipeline that failed.
	Side Side
	// Endpoint is the stream that failed, e.g. "serial port" or "stdout".
	Endpoint string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: cannot %s %s: %v", e.Side, e.verb(), e.Endpoint, e.Err)
}

func (e *Error) verb() string {
	switch e.Kind {
	case ErrRead:
		return "read"
	case ErrWrite:
		return "write"
	case ErrFlush:
		return "flush"
	default:
		return "use"
	}
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func newError(kind error, side Side, endpoint string, err error) *Error {
	return &Error{Kind: kind, Side: side, Endpoint: endpoint, Err: err}
}
