package maprender

import (
	"errors"
	"fmt"
)

// Error kinds, use errors.Is to test for them.
var (
	ErrUnsupported = errors.New("unsupported renderer capability")
	ErrResource    = errors.New("resource load failure")
	ErrAllocation  = errors.New("allocation failure")
)

// Error is a structured rendering error: its kind, the operation that failed and a message.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind error, op string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Unsupported returns the error a backend returns for a capability it does not implement.
func Unsupported(op, backend string) error {
	return &Error{Kind: ErrUnsupported, Op: op, Msg: backend}
}

// IsUnsupported is true when err reports a missing renderer capability.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
