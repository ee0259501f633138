package wlds

import (
	"errors"
	"fmt"
)

// Code classifies an Error.
type Code int

const (
	CodeFailed Code = iota + 1
	CodeUnavailable
	CodeInvalidParameter
	CodeUnsupported
	CodeTimeout
)

func (c Code) String() string {
	switch c {
	case CodeFailed:
		return "failed"
	case CodeUnavailable:
		return "unavailable"
	case CodeInvalidParameter:
		return "invalid parameter"
	case CodeUnsupported:
		return "unsupported"
	case CodeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error is the error type returned by the backend.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (err *Error) Error() string {
	msg := err.Code.String()
	if err.Op != "" {
		msg = err.Op + ": " + msg
	}
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Is matches any *Error with the same code if target carries no
// operation or cause, so the sentinels below match every error of
// their class.
func (err *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return (t.Op == "") && (t.Err == nil) && (t.Code == err.Code)
}

var (
	ErrFailed           = &Error{Code: CodeFailed}
	ErrUnavailable      = &Error{Code: CodeUnavailable}
	ErrInvalidParameter = &Error{Code: CodeInvalidParameter}
	ErrUnsupported      = &Error{Code: CodeUnsupported}
	ErrTimeout          = &Error{Code: CodeTimeout}
)

var (
	// ErrZeroPhysicalSize is reported when an output claims to have no
	// physical size, which makes its DPI meaningless.
	ErrZeroPhysicalSize = errors.New("output has zero physical size")

	ErrClosed = errors.New("backend is closed")
)

func newError(code Code, op string, err error) error {
	return &Error{Code: code, Op: op, Err: err}
}
