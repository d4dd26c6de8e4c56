package errlog

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const unknownMessage = "unknown error"

// Error is the single internal representation of a failure,
// whatever the caller handed over (string, error, panic value..).
type Error struct {
	Message string
	Stack   string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// NewError returns an *Error for msg carrying the stack of the caller.
func NewError(msg string) *Error {
	err := errors.New(msg)
	return &Error{Message: msg, Stack: stackOf(err), Cause: err}
}

// Normalize turns v into an *Error.
// Strings become stackless errors; errors keep their message, their cause and,
// when built with github.com/pkg/errors, their stack trace.
func Normalize(v interface{}) *Error {
	switch val := v.(type) {
	case nil:
		return &Error{Message: unknownMessage}
	case *Error:
		if val == nil {
			return &Error{Message: unknownMessage}
		}
		return val
	case string:
		if val == "" {
			return &Error{Message: unknownMessage}
		}
		return &Error{Message: val}
	case error:
		var e *Error
		if errors.As(val, &e) && e.Error() == val.Error() {
			return e
		}
		return &Error{Message: val.Error(), Stack: stackOf(val), Cause: val}
	case fmt.Stringer:
		return &Error{Message: val.String()}
	default:
		return &Error{Message: fmt.Sprint(val)}
	}
}

// stackOf returns the deepest stack trace recorded in err's chain.
func stackOf(err error) string {
	var st stackTracer
	for e := err; e != nil; e = errors.Unwrap(e) {
		if s, ok := e.(stackTracer); ok {
			st = s
		}
	}
	if st == nil {
		return ""
	}
	return strings.TrimPrefix(fmt.Sprintf("%+v", st.StackTrace()), "\n")
}
