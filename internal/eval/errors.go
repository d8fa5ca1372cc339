package eval

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes evaluation errors.
type ErrorCode string

const (
	// CodeUnsupportedOperator indicates an unknown numeric comparison symbol.
	CodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// CodeMissingOperator indicates a numeric predicate without a symbol.
	CodeMissingOperator ErrorCode = "MISSING_OPERATOR"
)

// Error is returned when a predicate cannot be compiled.
type Error struct {
	Code     ErrorCode
	Message  string
	Property string
}

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrUnsupportedOperator = &Error{Code: CodeUnsupportedOperator}
	ErrMissingOperator     = &Error{Code: CodeMissingOperator}
)

func (e *Error) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("%s: %s (property=%s)", e.Code, e.Message, e.Property)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}
