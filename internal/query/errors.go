package query

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// CodeInvalidArgument indicates a builder method rejected its input.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeInvalidQuery indicates a malformed boolean chain.
	CodeInvalidQuery ErrorCode = "INVALID_QUERY"
)

// Error is returned by the builder and the chain compiler.
type Error struct {
	Code    ErrorCode
	Message string
}

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument}
	ErrInvalidQuery    = &Error{Code: CodeInvalidQuery}
)

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
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

func invalidArgument(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func invalidQuery(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidQuery, Message: fmt.Sprintf(format, args...)}
}

// IsInvalidArgument reports whether err is a builder argument error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsInvalidQuery reports whether err is a malformed chain error.
func IsInvalidQuery(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}
