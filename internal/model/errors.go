package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// CodeValidation marks a save rejected by one or more validators.
const CodeValidation = "VALIDATION_ERROR"

// ErrInvalidSpec is returned by NewDefinition for an unusable Spec.
var ErrInvalidSpec = errors.New("invalid model spec")

// ValidationError aggregates the messages of every failed validator for one
// instance, keyed by validator name.
type ValidationError struct {
	Model  string
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Errors[k])
	}
	return fmt.Sprintf("%s: %s failed validation: %s", CodeValidation, e.Model, strings.Join(parts, "; "))
}

// Is reports any *ValidationError as a match.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// ErrValidation is the sentinel for errors.Is checks.
var ErrValidation = &ValidationError{}
