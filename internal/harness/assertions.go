package harness

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/eval"
	"github.com/roach88/ormkit/internal/memstore"
	"github.com/roach88/ormkit/internal/model"
	"github.com/roach88/ormkit/internal/query"
	"github.com/roach88/ormkit/internal/schema"
)

// Codes reported by ErrorCode for errors without a dedicated type.
const (
	CodeMissingPrimaryKey = "MISSING_PRIMARY_KEY"
	CodeNoProvider        = "NO_PROVIDER"
	CodeUnknown           = "ERROR"
)

// ErrorCode returns the stable code of err, or "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var qerr *query.Error
	if errors.As(err, &qerr) {
		return string(qerr.Code)
	}
	var eerr *eval.Error
	if errors.As(err, &eerr) {
		return string(eerr.Code)
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return model.CodeValidation
	}
	var cerr *memstore.ConfigError
	if errors.As(err, &cerr) {
		return memstore.CodeConfig
	}
	var lerr *schema.LoadError
	if errors.As(err, &lerr) {
		return lerr.Code
	}

	switch {
	case errors.Is(err, datastore.ErrMissingPrimaryKey):
		return CodeMissingPrimaryKey
	case errors.Is(err, datastore.ErrNoProvider):
		return CodeNoProvider
	}
	return CodeUnknown
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Records  []datastore.Record
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Records) > 0 {
		fmt.Fprintf(&buf, "\nResults:\n")
		for i, rec := range e.Records {
			fmt.Fprintf(&buf, "  [%d] %v\n", i+1, map[string]any(rec))
		}
	}
	return buf.String()
}

// AssertionContext carries what final_state assertions need to read.
type AssertionContext struct {
	Ctx   context.Context
	Model *model.Definition
}

// EvaluateAssertions checks every assertion and returns the failure messages.
// A query error with no error_code assertion is itself a failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failures []string
	expectsError := false

	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertResultIDs:
			err = assertResultIDs(result, a, actx.Model.PrimaryKeyName())
		case AssertResultCount:
			err = assertResultCount(result, a)
		case AssertResultContains:
			err = assertResultContains(result, a)
		case AssertErrorCode:
			expectsError = true
			err = assertErrorCode(result, a)
		case AssertFinalState:
			err = assertFinalState(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type: %s", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	if result.Err != nil && !expectsError {
		failures = append(failures, fmt.Sprintf("query failed: %v", result.Err))
	}
	return failures
}

func assertResultIDs(result *Result, a Assertion, pk string) error {
	got := make([]any, len(result.Records))
	for i, rec := range result.Records {
		got[i] = rec[pk]
	}

	ok := len(got) == len(a.IDs)
	for i := 0; ok && i < len(got); i++ {
		ok = datastore.SameKey(got[i], a.IDs[i])
	}
	if ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertResultIDs,
		Expected: fmt.Sprintf("%v", a.IDs),
		Actual:   fmt.Sprintf("%v", got),
		Records:  result.Records,
	}
}

func assertResultCount(result *Result, a Assertion) error {
	if len(result.Records) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertResultCount,
		Expected: fmt.Sprintf("%d results", a.Count),
		Actual:   fmt.Sprintf("%d results", len(result.Records)),
		Records:  result.Records,
	}
}

func assertResultContains(result *Result, a Assertion) error {
	for _, rec := range result.Records {
		if matchFields(rec, a.Record) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertResultContains,
		Expected: fmt.Sprintf("a result containing %v", a.Record),
		Actual:   "no match",
		Records:  result.Records,
	}
}

func assertErrorCode(result *Result, a Assertion) error {
	got := ErrorCode(result.Err)
	if got == a.Code {
		return nil
	}
	actual := "no error"
	if result.Err != nil {
		actual = fmt.Sprintf("%s (%v)", got, result.Err)
	}
	return &AssertionError{
		Type:     AssertErrorCode,
		Expected: a.Code,
		Actual:   actual,
	}
}

func assertFinalState(actx *AssertionContext, a Assertion) error {
	inst, err := actx.Model.Retrieve(actx.Ctx, a.Key)
	if err != nil {
		return fmt.Errorf("final_state lookup %v: %w", a.Key, err)
	}

	if a.Absent {
		if inst == nil {
			return nil
		}
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("no record under %v", a.Key),
			Actual:   "record present",
		}
	}
	if inst == nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("record under %v", a.Key),
			Actual:   "not found",
		}
	}

	rec, err := inst.ToObj(actx.Ctx)
	if err != nil {
		return err
	}
	if matchFields(rec, a.Record) {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: fmt.Sprintf("record containing %v", a.Record),
		Actual:   fmt.Sprintf("%v", map[string]any(rec)),
	}
}

// matchFields reports whether every expected field is present in rec with an
// equal value. Numbers compare by value regardless of Go type.
func matchFields(rec datastore.Record, expected map[string]any) bool {
	for k, want := range expected {
		got, ok := rec[k]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
