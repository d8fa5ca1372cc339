package eval

import (
	"fmt"
	"regexp"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/query"
)

// predicate reports whether a record satisfies one statement.
type predicate func(rec datastore.Record) bool

// compilePredicate dispatches on the statement variant.
func compilePredicate(s query.Statement) (predicate, error) {
	switch st := s.(type) {
	case query.Property:
		if st.Type().IsNumeric() {
			return compileNumeric(st)
		}
		return compilePattern(st)
	case query.DatesBefore:
		return compileDateBound(st.Key, st.Date, st.EqualToAndBefore, func(c int) bool { return c < 0 }), nil
	case query.DatesAfter:
		return compileDateBound(st.Key, st.Date, st.EqualToAndAfter, func(c int) bool { return c > 0 }), nil
	default:
		return nil, fmt.Errorf("statement %q is not a predicate", s.Kind())
	}
}

// PatternFor returns the anchored expression used for string matching.
// The value is matched literally.
func PatternFor(p query.Property) string {
	quoted := regexp.QuoteMeta(toText(p.Value))
	flags := "(?i)"
	if p.Options.CaseSensitive {
		flags = ""
	}
	switch {
	case p.Options.StartsWith:
		return flags + "^" + quoted
	case p.Options.EndsWith:
		return flags + quoted + "$"
	default:
		return flags + "^" + quoted + "$"
	}
}

func compilePattern(p query.Property) (predicate, error) {
	re, err := regexp.Compile(PatternFor(p))
	if err != nil {
		return nil, fmt.Errorf("compile pattern for %q: %w", p.Name, err)
	}
	return func(rec datastore.Record) bool {
		v, ok := rec[p.Name]
		if !ok || v == nil {
			return false
		}
		return re.MatchString(toText(v))
	}, nil
}

func compileNumeric(p query.Property) (predicate, error) {
	var test func(a, b float64) bool
	switch p.Options.EqualitySymbol {
	case query.Equal:
		test = func(a, b float64) bool { return a == b }
	case query.LessThan:
		test = func(a, b float64) bool { return a < b }
	case query.LessThanOrEqual:
		test = func(a, b float64) bool { return a <= b }
	case query.GreaterThan:
		test = func(a, b float64) bool { return a > b }
	case query.GreaterThanOrEqual:
		test = func(a, b float64) bool { return a >= b }
	case "":
		return nil, &Error{
			Code:     CodeMissingOperator,
			Message:  "numeric predicate has no equality symbol",
			Property: p.Name,
		}
	default:
		return nil, &Error{
			Code:     CodeUnsupportedOperator,
			Message:  fmt.Sprintf("equality symbol %q is not supported", p.Options.EqualitySymbol),
			Property: p.Name,
		}
	}

	want, wantOK := toFloat(p.Value)
	return func(rec datastore.Record) bool {
		if !wantOK {
			return false
		}
		got, ok := toFloat(rec[p.Name])
		if !ok {
			return false
		}
		return test(got, want)
	}, nil
}

// compileDateBound builds a before/after test. strict decides the result for
// unequal instants; inclusive lets equal instants pass.
func compileDateBound(key string, bound any, inclusive bool, strict func(int) bool) predicate {
	limit, limitOK := toTime(bound)
	return func(rec datastore.Record) bool {
		if !limitOK {
			return false
		}
		got, ok := toTime(rec[key])
		if !ok {
			return false
		}
		c := got.Compare(limit)
		if c == 0 {
			return inclusive
		}
		return strict(c)
	}
}
