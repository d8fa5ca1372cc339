package eval

import (
	"fmt"
	"slices"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/query"
)

// Filter is a compiled record matcher for one query.
type Filter struct {
	ands   []predicate
	orSets [][]predicate
	groups query.Groups
}

// NewFilter compiles the predicates of q.
//
// Fails with query.ErrInvalidQuery for a malformed chain, and with
// ErrUnsupportedOperator or ErrMissingOperator for a bad numeric predicate.
func NewFilter(q query.OrmQuery) (*Filter, error) {
	var groups query.Groups
	if len(q.Chain) > 0 {
		g, err := query.GroupChain(q.Chain)
		if err != nil {
			return nil, err
		}
		groups = g
	} else {
		groups = query.Groups{Ands: q.Predicates()}
	}

	f := &Filter{groups: groups}
	for _, s := range groups.Ands {
		p, err := compilePredicate(s)
		if err != nil {
			return nil, err
		}
		f.ands = append(f.ands, p)
	}
	for _, group := range groups.OrChains {
		set := make([]predicate, 0, len(group))
		for _, s := range group {
			p, err := compilePredicate(s)
			if err != nil {
				return nil, err
			}
			set = append(set, p)
		}
		f.orSets = append(f.orSets, set)
	}
	return f, nil
}

// Groups returns the AND/OR structure the filter evaluates.
func (f *Filter) Groups() query.Groups {
	return f.groups
}

// Match reports whether rec satisfies the query predicates.
func (f *Filter) Match(rec datastore.Record) bool {
	for _, p := range f.ands {
		if !p(rec) {
			return false
		}
	}
	for _, set := range f.orSets {
		if !slices.ContainsFunc(set, func(p predicate) bool { return p(rec) }) {
			return false
		}
	}
	return true
}

// Apply filters, sorts and caps records per q. The input slice is not
// modified; the result is a new slice sharing the record values.
func Apply(records []datastore.Record, q query.OrmQuery) ([]datastore.Record, error) {
	f, err := NewFilter(q)
	if err != nil {
		return nil, fmt.Errorf("evaluate query: %w", err)
	}

	matched := make([]datastore.Record, 0, len(records))
	for _, rec := range records {
		if f.Match(rec) {
			matched = append(matched, rec)
		}
	}

	if q.Sort != nil {
		SortRecords(matched, *q.Sort)
	}
	if q.Take != nil {
		matched = TakeRecords(matched, *q.Take)
	}
	return matched, nil
}
