// Package validate provides uniqueness validators run before a model save.
//
// A validator reports a conflict as a message rather than an error. The save
// path collects the messages of every failing validator into a single
// model.ValidationError.
package validate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/query"
)

// Target is the model a validator searches.
type Target interface {
	Name() string
	PrimaryKeyName() string
	Search(ctx context.Context, q query.OrmQuery) (datastore.SearchResult, error)
}

// Options alters validator behavior for one save.
type Options struct {
	// NoOrmValidation skips the check without querying.
	NoOrmValidation bool
}

// Func validates the serialized candidate data. It returns a non-empty
// message on conflict and an empty string otherwise. The error is reserved
// for failures to run the check at all.
type Func func(ctx context.Context, t Target, data datastore.Record, opts Options) (string, error)

// Unique rejects data whose field value is already used by another record.
// Matching is case-insensitive.
func Unique(field string) Func {
	return uniqueFields([]string{field}, fmt.Sprintf("%s must be unique. Another instance found.", field))
}

// ErrNoFields is returned by a UniqueTogether validator built without fields.
var ErrNoFields = errors.New("uniqueness check needs at least one field")

// UniqueTogether rejects data whose combination of field values is already
// used by another record.
func UniqueTogether(fields ...string) Func {
	fields = append([]string(nil), fields...)
	return uniqueFields(fields, fmt.Sprintf("%s must be unique together. Another instance found.", strings.Join(fields, ",")))
}

func uniqueFields(fields []string, message string) Func {
	return func(ctx context.Context, t Target, data datastore.Record, opts Options) (string, error) {
		if opts.NoOrmValidation {
			return "", nil
		}
		if len(fields) == 0 {
			return "", fmt.Errorf("%w: %s", ErrNoFields, t.Name())
		}

		q, err := EqualityQuery(fields, data)
		if err != nil {
			return "", err
		}
		res, err := t.Search(ctx, q)
		if err != nil {
			return "", fmt.Errorf("uniqueness search on %s: %w", t.Name(), err)
		}
		if !Conflicts(res.Instances, t.PrimaryKeyName(), data[t.PrimaryKeyName()]) {
			return "", nil
		}
		return message, nil
	}
}

// EqualityQuery builds the case-insensitive AND of field = data[field].
// Numeric values are compared numerically.
func EqualityQuery(fields []string, data datastore.Record) (query.OrmQuery, error) {
	b := query.New()
	for i, field := range fields {
		if i > 0 {
			b = b.And()
		}
		value := data[field]
		var opts []query.PropertyOption
		if isNumber(value) {
			opts = append(opts, query.OfType(query.TypeNumber))
		}
		b = b.Property(field, value, opts...)
	}
	return b.Compile()
}

// Conflicts applies the uniqueness decision rule: matches conflict unless
// there are none or one of them is the candidate itself.
func Conflicts(matches []datastore.Record, primaryKey string, candidate any) bool {
	if len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if datastore.SameKey(m[primaryKey], candidate) {
			return false
		}
	}
	return true
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}
