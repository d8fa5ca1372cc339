package datastore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/ormkit/internal/query"
)

// ErrMissingPrimaryKey is returned when a record has no value for its
// model's primary key.
var ErrMissingPrimaryKey = errors.New("missing primary key")

// Model is the part of a model a provider needs.
type Model interface {
	Name() string
	PrimaryKeyName() string
}

// Instance is a model value that can serialize itself to a plain record.
type Instance interface {
	Model() Model
	ToObj(ctx context.Context) (Record, error)
}

// SearchResult is the outcome of Provider.Search.
// Page is an opaque continuation token; nil when the provider does not page.
type SearchResult struct {
	Instances []Record
	Page      any
}

// Provider is the storage backend contract.
type Provider interface {
	// Save upserts the instance by primary key and returns the stored record.
	Save(ctx context.Context, inst Instance) (Record, error)
	// Delete removes the instance by primary key. Deleting a missing record
	// is not an error.
	Delete(ctx context.Context, inst Instance) error
	// Retrieve returns the record stored under primaryKey, or nil when absent.
	Retrieve(ctx context.Context, m Model, primaryKey any) (Record, error)
	// Search evaluates q against the model's records.
	Search(ctx context.Context, m Model, q query.OrmQuery) (SearchResult, error)
}

// BulkInserter is implemented by providers with a native bulk insert.
type BulkInserter interface {
	BulkInsert(ctx context.Context, m Model, insts []Instance) error
}

// Counter is implemented by providers that can count records natively.
type Counter interface {
	Count(ctx context.Context, m Model) (int, error)
}

// CreateAndSaver is implemented by providers that assign fields on insert.
type CreateAndSaver interface {
	CreateAndSave(ctx context.Context, inst Instance) (Record, error)
}

// PrimaryKey returns the primary key value of rec for m.
func PrimaryKey(m Model, rec Record) (any, error) {
	v, ok := rec[m.PrimaryKeyName()]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: model %q has no %q value", ErrMissingPrimaryKey, m.Name(), m.PrimaryKeyName())
	}
	return v, nil
}

// KeyString normalizes a primary key value for map indexing, so the string
// "1" and the integer 1 address the same record.
func KeyString(pk any) string {
	switch k := pk.(type) {
	case string:
		return k
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(k), 'f', -1, 32)
	default:
		return fmt.Sprint(pk)
	}
}

// SameKey reports whether two primary key values address the same record.
func SameKey(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	return KeyString(a) == KeyString(b)
}
