package datastore

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ormkit/internal/query"
)

// ErrNoProvider is wrapped by every Noop error.
var ErrNoProvider = errors.New("no datastore provider configured")

// Noop rejects every operation with an operation-specific error.
type Noop struct{}

var (
	_ Provider       = Noop{}
	_ BulkInserter   = Noop{}
	_ Counter        = Noop{}
	_ CreateAndSaver = Noop{}
)

func noopError(op string) error {
	return fmt.Errorf("%w: %s called without a datastore provider", ErrNoProvider, op)
}

func (Noop) Save(context.Context, Instance) (Record, error) {
	return nil, noopError("save")
}

func (Noop) Delete(context.Context, Instance) error {
	return noopError("delete")
}

func (Noop) Retrieve(context.Context, Model, any) (Record, error) {
	return nil, noopError("retrieve")
}

func (Noop) Search(context.Context, Model, query.OrmQuery) (SearchResult, error) {
	return SearchResult{}, noopError("search")
}

func (Noop) BulkInsert(context.Context, Model, []Instance) error {
	return noopError("bulkInsert")
}

func (Noop) Count(context.Context, Model) (int, error) {
	return 0, noopError("count")
}

func (Noop) CreateAndSave(context.Context, Instance) (Record, error) {
	return nil, noopError("createAndSave")
}
