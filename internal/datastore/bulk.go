package datastore

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/ormkit/internal/query"
)

// BulkInsert stores insts through p.
//
// When p implements BulkInserter the native path is used. Otherwise every
// Save is dispatched concurrently and awaited together: there is no ordering
// guarantee between items and no rollback, so saves that completed before a
// failure stay committed. The first error is returned.
func BulkInsert(ctx context.Context, p Provider, m Model, insts []Instance) error {
	if bi, ok := p.(BulkInserter); ok {
		return bi.BulkInsert(ctx, m, insts)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, inst := range insts {
		g.Go(func() error {
			if _, err := p.Save(gctx, inst); err != nil {
				return fmt.Errorf("bulk insert %s[%d]: %w", m.Name(), i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Count returns the number of records stored for m. Providers without a
// native Counter are asked for an unfiltered search.
func Count(ctx context.Context, p Provider, m Model) (int, error) {
	if c, ok := p.(Counter); ok {
		return c.Count(ctx, m)
	}
	res, err := p.Search(ctx, m, query.Fold(nil))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", m.Name(), err)
	}
	return len(res.Instances), nil
}

// CreateAndSave inserts inst, using the native capability when present.
func CreateAndSave(ctx context.Context, p Provider, inst Instance) (Record, error) {
	if cs, ok := p.(CreateAndSaver); ok {
		return cs.CreateAndSave(ctx, inst)
	}
	return p.Save(ctx, inst)
}
