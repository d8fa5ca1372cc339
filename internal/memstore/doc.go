// Package memstore is an in-process datastore.Provider.
//
// Each Store owns its own buckets, one per model name. Records are kept in
// insertion order and cloned on every read and write, so callers never share
// state with the store:
//
//	s, err := memstore.New(datastore.Seed{
//		"User": {{"id": "1", "name": "unit-test"}},
//	})
//	res, err := s.Search(ctx, users, q)
//
// Search evaluates the compiled query with package eval and never pages:
// SearchResult.Page is always nil and pagination tokens are ignored.
//
// A Store is safe for concurrent use, which the errgroup fallback of
// datastore.BulkInsert relies on.
package memstore
