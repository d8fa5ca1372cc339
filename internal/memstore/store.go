package memstore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/eval"
	"github.com/roach88/ormkit/internal/query"
)

// bucket holds the records of one model in insertion order.
type bucket struct {
	records map[string]datastore.Record
	order   []string
}

func newBucket() *bucket {
	return &bucket{records: make(map[string]datastore.Record)}
}

func (b *bucket) put(key string, rec datastore.Record) {
	if _, exists := b.records[key]; !exists {
		b.order = append(b.order, key)
	}
	b.records[key] = rec
}

func (b *bucket) remove(key string) bool {
	if _, exists := b.records[key]; !exists {
		return false
	}
	delete(b.records, key)
	b.order = slices.DeleteFunc(b.order, func(k string) bool { return k == key })
	return true
}

// snapshot returns clones of every record in insertion order.
func (b *bucket) snapshot() []datastore.Record {
	out := make([]datastore.Record, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, b.records[key].Clone())
	}
	return out
}

// Store is an in-memory datastore.Provider.
type Store struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	primaryKey string
	logger     *slog.Logger
}

var (
	_ datastore.Provider       = (*Store)(nil)
	_ datastore.BulkInserter   = (*Store)(nil)
	_ datastore.Counter        = (*Store)(nil)
	_ datastore.CreateAndSaver = (*Store)(nil)
)

// New creates a Store holding seed.
//
// Seed records are keyed by the primary key field (DefaultPrimaryKey unless
// WithPrimaryKey is given). A record whose key was already seeded is
// deep-merged into the earlier one. New fails with ErrConfig when the
// primary key name is empty or a seed record has no key value.
func New(seed datastore.Seed, opts ...Option) (*Store, error) {
	s := &Store{
		buckets:    make(map[string]*bucket),
		primaryKey: DefaultPrimaryKey,
		logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.primaryKey == "" {
		return nil, configError("primary key name is required")
	}

	for modelName, records := range seed {
		b := newBucket()
		for i, rec := range records {
			pk, ok := rec[s.primaryKey]
			if !ok || pk == nil {
				return nil, configError("seed record %s[%d] has no %q value", modelName, i, s.primaryKey)
			}
			key := datastore.KeyString(pk)
			if existing, ok := b.records[key]; ok {
				b.put(key, existing.Merge(rec))
				continue
			}
			b.put(key, rec.Clone())
		}
		s.buckets[modelName] = b
	}

	s.logger.Debug("store created", "models", len(s.buckets), "primary_key", s.primaryKey)
	return s, nil
}

// PrimaryKeyName returns the field used to key seed records.
func (s *Store) PrimaryKeyName() string {
	return s.primaryKey
}

// keyOf serializes inst and resolves its bucket key.
func keyOf(ctx context.Context, inst datastore.Instance) (datastore.Model, datastore.Record, string, error) {
	m := inst.Model()
	rec, err := inst.ToObj(ctx)
	if err != nil {
		return nil, nil, "", fmt.Errorf("serialize %s: %w", m.Name(), err)
	}
	pk, err := datastore.PrimaryKey(m, rec)
	if err != nil {
		return nil, nil, "", err
	}
	return m, rec, datastore.KeyString(pk), nil
}

// Save upserts inst by primary key. No validation happens here.
func (s *Store) Save(ctx context.Context, inst datastore.Instance) (datastore.Record, error) {
	m, rec, key, err := keyOf(ctx, inst)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.saveLocked(m.Name(), key, rec)
	s.mu.Unlock()

	s.logger.Debug("record saved", "model", m.Name(), "key", key)
	return rec.Clone(), nil
}

func (s *Store) saveLocked(modelName, key string, rec datastore.Record) {
	b, ok := s.buckets[modelName]
	if !ok {
		b = newBucket()
		s.buckets[modelName] = b
	}
	b.put(key, rec.Clone())
}

// Delete removes inst by primary key. Deleting an absent record, or from a
// model with no records, succeeds.
func (s *Store) Delete(ctx context.Context, inst datastore.Instance) error {
	m, _, key, err := keyOf(ctx, inst)
	if err != nil {
		return err
	}

	s.mu.Lock()
	removed := false
	if b, ok := s.buckets[m.Name()]; ok {
		removed = b.remove(key)
	}
	s.mu.Unlock()

	s.logger.Debug("record deleted", "model", m.Name(), "key", key, "removed", removed)
	return nil
}

// Retrieve returns the record stored under primaryKey, or nil when absent.
func (s *Store) Retrieve(_ context.Context, m datastore.Model, primaryKey any) (datastore.Record, error) {
	if primaryKey == nil {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[m.Name()]
	if !ok {
		return nil, nil
	}
	rec, ok := b.records[datastore.KeyString(primaryKey)]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

// Search evaluates q over the records of m.
func (s *Store) Search(_ context.Context, m datastore.Model, q query.OrmQuery) (datastore.SearchResult, error) {
	s.mu.RLock()
	b, ok := s.buckets[m.Name()]
	var records []datastore.Record
	if ok {
		records = b.snapshot()
	}
	s.mu.RUnlock()

	if !ok {
		return datastore.SearchResult{Instances: []datastore.Record{}}, nil
	}

	matched, err := eval.Apply(records, q)
	if err != nil {
		return datastore.SearchResult{}, fmt.Errorf("search %s: %w", m.Name(), err)
	}

	s.logger.Debug("search evaluated", "model", m.Name(), "scanned", len(records), "matched", len(matched))
	return datastore.SearchResult{Instances: matched}, nil
}

// BulkInsert saves insts in order under a single lock. Every instance is
// serialized before anything is written, so a bad instance leaves the store
// unchanged.
func (s *Store) BulkInsert(ctx context.Context, m datastore.Model, insts []datastore.Instance) error {
	type pending struct {
		key string
		rec datastore.Record
	}
	batch := make([]pending, 0, len(insts))
	for i, inst := range insts {
		_, rec, key, err := keyOf(ctx, inst)
		if err != nil {
			return fmt.Errorf("bulk insert %s[%d]: %w", m.Name(), i, err)
		}
		batch = append(batch, pending{key: key, rec: rec})
	}

	s.mu.Lock()
	for _, p := range batch {
		s.saveLocked(m.Name(), p.key, p.rec)
	}
	s.mu.Unlock()

	s.logger.Debug("bulk insert", "model", m.Name(), "count", len(batch))
	return nil
}

// Count returns the number of records stored for m.
func (s *Store) Count(_ context.Context, m datastore.Model) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.buckets[m.Name()]; ok {
		return len(b.order), nil
	}
	return 0, nil
}

// CreateAndSave inserts inst. The store assigns no fields, so this is Save.
func (s *Store) CreateAndSave(ctx context.Context, inst datastore.Instance) (datastore.Record, error) {
	return s.Save(ctx, inst)
}

// Models returns the names of models with a bucket, sorted.
func (s *Store) Models() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
