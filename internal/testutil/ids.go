// Package testutil holds deterministic helpers shared by tests.
package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator generates primary keys "<prefix>-1", "<prefix>-2", ...
//
// Unlike model.UUIDv7Generator, the output is reproducible, so golden
// snapshots of created records stay byte-identical between runs.
//
// Thread-safety: all methods are safe for concurrent use.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequenceGenerator creates a generator. An empty prefix means "id".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next key.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%d", g.prefix, g.seq)
}

// Reset restarts the sequence. The next Generate returns "<prefix>-1".
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// FixedGenerator returns predetermined keys in order.
//
// Panics once the keys are exhausted, so a test creating more instances
// than it planned for fails loudly.
type FixedGenerator struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewFixedGenerator creates a generator returning keys in order.
func NewFixedGenerator(keys ...string) *FixedGenerator {
	return &FixedGenerator{keys: keys}
}

// Generate returns the next predetermined key.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.keys) {
		panic("FixedGenerator: all keys exhausted")
	}
	key := g.keys[g.idx]
	g.idx++
	return key
}
