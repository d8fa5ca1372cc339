package memstore

import (
	"io"
	"log/slog"
)

// DefaultPrimaryKey is the seed key field used when WithPrimaryKey is not given.
const DefaultPrimaryKey = "id"

// Option configures a Store.
type Option func(*Store)

// WithPrimaryKey sets the field used to key seed records.
// An empty name makes New fail with ErrConfig.
func WithPrimaryKey(name string) Option {
	return func(s *Store) {
		s.primaryKey = name
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
