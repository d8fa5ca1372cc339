package model

import "github.com/google/uuid"

// IDGenerator produces primary keys for instances created without one.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 keys.
//
// UUIDv7 embeds a timestamp in the most significant bits, so records created
// later sort after earlier ones when ordered by primary key.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
