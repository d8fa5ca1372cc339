package eval

import (
	"slices"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/query"
)

// SortRecords stable-sorts records in place by s.Key.
// Records missing the key sort last regardless of direction.
func SortRecords(records []datastore.Record, s query.Sort) {
	slices.SortStableFunc(records, func(a, b datastore.Record) int {
		va, aok := a[s.Key]
		vb, bok := b[s.Key]
		aok = aok && va != nil
		bok = bok && vb != nil
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		c := compareValues(va, vb)
		if !s.Ascending {
			c = -c
		}
		return c
	})
}

// TakeRecords returns at most n records. A negative n keeps nothing.
func TakeRecords(records []datastore.Record, n int) []datastore.Record {
	if n < 0 {
		n = 0
	}
	if n < len(records) {
		return records[:n]
	}
	return records
}
