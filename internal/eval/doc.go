// Package eval evaluates compiled queries against in-memory records.
//
// Evaluation runs in three steps, always in this order:
//
//	filter → sort → take
//
// FILTER:
//
// When the query carries a Chain, the chain is grouped with query.GroupChain
// and a record matches iff every AND predicate matches and every OR-group has
// at least one matching predicate. A query with an empty Chain (built by hand
// rather than by query.Builder) is evaluated from its flattened maps with
// every predicate AND-ed.
//
// Predicates compile once per search:
//   - string and other non-numeric Property: anchored, regex-quoted pattern
//     (^v$, ^v with StartsWith, v$ with EndsWith), case-insensitive unless
//     CaseSensitive, tested against the record value's string form
//   - numeric Property (number, integer): direct comparison by symbol
//   - DatesBefore / DatesAfter: instant comparison, inclusive when the
//     EqualTo flag is set
//
// A missing or unparseable record value never matches.
//
// SORT AND TAKE:
//
// Sorting is stable, so records with equal keys keep their input order.
// Missing sort values go last in either direction. Take slices after sorting.
package eval
