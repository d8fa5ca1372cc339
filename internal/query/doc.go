// Package query provides the statement vocabulary, the immutable builder and
// the compiled query form used to search models.
//
// ARCHITECTURE:
//
//	[Builder] → Compile() → [OrmQuery] → [datastore provider]
//	                             │
//	                             └─ Chain → GroupChain() → [Groups] → evaluator
//
// A query is assembled by appending statements to a Builder. Builders are
// persistent values: every method returns a new Builder that references the
// previous statement list instead of copying or mutating it, so a Builder can
// be shared and extended from several places.
//
// SEALED INTERFACE:
//
// Statement is sealed with the marker method pattern. The statement kinds are:
//   - Property: single-field predicate (string pattern or numeric comparison)
//   - DatesBefore / DatesAfter: bound on a date-valued field
//   - Sort: single sort key and direction
//   - Take: result cap
//   - Page: opaque pagination token passed through to the provider
//   - And / Or: separators between adjacent predicates
//
// BOOLEAN CHAIN:
//
// The compiled OrmQuery keeps the flattened convenience maps (Properties,
// DatesBefore, DatesAfter) and the Chain as appended. The maps are lossy: two
// predicates on the same field keep only the last one. Evaluators that need
// correct AND/OR semantics group the Chain with GroupChain:
//
//	a.property(x) b.property(y) .or() c.property(z)
//
// groups as Ands=[a], OrChains=[[b, c]]: a statement adjacent to an or() is
// pulled into that OR-group. Nesting is not supported.
package query
