package query

// OrmQuery is the canonical compiled query handed to datastore providers.
//
// Properties, DatesBefore and DatesAfter are a flattened projection of Chain
// keyed by field name (last write wins). Chain holds every statement in
// insertion order and is the source of truth for AND/OR grouping.
type OrmQuery struct {
	Properties  map[string]Property
	DatesBefore map[string]DatesBefore // nil when no dates-before statement
	DatesAfter  map[string]DatesAfter  // nil when no dates-after statement
	Sort        *Sort
	Take        *int
	Page        any
	Chain       []Statement
}

// Compile folds the statements into an OrmQuery. It returns the first
// argument error recorded by the builder, if any.
//
// Compile is pure: compiling the same builder twice yields equal queries.
func (b Builder) Compile() (OrmQuery, error) {
	if b.err != nil {
		return OrmQuery{}, b.err
	}
	return Fold(b.Statements()), nil
}

// Fold builds an OrmQuery from statements without validating them.
// The chain slice is copied.
func Fold(statements []Statement) OrmQuery {
	q := OrmQuery{
		Properties: make(map[string]Property),
		Chain:      append([]Statement(nil), statements...),
	}
	for _, s := range statements {
		switch st := s.(type) {
		case Property:
			q.Properties[st.Name] = st
		case DatesBefore:
			if q.DatesBefore == nil {
				q.DatesBefore = make(map[string]DatesBefore)
			}
			q.DatesBefore[st.Key] = st
		case DatesAfter:
			if q.DatesAfter == nil {
				q.DatesAfter = make(map[string]DatesAfter)
			}
			q.DatesAfter[st.Key] = st
		case Sort:
			sortStmt := st
			q.Sort = &sortStmt
		case Take:
			n := st.Value
			q.Take = &n
		case Page:
			q.Page = st.Value
		case And, Or:
			// Grouping survives only in Chain.
		}
	}
	return q
}

// Predicates returns the predicate statements of the flattened projection:
// properties first, then dates-before, then dates-after, each sorted by key.
func (q OrmQuery) Predicates() []Statement {
	var out []Statement
	for _, k := range sortedKeys(q.Properties) {
		out = append(out, q.Properties[k])
	}
	for _, k := range sortedKeys(q.DatesBefore) {
		out = append(out, q.DatesBefore[k])
	}
	for _, k := range sortedKeys(q.DatesAfter) {
		out = append(out, q.DatesAfter[k])
	}
	return out
}
