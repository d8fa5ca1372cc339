package canonical

import "github.com/roach88/ormkit/internal/query"

// QueryObject converts a compiled query to plain values for Marshal. Empty
// sections are omitted; Sort and Take render as null when unset.
func QueryObject(q query.OrmQuery) map[string]any {
	obj := map[string]any{
		"properties": mapOf(q.Properties, statementObject),
		"sort":       nil,
		"take":       nil,
		"page":       q.Page,
	}
	if len(q.DatesBefore) > 0 {
		obj["datesBefore"] = mapOf(q.DatesBefore, statementObject)
	}
	if len(q.DatesAfter) > 0 {
		obj["datesAfter"] = mapOf(q.DatesAfter, statementObject)
	}
	if q.Sort != nil {
		obj["sort"] = statementObject(*q.Sort)
	}
	if q.Take != nil {
		obj["take"] = *q.Take
	}

	chain := make([]any, len(q.Chain))
	for i, s := range q.Chain {
		chain[i] = statementObject(s)
	}
	obj["chain"] = chain
	return obj
}

func mapOf[S query.Statement](m map[string]S, conv func(query.Statement) map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, s := range m {
		out[k] = conv(s)
	}
	return out
}

// statementObject renders one statement with its kind.
func statementObject(s query.Statement) map[string]any {
	obj := map[string]any{"type": string(s.Kind())}
	switch st := s.(type) {
	case query.Property:
		obj["name"] = st.Name
		obj["value"] = st.Value
		obj["valueType"] = string(st.Type())
		obj["options"] = map[string]any{
			"caseSensitive":  st.Options.CaseSensitive,
			"startsWith":     st.Options.StartsWith,
			"endsWith":       st.Options.EndsWith,
			"equalitySymbol": string(st.Options.EqualitySymbol),
		}
	case query.DatesBefore:
		obj["key"] = st.Key
		obj["date"] = st.Date
		obj["valueType"] = string(st.Type())
		obj["equalToAndBefore"] = st.EqualToAndBefore
	case query.DatesAfter:
		obj["key"] = st.Key
		obj["date"] = st.Date
		obj["valueType"] = string(st.Type())
		obj["equalToAndAfter"] = st.EqualToAndAfter
	case query.Sort:
		obj["key"] = st.Key
		obj["order"] = st.Ascending
	case query.Take:
		obj["value"] = st.Value
	case query.Page:
		obj["value"] = st.Value
	}
	return obj
}
