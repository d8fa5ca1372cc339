package datastore

// Record is the plain serialized form of a model instance.
type Record map[string]any

// Seed maps a model name to the records a provider starts with.
type Seed map[string][]Record

// Clone returns a deep copy of r. Nested maps and slices are copied so the
// clone shares no mutable state with r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Merge deep-merges src into a copy of r. Nested maps merge key by key;
// every other value in src replaces the one in r.
func (r Record) Merge(src Record) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(src))
	}
	for k, v := range src {
		dst, dstOK := asMap(out[k])
		in, inOK := asMap(v)
		if dstOK && inOK {
			out[k] = map[string]any(Record(dst).Merge(Record(in)))
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	}
	return nil, false
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Record:
		return val.Clone()
	case map[string]any:
		return map[string]any(Record(val).Clone())
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case []int:
		return append([]int(nil), val...)
	case []float64:
		return append([]float64(nil), val...)
	default:
		return v
	}
}
