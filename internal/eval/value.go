package eval

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// toFloat converts numeric record and query values for comparison.
// Numeric strings are accepted since seed files and CLI flags carry text.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// dateLayouts are tried in order for string dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// toTime parses dates given as time.Time, strings in dateLayouts, or numbers
// holding Unix milliseconds.
func toTime(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, true
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		ms, ok := toFloat(v)
		if !ok {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)), true
	}
}

// toText renders a record value for pattern matching.
func toText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// compareValues orders two present values: numbers numerically, times by
// instant, strings lexically, anything else by string form.
func compareValues(a, b any) int {
	if fa, ok := numeric(a); ok {
		if fb, ok := numeric(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	return strings.Compare(toText(a), toText(b))
}

// numeric is toFloat without string parsing, so "10" and "9" sort lexically.
func numeric(v any) (float64, bool) {
	switch v.(type) {
	case string:
		return 0, false
	}
	return toFloat(v)
}
