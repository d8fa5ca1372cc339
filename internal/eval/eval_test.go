package eval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/query"
)

func compile(t *testing.T, b query.Builder) query.OrmQuery {
	t.Helper()
	q, err := b.Compile()
	require.NoError(t, err)
	return q
}

func ids(records []datastore.Record) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r["id"]
	}
	return out
}

func numberRecords() []datastore.Record {
	return []datastore.Record{
		{"id": "1", "value": 1},
		{"id": "2", "value": 2},
		{"id": "3", "value": 3},
		{"id": "4", "value": 4},
	}
}

func TestApply_CaseSensitivity(t *testing.T) {
	records := []datastore.Record{{"id": "1", "name": "unit-test"}}

	insensitive := compile(t, query.New().Property("name", "Unit-Test"))
	got, err := Apply(records, insensitive)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	sensitive := compile(t, query.New().Property("name", "Unit-Test", query.CaseSensitive()))
	got, err = Apply(records, sensitive)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestApply_Anchoring(t *testing.T) {
	records := []datastore.Record{
		{"id": "1", "name": "unit-test"},
		{"id": "2", "name": "test-unit"},
	}

	testCases := []struct {
		name string
		b    query.Builder
		want []any
	}{
		{name: "exact", b: query.New().Property("name", "unit"), want: []any{}},
		{name: "starts with", b: query.New().Property("name", "unit", query.StartsWith()), want: []any{"1"}},
		{name: "ends with", b: query.New().Property("name", "unit", query.EndsWith()), want: []any{"2"}},
		{name: "starts with wins", b: query.New().Property("name", "unit", query.StartsWith(), query.EndsWith()), want: []any{"1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Apply(records, compile(t, tc.b))
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestApply_ValueIsMatchedLiterally(t *testing.T) {
	records := []datastore.Record{
		{"id": "1", "email": "a+b@example.com"},
		{"id": "2", "email": "aab@exampleXcom"},
	}
	got, err := Apply(records, compile(t, query.New().Property("email", "a+b@example.com")))
	require.NoError(t, err)
	assert.Equal(t, []any{"1"}, ids(got))
}

func TestApply_NonStringValuesMatchByText(t *testing.T) {
	records := []datastore.Record{
		{"id": "1", "active": true},
		{"id": "2", "active": false},
		{"id": "3"},
	}
	got, err := Apply(records, compile(t, query.New().Property("active", true, query.OfType(query.TypeBoolean))))
	require.NoError(t, err)
	assert.Equal(t, []any{"1"}, ids(got))
}

func TestApply_LargeFloatsMatchByText(t *testing.T) {
	records := []datastore.Record{
		{"id": "1", "code": float64(1234567)},
		{"id": "2", "code": float64(7654321)},
	}
	got, err := Apply(records, compile(t, query.New().Property("code", "1234567")))
	require.NoError(t, err)
	assert.Equal(t, []any{"1"}, ids(got))

	got, err = Apply(records, compile(t, query.New().Property("code", float64(7654321))))
	require.NoError(t, err)
	assert.Equal(t, []any{"2"}, ids(got))
}

func TestApply_NumericComparisons(t *testing.T) {
	testCases := []struct {
		symbol query.EqualitySymbol
		want   []any
	}{
		{symbol: query.Equal, want: []any{"2"}},
		{symbol: query.GreaterThan, want: []any{"3", "4"}},
		{symbol: query.GreaterThanOrEqual, want: []any{"2", "3", "4"}},
		{symbol: query.LessThan, want: []any{"1"}},
		{symbol: query.LessThanOrEqual, want: []any{"1", "2"}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.symbol), func(t *testing.T) {
			q := compile(t, query.New().Property("value", 2, query.OfType(query.TypeNumber), query.Symbol(tc.symbol)))
			got, err := Apply(numberRecords(), q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestApply_NumericIgnoresNonNumbers(t *testing.T) {
	records := []datastore.Record{
		{"id": "1", "value": "abc"},
		{"id": "2", "value": 5.5},
		{"id": "3"},
	}
	q := compile(t, query.New().Property("value", 5, query.OfType(query.TypeInteger), query.Symbol(query.GreaterThan)))
	got, err := Apply(records, q)
	require.NoError(t, err)
	assert.Equal(t, []any{"2"}, ids(got))
}

func TestNewFilter_OperatorErrors(t *testing.T) {
	unsupported := query.Fold([]query.Statement{
		query.Property{Name: "value", Value: 1, ValueType: query.TypeNumber, Options: query.PropertyOptions{EqualitySymbol: "!="}},
	})
	_, err := NewFilter(unsupported)
	assert.ErrorIs(t, err, ErrUnsupportedOperator)

	missing := query.Fold([]query.Statement{
		query.Property{Name: "value", Value: 1, ValueType: query.TypeNumber},
	})
	_, err = NewFilter(missing)
	assert.ErrorIs(t, err, ErrMissingOperator)
	assert.Contains(t, err.Error(), "property=value")
}

func TestApply_PropertiesAreAnded(t *testing.T) {
	records := []datastore.Record{
		{"id": "1", "name": "a", "value": 1},
		{"id": "2", "name": "a", "value": 2},
		{"id": "3", "name": "b", "value": 2},
	}
	q := compile(t, query.New().
		Property("name", "a").
		Property("value", 2, query.OfType(query.TypeNumber)))

	got, err := Apply(records, q)
	require.NoError(t, err)
	assert.Equal(t, []any{"2"}, ids(got))
}

func TestApply_OrGroups(t *testing.T) {
	records := []datastore.Record{
		{"id": "1", "name": "a", "kind": "x"},
		{"id": "2", "name": "b", "kind": "x"},
		{"id": "3", "name": "c", "kind": "x"},
		{"id": "4", "name": "a", "kind": "y"},
	}

	// kind=x AND (name=a OR name=b)
	q := compile(t, query.New().
		Property("kind", "x").
		Property("name", "a").
		Or().
		Property("name", "b"))

	got, err := Apply(records, q)
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "2"}, ids(got))
}

func TestApply_HandBuiltQueryUsesFlattenedMaps(t *testing.T) {
	records := []datastore.Record{
		{"id": "1", "name": "a", "created": "2024-01-10"},
		{"id": "2", "name": "a", "created": "2024-03-10"},
	}
	q := query.OrmQuery{
		Properties: map[string]query.Property{
			"name": {Name: "name", Value: "A"},
		},
		DatesBefore: map[string]query.DatesBefore{
			"created": {Key: "created", Date: "2024-02-01"},
		},
	}

	got, err := Apply(records, q)
	require.NoError(t, err)
	assert.Equal(t, []any{"1"}, ids(got))
}

func TestApply_MalformedChain(t *testing.T) {
	q := compile(t, query.New().Or().Property("name", "a"))
	_, err := Apply(nil, q)
	assert.ErrorIs(t, err, query.ErrInvalidQuery)
}

func TestApply_DateBounds(t *testing.T) {
	records := []datastore.Record{
		{"id": "1", "created": "2024-01-01"},
		{"id": "2", "created": "2024-02-01T00:00:00Z"},
		{"id": "3", "created": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"id": "4", "created": "not a date"},
		{"id": "5"},
	}

	testCases := []struct {
		name string
		b    query.Builder
		want []any
	}{
		{name: "before inclusive", b: query.New().DatesBefore("created", "2024-02-01"), want: []any{"1", "2"}},
		{name: "before exclusive", b: query.New().DatesBefore("created", "2024-02-01", query.Exclusive()), want: []any{"1"}},
		{name: "after inclusive", b: query.New().DatesAfter("created", "2024-02-01"), want: []any{"2", "3"}},
		{name: "after exclusive", b: query.New().DatesAfter("created", "2024-02-01", query.Exclusive()), want: []any{"3"}},
		{
			name: "window",
			b:    query.New().DatesAfter("created", "2024-01-15").DatesBefore("created", "2024-02-15"),
			want: []any{"2"},
		},
		{name: "unparseable bound", b: query.New().DatesBefore("created", "soon"), want: []any{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Apply(records, compile(t, tc.b))
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestApply_DateFromUnixMillis(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []datastore.Record{
		{"id": "1", "created": jan.UnixMilli()},
		{"id": "2", "created": jan.AddDate(0, 2, 0).UnixMilli()},
	}
	got, err := Apply(records, compile(t, query.New().DatesBefore("created", jan.AddDate(0, 1, 0))))
	require.NoError(t, err)
	assert.Equal(t, []any{"1"}, ids(got))
}

func TestApply_SortDescending(t *testing.T) {
	records := []datastore.Record{
		{"id": "123", "name": "unit-test"},
		{"id": "234", "name": "unit-test-2"},
	}
	got, err := Apply(records, compile(t, query.New().Sort("name", false)))
	require.NoError(t, err)
	assert.Equal(t, []any{"234", "123"}, ids(got))
}

func TestApply_SortBeforeTake(t *testing.T) {
	q := compile(t, query.New().SortDesc("value").Take(2))
	got, err := Apply(numberRecords(), q)
	require.NoError(t, err)
	assert.Equal(t, []any{"4", "3"}, ids(got))
}

func TestApply_DoesNotReorderInput(t *testing.T) {
	records := numberRecords()
	_, err := Apply(records, compile(t, query.New().SortDesc("value")))
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "2", "3", "4"}, ids(records))
}

func TestSortRecords_StableAndMissingLast(t *testing.T) {
	records := []datastore.Record{
		{"id": "1", "rank": 2},
		{"id": "2"},
		{"id": "3", "rank": 1},
		{"id": "4", "rank": 2},
	}

	SortRecords(records, query.Sort{Key: "rank", Ascending: true})
	assert.Equal(t, []any{"3", "1", "4", "2"}, ids(records))

	SortRecords(records, query.Sort{Key: "rank", Ascending: false})
	assert.Equal(t, []any{"1", "4", "3", "2"}, ids(records))
}

func TestSortRecords_Numbers(t *testing.T) {
	records := []datastore.Record{
		{"id": "a", "n": 10},
		{"id": "b", "n": 9.5},
		{"id": "c", "n": int64(100)},
	}
	SortRecords(records, query.Sort{Key: "n", Ascending: true})
	assert.Equal(t, []any{"b", "a", "c"}, ids(records))
}

func TestTakeRecords(t *testing.T) {
	assert.Len(t, TakeRecords(numberRecords(), 2), 2)
	assert.Len(t, TakeRecords(numberRecords(), 10), 4)
	assert.Empty(t, TakeRecords(numberRecords(), 0))
	assert.Empty(t, TakeRecords(numberRecords(), -1))
}

func TestPatternFor(t *testing.T) {
	assert.Equal(t, `(?i)^a\.b$`, PatternFor(query.Property{Value: "a.b"}))
	assert.Equal(t, `^a`, PatternFor(query.Property{Value: "a", Options: query.PropertyOptions{CaseSensitive: true, StartsWith: true}}))
	assert.Equal(t, `(?i)a$`, PatternFor(query.Property{Value: "a", Options: query.PropertyOptions{EndsWith: true}}))
}

func TestFilter_Groups(t *testing.T) {
	f, err := NewFilter(compile(t, query.New().Property("a", "1").Or().Property("b", "2")))
	require.NoError(t, err)
	assert.Len(t, f.Groups().OrChains, 1)
	assert.True(t, f.Match(datastore.Record{"b": "2"}))
	assert.False(t, f.Match(datastore.Record{"c": "3"}))
}
