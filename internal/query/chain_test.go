package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prop(name string) Property {
	return Property{Name: name, Value: name, ValueType: TypeString, Options: PropertyOptions{EqualitySymbol: Equal}}
}

func TestGroupChain(t *testing.T) {
	a, b, c, d, e := prop("a"), prop("b"), prop("c"), prop("d"), prop("e")

	testCases := []struct {
		name  string
		chain []Statement
		want  Groups
	}{
		{
			name:  "empty",
			chain: nil,
			want:  Groups{},
		},
		{
			name:  "implicit and",
			chain: []Statement{a, b},
			want:  Groups{Ands: []Statement{a, b}},
		},
		{
			name:  "explicit and",
			chain: []Statement{a, And{}, b},
			want:  Groups{Ands: []Statement{a, b}},
		},
		{
			name:  "single or",
			chain: []Statement{a, Or{}, b},
			want:  Groups{OrChains: [][]Statement{{a, b}}},
		},
		{
			name:  "or run forms one group",
			chain: []Statement{a, Or{}, b, Or{}, c},
			want:  Groups{OrChains: [][]Statement{{a, b, c}}},
		},
		{
			name:  "or binds the adjacent pair first",
			chain: []Statement{a, b, Or{}, c},
			want:  Groups{Ands: []Statement{a}, OrChains: [][]Statement{{b, c}}},
		},
		{
			name:  "two groups joined by and",
			chain: []Statement{a, b, Or{}, c, And{}, d, Or{}, e},
			want: Groups{
				Ands:     []Statement{a},
				OrChains: [][]Statement{{b, c}, {d, e}},
			},
		},
		{
			name:  "adjacent groups without separator",
			chain: []Statement{a, Or{}, b, c, Or{}, d},
			want:  Groups{OrChains: [][]Statement{{a, b}, {c, d}}},
		},
		{
			name:  "and after or group",
			chain: []Statement{a, Or{}, b, And{}, c},
			want:  Groups{Ands: []Statement{c}, OrChains: [][]Statement{{a, b}}},
		},
		{
			name:  "non-predicates are transparent",
			chain: []Statement{a, Sort{Key: "a"}, Or{}, Take{Value: 1}, b, Page{Value: 1}},
			want:  Groups{OrChains: [][]Statement{{a, b}}},
		},
		{
			name: "date bounds take part",
			chain: []Statement{
				DatesBefore{Key: "d", Date: "2024-01-01"}, Or{}, DatesAfter{Key: "d", Date: "2025-01-01"}, a,
			},
			want: Groups{
				Ands: []Statement{a},
				OrChains: [][]Statement{{
					DatesBefore{Key: "d", Date: "2024-01-01"}, DatesAfter{Key: "d", Date: "2025-01-01"},
				}},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GroupChain(tc.chain)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGroupChain_Malformed(t *testing.T) {
	a, b := prop("a"), prop("b")

	testCases := []struct {
		name    string
		chain   []Statement
		message string
	}{
		{name: "leading or", chain: []Statement{Or{}, a}, message: "cannot start with or()"},
		{name: "leading and", chain: []Statement{And{}, a}, message: "cannot start with and()"},
		{name: "leading or after sort", chain: []Statement{Sort{Key: "a"}, Or{}, a}, message: "cannot start"},
		{name: "and and", chain: []Statement{a, And{}, And{}, b}, message: "cannot directly follow"},
		{name: "or or", chain: []Statement{a, Or{}, Or{}, b}, message: "cannot directly follow"},
		{name: "and or", chain: []Statement{a, And{}, Or{}, b}, message: "or() cannot directly follow and()"},
		{name: "trailing or", chain: []Statement{a, Or{}}, message: "cannot end with or()"},
		{name: "lone separator", chain: []Statement{Or{}}, message: "cannot start"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GroupChain(tc.chain)
			require.Error(t, err)
			assert.True(t, IsInvalidQuery(err))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestGroupChain_FromBuilder(t *testing.T) {
	q, err := New().Or().Property("name", "x").Compile()
	require.NoError(t, err, "the builder itself accepts a leading or")

	_, err = GroupChain(q.Chain)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestGroups_String(t *testing.T) {
	g, err := GroupChain([]Statement{
		prop("a"), prop("b"), Or{},
		Property{Name: "n", Value: 2, ValueType: TypeNumber, Options: PropertyOptions{EqualitySymbol: GreaterThan}},
	})
	require.NoError(t, err)
	assert.Equal(t, "a=a AND (b=b OR n>2)", g.String())
	assert.False(t, g.IsEmpty())
	assert.True(t, Groups{}.IsEmpty())
}
