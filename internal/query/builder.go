package query

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// node is one link of the persistent statement list. Nodes are never
// modified after construction, so any number of builders may share a prefix.
type node struct {
	stmt Statement
	prev *node
	size int
}

// Builder accumulates statements. The zero value is an empty builder.
//
// Builder is an immutable value: every method returns a new Builder and
// leaves the receiver unchanged.
//
// Example:
//
//	q, err := query.New().
//		Property("name", "unit-test", query.CaseSensitive()).
//		Or().
//		Property("value", 2, query.OfType(query.TypeNumber), query.Symbol(query.GreaterThan)).
//		SortDesc("name").
//		Take(10).
//		Compile()
//
// Methods that validate input (Property, Sort, Take) return a builder
// carrying an InvalidArgument error instead of panicking. Err reports it right
// away; every later call is a no-op and Compile returns the error.
type Builder struct {
	tail *node
	err  error
}

// New returns a builder seeded with statements.
func New(statements ...Statement) Builder {
	var b Builder
	for _, s := range statements {
		b = b.append(s)
	}
	return b
}

func (b Builder) append(s Statement) Builder {
	if b.err != nil {
		return b
	}
	size := 1
	if b.tail != nil {
		size = b.tail.size + 1
	}
	return Builder{tail: &node{stmt: s, prev: b.tail, size: size}}
}

func (b Builder) fail(err error) Builder {
	if b.err != nil {
		return b
	}
	return Builder{tail: b.tail, err: err}
}

// Err returns the first argument error recorded by this builder.
func (b Builder) Err() error {
	return b.err
}

// Len returns the number of statements.
func (b Builder) Len() int {
	if b.tail == nil {
		return 0
	}
	return b.tail.size
}

// Statements returns the statements in insertion order. The returned slice
// is freshly allocated.
func (b Builder) Statements() []Statement {
	out := make([]Statement, b.Len())
	for n := b.tail; n != nil; n = n.prev {
		out[n.size-1] = n.stmt
	}
	return out
}

// PropertyOption configures a Property statement.
type PropertyOption func(*Property)

// CaseSensitive makes string matching case sensitive.
func CaseSensitive() PropertyOption {
	return func(p *Property) { p.Options.CaseSensitive = true }
}

// StartsWith anchors string matching at the start only.
func StartsWith() PropertyOption {
	return func(p *Property) { p.Options.StartsWith = true }
}

// EndsWith anchors string matching at the end only.
func EndsWith() PropertyOption {
	return func(p *Property) { p.Options.EndsWith = true }
}

// OfType sets the value type. The default is TypeString.
func OfType(t ValueType) PropertyOption {
	return func(p *Property) { p.ValueType = t }
}

// Symbol sets the comparison symbol. The default is Equal.
func Symbol(s EqualitySymbol) PropertyOption {
	return func(p *Property) { p.Options.EqualitySymbol = s }
}

// WithOptions replaces all matching options at once.
func WithOptions(o PropertyOptions) PropertyOption {
	return func(p *Property) { p.Options = o }
}

// Property appends a single-field predicate.
//
// Fails with InvalidArgument when the symbol is not one of EqualitySymbols,
// or when a non-equality symbol is combined with TypeString.
func (b Builder) Property(name string, value any, opts ...PropertyOption) Builder {
	if b.err != nil {
		return b
	}
	p := Property{Name: name, Value: value}
	for _, opt := range opts {
		opt(&p)
	}
	if p.ValueType == "" {
		p.ValueType = TypeString
	}
	if p.Options.EqualitySymbol == "" {
		p.Options.EqualitySymbol = Equal
	}
	if !p.ValueType.IsValid() {
		return b.fail(invalidArgument("unknown value type %q for property %q", p.ValueType, name))
	}
	if !p.Options.EqualitySymbol.IsValid() {
		return b.fail(invalidArgument("equality symbol %q is not one of %v", p.Options.EqualitySymbol, EqualitySymbols))
	}
	if p.Options.EqualitySymbol != Equal && p.ValueType == TypeString {
		return b.fail(invalidArgument("cannot use non-equality symbol %q with string type (property %q)", p.Options.EqualitySymbol, name))
	}
	return b.append(p)
}

// DateOption configures a DatesBefore or DatesAfter statement.
type DateOption func(*dateConfig)

type dateConfig struct {
	valueType ValueType
	inclusive bool
}

// DateType sets the value type of a date bound. The default is TypeString.
func DateType(t ValueType) DateOption {
	return func(c *dateConfig) { c.valueType = t }
}

// Exclusive makes a date bound strict, so equal instants no longer pass.
func Exclusive() DateOption {
	return func(c *dateConfig) { c.inclusive = false }
}

func newDateConfig(opts []DateOption) dateConfig {
	c := dateConfig{valueType: TypeString, inclusive: true}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// DatesBefore appends an upper bound on a date field. Inclusive by default.
func (b Builder) DatesBefore(key string, date any, opts ...DateOption) Builder {
	c := newDateConfig(opts)
	return b.append(DatesBefore{Key: key, Date: date, ValueType: c.valueType, EqualToAndBefore: c.inclusive})
}

// DatesAfter appends a lower bound on a date field. Inclusive by default.
func (b Builder) DatesAfter(key string, date any, opts ...DateOption) Builder {
	c := newDateConfig(opts)
	return b.append(DatesAfter{Key: key, Date: date, ValueType: c.valueType, EqualToAndAfter: c.inclusive})
}

// Sort appends a sort statement. ascending must be a bool; nil means true.
// Any other type fails with InvalidArgument. Use SortAsc or SortDesc when the
// direction is known at compile time.
func (b Builder) Sort(key string, ascending any) Builder {
	if b.err != nil {
		return b
	}
	switch v := ascending.(type) {
	case nil:
		return b.append(Sort{Key: key, Ascending: true})
	case bool:
		return b.append(Sort{Key: key, Ascending: v})
	default:
		return b.fail(invalidArgument("sort direction for %q must be a boolean, got %T", key, ascending))
	}
}

// SortAsc appends an ascending sort on key.
func (b Builder) SortAsc(key string) Builder {
	return b.append(Sort{Key: key, Ascending: true})
}

// SortDesc appends a descending sort on key.
func (b Builder) SortDesc(key string) Builder {
	return b.append(Sort{Key: key, Ascending: false})
}

// Take appends a result cap. count may be any integer kind, an integral
// float, or a string holding an integer; anything else fails with
// InvalidArgument.
func (b Builder) Take(count any) Builder {
	if b.err != nil {
		return b
	}
	n, err := parseCount(count)
	if err != nil {
		return b.fail(err)
	}
	if n < 0 {
		return b.fail(invalidArgument("take count %d is negative", n))
	}
	return b.append(Take{Value: n})
}

// Pagination appends an opaque pagination token, stored verbatim.
func (b Builder) Pagination(value any) Builder {
	return b.append(Page{Value: value})
}

// And appends an AND separator.
func (b Builder) And() Builder {
	return b.append(And{})
}

// Or appends an OR separator.
func (b Builder) Or() Builder {
	return b.append(Or{})
}

func parseCount(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		if n > math.MaxInt {
			return 0, invalidArgument("take count %d overflows int", n)
		}
		return int(n), nil
	case float32:
		return parseFloatCount(float64(n))
	case float64:
		return parseFloatCount(n)
	case json.Number:
		return parseStringCount(string(n))
	case string:
		return parseStringCount(n)
	default:
		return 0, invalidArgument("take count must be an integer, got %T", v)
	}
}

func parseFloatCount(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, invalidArgument("take count %v is not an integer", f)
	}
	return int(f), nil
}

func parseStringCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalidArgument("take count %q is not an integer", s)
	}
	return n, nil
}
