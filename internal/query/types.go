package query

// ValueType names the type a predicate value is compared as.
type ValueType string

const (
	TypeString   ValueType = "string"
	TypeNumber   ValueType = "number"
	TypeInteger  ValueType = "integer"
	TypeBoolean  ValueType = "boolean"
	TypeDate     ValueType = "date"
	TypeDatetime ValueType = "datetime"
	TypeObject   ValueType = "object"
	TypeArray    ValueType = "array"
)

// ValueTypes lists every supported value type.
var ValueTypes = []ValueType{
	TypeString, TypeNumber, TypeInteger, TypeBoolean,
	TypeDate, TypeDatetime, TypeObject, TypeArray,
}

// IsValid reports whether t is one of ValueTypes. The empty type is valid and
// means TypeString.
func (t ValueType) IsValid() bool {
	if t == "" {
		return true
	}
	for _, vt := range ValueTypes {
		if vt == t {
			return true
		}
	}
	return false
}

// IsNumeric reports whether predicates of this type compare numerically.
func (t ValueType) IsNumeric() bool {
	return t == TypeNumber || t == TypeInteger
}

// orDefault substitutes TypeString for the empty type.
func (t ValueType) orDefault() ValueType {
	if t == "" {
		return TypeString
	}
	return t
}

// EqualitySymbol is the comparison used by a Property predicate.
type EqualitySymbol string

const (
	Equal              EqualitySymbol = "="
	LessThan           EqualitySymbol = "<"
	LessThanOrEqual    EqualitySymbol = "<="
	GreaterThan        EqualitySymbol = ">"
	GreaterThanOrEqual EqualitySymbol = ">="
)

// EqualitySymbols lists the allowed comparison symbols.
var EqualitySymbols = []EqualitySymbol{
	Equal, LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual,
}

// IsValid reports whether s is one of EqualitySymbols.
func (s EqualitySymbol) IsValid() bool {
	for _, sym := range EqualitySymbols {
		if sym == s {
			return true
		}
	}
	return false
}

// Kind identifies a statement variant.
type Kind string

const (
	KindProperty    Kind = "property"
	KindDatesBefore Kind = "datesBefore"
	KindDatesAfter  Kind = "datesAfter"
	KindSort        Kind = "sort"
	KindTake        Kind = "take"
	KindPage        Kind = "page"
	KindAnd         Kind = "and"
	KindOr          Kind = "or"
)

// Statement is a single query fragment.
//
// This is a sealed interface - only types in this package implement it, so
// evaluators can switch exhaustively over the variants.
type Statement interface {
	Kind() Kind
	statementNode()
}

// PropertyOptions tune how a Property predicate matches.
//
// StartsWith and EndsWith only apply to string matching; when both are set
// StartsWith wins.
type PropertyOptions struct {
	CaseSensitive  bool
	StartsWith     bool
	EndsWith       bool
	EqualitySymbol EqualitySymbol
}

// Property is a single-field predicate.
type Property struct {
	Name      string
	Value     any
	ValueType ValueType
	Options   PropertyOptions
}

func (Property) Kind() Kind     { return KindProperty }
func (Property) statementNode() {}

// Type returns the value type, TypeString when unset.
func (p Property) Type() ValueType { return p.ValueType.orDefault() }

// DatesBefore keeps records whose Key field is before Date.
// EqualToAndBefore makes the bound inclusive.
type DatesBefore struct {
	Key              string
	Date             any
	ValueType        ValueType
	EqualToAndBefore bool
}

func (DatesBefore) Kind() Kind     { return KindDatesBefore }
func (DatesBefore) statementNode() {}

// Type returns the value type, TypeString when unset.
func (d DatesBefore) Type() ValueType { return d.ValueType.orDefault() }

// DatesAfter keeps records whose Key field is after Date.
// EqualToAndAfter makes the bound inclusive.
type DatesAfter struct {
	Key             string
	Date            any
	ValueType       ValueType
	EqualToAndAfter bool
}

func (DatesAfter) Kind() Kind     { return KindDatesAfter }
func (DatesAfter) statementNode() {}

// Type returns the value type, TypeString when unset.
func (d DatesAfter) Type() ValueType { return d.ValueType.orDefault() }

// Sort orders results by Key.
type Sort struct {
	Key       string
	Ascending bool
}

func (Sort) Kind() Kind     { return KindSort }
func (Sort) statementNode() {}

// Take caps the number of results.
type Take struct {
	Value int
}

func (Take) Kind() Kind     { return KindTake }
func (Take) statementNode() {}

// Page carries an opaque pagination token.
type Page struct {
	Value any
}

func (Page) Kind() Kind     { return KindPage }
func (Page) statementNode() {}

// And joins the adjacent predicates with AND.
type And struct{}

func (And) Kind() Kind     { return KindAnd }
func (And) statementNode() {}

// Or joins the adjacent predicates with OR.
type Or struct{}

func (Or) Kind() Kind     { return KindOr }
func (Or) statementNode() {}

// IsPredicate reports whether s filters records.
func IsPredicate(s Statement) bool {
	switch s.(type) {
	case Property, DatesBefore, DatesAfter:
		return true
	}
	return false
}

// IsSeparator reports whether s is an And or Or.
func IsSeparator(s Statement) bool {
	switch s.(type) {
	case And, Or:
		return true
	}
	return false
}
