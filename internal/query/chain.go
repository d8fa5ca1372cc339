package query

import (
	"fmt"
	"slices"
	"strings"
)

// Groups is the AND/OR structure of a boolean chain.
//
// A record matches when every predicate in Ands matches and, for each entry
// of OrChains, at least one predicate of that group matches.
type Groups struct {
	Ands     []Statement
	OrChains [][]Statement
}

// IsEmpty reports whether the groups hold no predicates.
func (g Groups) IsEmpty() bool {
	return len(g.Ands) == 0 && len(g.OrChains) == 0
}

// GroupChain resolves a flat statement chain into Groups.
//
// Sort, Take and Page statements are transparent to grouping. Adjacent
// predicates without a separator, or joined by And, are AND-ed. A predicate
// next to an Or, on either side, joins that OR-group; a run a.or().b.or().c
// forms a single group. Order is preserved within Ands and within each group.
//
// Fails with InvalidQuery when a separator starts or ends the chain, or when
// two separators are adjacent.
func GroupChain(chain []Statement) (Groups, error) {
	tokens := make([]Statement, 0, len(chain))
	for _, s := range chain {
		if IsPredicate(s) || IsSeparator(s) {
			tokens = append(tokens, s)
		}
	}

	for i, tok := range tokens {
		if !IsSeparator(tok) {
			continue
		}
		switch {
		case i == 0:
			return Groups{}, invalidQuery("chain cannot start with %s()", tok.Kind())
		case IsSeparator(tokens[i-1]):
			return Groups{}, invalidQuery("%s() cannot directly follow %s()", tok.Kind(), tokens[i-1].Kind())
		case i == len(tokens)-1:
			return Groups{}, invalidQuery("chain cannot end with %s()", tok.Kind())
		}
	}

	var g Groups
	afterOr := false
	for i, tok := range tokens {
		switch tok.(type) {
		case Or:
			afterOr = true
			continue
		case And:
			continue
		}
		beforeOr := i+1 < len(tokens) && tokens[i+1].Kind() == KindOr
		switch {
		case afterOr:
			last := len(g.OrChains) - 1
			g.OrChains[last] = append(g.OrChains[last], tok)
		case beforeOr:
			g.OrChains = append(g.OrChains, []Statement{tok})
		default:
			g.Ands = append(g.Ands, tok)
		}
		afterOr = false
	}
	return g, nil
}

// String renders the groups for diagnostics, e.g. "name AND (a OR b)".
func (g Groups) String() string {
	var parts []string
	for _, s := range g.Ands {
		parts = append(parts, predicateLabel(s))
	}
	for _, group := range g.OrChains {
		labels := make([]string, len(group))
		for i, s := range group {
			labels[i] = predicateLabel(s)
		}
		parts = append(parts, "("+strings.Join(labels, " OR ")+")")
	}
	return strings.Join(parts, " AND ")
}

func predicateLabel(s Statement) string {
	switch st := s.(type) {
	case Property:
		sym := st.Options.EqualitySymbol
		if sym == "" {
			sym = Equal
		}
		return fmt.Sprintf("%s%s%v", st.Name, sym, st.Value)
	case DatesBefore:
		return fmt.Sprintf("%s<%v", st.Key, st.Date)
	case DatesAfter:
		return fmt.Sprintf("%s>%v", st.Key, st.Date)
	default:
		return string(s.Kind())
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
