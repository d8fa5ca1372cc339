package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/memstore"
	"github.com/roach88/ormkit/internal/model"
	"github.com/roach88/ormkit/internal/query"
	"github.com/roach88/ormkit/internal/schema"
	"github.com/roach88/ormkit/internal/seed"
)

// QueryOptions holds the flags shared by search and compile.
type QueryOptions struct {
	*RootOptions
	Models     string   // CUE model directory
	Seed       string   // seed file (.yaml, .yml, .json)
	PrimaryKey string   // primary key when no models directory is given
	Where      []string // field=value, field>value, ...
	Any        bool     // join where clauses with OR instead of AND
	Sort       string
	Desc       bool
	Take       string
}

func (o *QueryOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Models, "models", "", "directory of CUE model definitions")
	cmd.Flags().StringVar(&o.Seed, "seed", "", "seed data file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&o.PrimaryKey, "primary-key", "", "primary key field when --models is not given (default \"id\")")
	cmd.Flags().StringArrayVarP(&o.Where, "where", "w", nil, "predicate field=value, field>value, field>=value, field<value or field<=value (repeatable)")
	cmd.Flags().BoolVar(&o.Any, "any", false, "match records satisfying any --where clause")
	cmd.Flags().StringVar(&o.Sort, "sort", "", "sort by field")
	cmd.Flags().BoolVar(&o.Desc, "desc", false, "sort descending")
	cmd.Flags().StringVar(&o.Take, "take", "", "maximum number of results")
}

// loadModel declares the named model and, when --seed is given, fills a new
// store from the seed file.
func (o *QueryOptions) loadModel(ctx context.Context, name string) (*model.Definition, error) {
	spec := &model.Spec{Name: name, PrimaryKey: o.PrimaryKey}
	if o.Models != "" {
		loaded, errs := schema.LoadDir(o.Models, schema.LoadModeFailFast)
		if len(errs) > 0 {
			return nil, errs[0]
		}
		s, ok := loaded.Models[name]
		if !ok {
			return nil, fmt.Errorf("model %q not defined in %s (have %v)", name, o.Models, loaded.Names())
		}
		spec = s
	}
	if spec.PrimaryKey == "" {
		spec.PrimaryKey = model.DefaultPrimaryKey
	}

	var data datastore.Seed
	if o.Seed != "" {
		var err error
		if data, err = seed.LoadFile(ctx, o.Seed); err != nil {
			return nil, err
		}
	}

	logger := o.logger()
	st, err := memstore.New(data, memstore.WithPrimaryKey(spec.PrimaryKey), memstore.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return model.NewDefinition(*spec, model.WithProvider(st), model.WithLogger(logger))
}

// buildQuery turns the flags into builder calls. Value types come from the
// model's property declarations; comparisons on undeclared fields are numeric.
func (o *QueryOptions) buildQuery(def *model.Definition) (query.Builder, error) {
	b := query.New()
	for i, clause := range o.Where {
		w, err := parseWhere(clause)
		if err != nil {
			return b, err
		}
		if i > 0 && o.Any {
			b = b.Or()
		}
		b = w.apply(b, propertyType(def, w.field, w.symbol))
	}

	if o.Sort != "" {
		b = b.Sort(o.Sort, !o.Desc)
	}
	if o.Take != "" {
		b = b.Take(o.Take)
	}
	return b, nil
}

type whereClause struct {
	field  string
	symbol query.EqualitySymbol
	value  string
}

// Longest symbols first, so ">=" is not read as ">".
var whereSymbols = []query.EqualitySymbol{
	query.GreaterThanOrEqual, query.LessThanOrEqual,
	query.GreaterThan, query.LessThan, query.Equal,
}

func parseWhere(clause string) (whereClause, error) {
	idx, sym := -1, query.EqualitySymbol("")
	for _, s := range whereSymbols {
		i := strings.Index(clause, string(s))
		if i > 0 && (idx == -1 || i < idx || (i == idx && len(s) > len(sym))) {
			idx, sym = i, s
		}
	}
	if idx == -1 {
		return whereClause{}, fmt.Errorf("invalid --where %q: expected field<op>value with op one of %v", clause, query.EqualitySymbols)
	}
	return whereClause{
		field:  strings.TrimSpace(clause[:idx]),
		symbol: sym,
		value:  strings.TrimSpace(clause[idx+len(sym):]),
	}, nil
}

func propertyType(def *model.Definition, field string, sym query.EqualitySymbol) query.ValueType {
	if p, ok := def.Property(field); ok && p.Type != "" {
		return p.Type
	}
	if sym != query.Equal {
		return query.TypeNumber
	}
	return query.TypeString
}

// apply appends the clause. Ordered comparisons on date fields become date
// bounds; numeric values are parsed so they compare by value.
func (w whereClause) apply(b query.Builder, typ query.ValueType) query.Builder {
	if typ == query.TypeDate || typ == query.TypeDatetime {
		switch w.symbol {
		case query.LessThan:
			return b.DatesBefore(w.field, w.value, query.Exclusive())
		case query.LessThanOrEqual:
			return b.DatesBefore(w.field, w.value)
		case query.GreaterThan:
			return b.DatesAfter(w.field, w.value, query.Exclusive())
		case query.GreaterThanOrEqual:
			return b.DatesAfter(w.field, w.value)
		}
		typ = query.TypeString
	}

	var value any = w.value
	if typ.IsNumeric() {
		if f, err := strconv.ParseFloat(w.value, 64); err == nil {
			value = f
		}
	}
	return b.Property(w.field, value, query.OfType(typ), query.Symbol(w.symbol))
}
