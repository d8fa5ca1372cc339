// Package schema compiles CUE model definitions into model.Spec values.
//
// A definition lives under the top-level "models" struct:
//
//	models: User: {
//		primaryKey: "id"
//		properties: {
//			id:      string
//			name:    string
//			age:     int
//			score:   number
//			active:  bool
//			created: "date"
//			tags:    [...string]
//			meta:    {...}
//		}
//		unique: ["name"]
//		uniqueTogether: [["name", "age"]]
//	}
//
// A property type is either a CUE type, mapped by kind, or a string literal
// naming a query value type ("date", "datetime", ...).
package schema

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ormkit/internal/model"
	"github.com/roach88/ormkit/internal/query"
)

// CompileModel parses a CUE value into a model.Spec.
//
// The CUE value should be the model struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`models: User: { ... }`)
//	spec, err := CompileModel(v.LookupPath(cue.ParsePath("models.User")))
func CompileModel(v cue.Value) (*model.Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &model.Spec{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}
	if spec.Name == "" {
		return nil, &CompileError{Field: "name", Message: "model name is required", Pos: v.Pos()}
	}

	pk := model.DefaultPrimaryKey
	if pkVal := v.LookupPath(cue.ParsePath("primaryKey")); pkVal.Exists() {
		s, err := pkVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if s == "" {
			return nil, &CompileError{Field: "primaryKey", Message: "primaryKey cannot be empty", Pos: pkVal.Pos()}
		}
		pk = s
	}
	spec.PrimaryKey = pk

	props, err := parseProperties(v)
	if err != nil {
		return nil, err
	}
	spec.Properties = props

	if len(props) > 0 {
		if _, ok := props[pk]; !ok {
			return nil, &CompileError{
				Field:   "primaryKey",
				Message: fmt.Sprintf("primary key %q is not a declared property", pk),
				Pos:     v.Pos(),
			}
		}
	}

	if uVal := v.LookupPath(cue.ParsePath("unique")); uVal.Exists() {
		fields, err := stringList(uVal)
		if err != nil {
			return nil, err
		}
		if err := checkDeclared(props, fields, uVal.Pos()); err != nil {
			return nil, err
		}
		spec.Unique = fields
	}

	if utVal := v.LookupPath(cue.ParsePath("uniqueTogether")); utVal.Exists() {
		iter, err := utVal.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			fields, err := stringList(iter.Value())
			if err != nil {
				return nil, err
			}
			if len(fields) < 2 {
				return nil, &CompileError{
					Field:   "unique",
					Message: "uniqueTogether groups need at least two fields",
					Pos:     iter.Value().Pos(),
				}
			}
			if err := checkDeclared(props, fields, iter.Value().Pos()); err != nil {
				return nil, err
			}
			spec.UniqueTogether = append(spec.UniqueTogether, fields)
		}
	}

	return spec, nil
}

// parseProperties extracts the property declarations. Properties are optional.
func parseProperties(v cue.Value) (map[string]model.PropertySpec, error) {
	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return nil, nil
	}

	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	props := make(map[string]model.PropertySpec)
	for iter.Next() {
		t, err := extractValueType(iter.Value())
		if err != nil {
			return nil, err
		}
		props[iter.Label()] = model.PropertySpec{Type: t}
	}
	return props, nil
}

// extractValueType converts a CUE property declaration to a query value type.
func extractValueType(v cue.Value) (query.ValueType, error) {
	if v.IsConcrete() && v.Kind() == cue.StringKind {
		name, err := v.String()
		if err != nil {
			return "", formatCUEError(err)
		}
		t := query.ValueType(name)
		if name == "" || !t.IsValid() {
			return "", &CompileError{
				Field:   "type",
				Message: fmt.Sprintf("unknown value type %q, want one of %v", name, query.ValueTypes),
				Pos:     v.Pos(),
			}
		}
		return t, nil
	}

	switch v.IncompleteKind() {
	case cue.StringKind:
		return query.TypeString, nil
	case cue.IntKind:
		return query.TypeInteger, nil
	case cue.FloatKind, cue.NumberKind:
		return query.TypeNumber, nil
	case cue.BoolKind:
		return query.TypeBoolean, nil
	case cue.ListKind:
		return query.TypeArray, nil
	case cue.StructKind:
		return query.TypeObject, nil
	default:
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// checkDeclared requires fields to be declared properties, when any are.
func checkDeclared(props map[string]model.PropertySpec, fields []string, pos token.Pos) error {
	if len(props) == 0 {
		return nil
	}
	for _, f := range fields {
		if _, ok := props[f]; !ok {
			return &CompileError{
				Field:   "unique",
				Message: fmt.Sprintf("unique field %q is not a declared property", f),
				Pos:     pos,
			}
		}
	}
	return nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

// sortedNames returns the keys of specs in order.
func sortedNames(specs map[string]*model.Spec) []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
