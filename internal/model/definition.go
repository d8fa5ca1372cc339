// Package model is a small modeling layer over a datastore.Provider.
//
// A Definition describes one model (name, primary key, typed properties,
// uniqueness constraints) and owns the save path: validators run first and
// their failures are aggregated into a *ValidationError before anything
// reaches the provider.
package model

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/query"
	"github.com/roach88/ormkit/internal/validate"
)

// DefaultPrimaryKey is the primary key name used when Spec.PrimaryKey is empty.
const DefaultPrimaryKey = "id"

// Model is the contract the query core consumes.
type Model interface {
	datastore.Model
	Create(data datastore.Record) *Instance
	Search(ctx context.Context, q query.OrmQuery) (datastore.SearchResult, error)
}

// PropertySpec declares one model property.
type PropertySpec struct {
	Type query.ValueType
}

// Spec declares a model.
type Spec struct {
	Name           string
	PrimaryKey     string
	Properties     map[string]PropertySpec
	Unique         []string
	UniqueTogether [][]string
}

type namedValidator struct {
	key string
	fn  validate.Func
}

// Definition is a configured model bound to a provider.
type Definition struct {
	spec       Spec
	provider   datastore.Provider
	ids        IDGenerator
	validators []namedValidator
	logger     *slog.Logger
}

var (
	_ Model           = (*Definition)(nil)
	_ validate.Target = (*Definition)(nil)
)

// Option configures a Definition.
type Option func(*Definition)

// WithProvider sets the datastore. The default is datastore.Noop, which
// fails every call.
func WithProvider(p datastore.Provider) Option {
	return func(d *Definition) {
		d.provider = p
	}
}

// WithIDGenerator sets the primary key generator used by Create.
// The default is UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(d *Definition) {
		d.ids = g
	}
}

// WithValidator adds a validator reported under key. Validators run in the
// order they were added, after those derived from the Spec.
func WithValidator(key string, fn validate.Func) Option {
	return func(d *Definition) {
		d.validators = append(d.validators, namedValidator{key: key, fn: fn})
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Definition) {
		d.logger = logger
	}
}

// NewDefinition builds a Definition from spec.
//
// Fails with ErrInvalidSpec when the name is empty or a property declares an
// unknown value type.
func NewDefinition(spec Spec, opts ...Option) (*Definition, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidSpec)
	}
	if spec.PrimaryKey == "" {
		spec.PrimaryKey = DefaultPrimaryKey
	}
	for name, p := range spec.Properties {
		if !p.Type.IsValid() {
			return nil, fmt.Errorf("%w: model %q property %q has unknown type %q", ErrInvalidSpec, spec.Name, name, p.Type)
		}
	}

	d := &Definition{spec: spec}
	for _, field := range spec.Unique {
		d.validators = append(d.validators, namedValidator{key: field, fn: validate.Unique(field)})
	}
	for _, fields := range spec.UniqueTogether {
		d.validators = append(d.validators, namedValidator{
			key: strings.Join(fields, ","),
			fn:  validate.UniqueTogether(fields...),
		})
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.provider == nil {
		d.provider = datastore.Noop{}
	}
	if d.ids == nil {
		d.ids = UUIDv7Generator{}
	}
	if d.logger == nil {
		d.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d, nil
}

// Name returns the model name.
func (d *Definition) Name() string { return d.spec.Name }

// PrimaryKeyName returns the primary key field name.
func (d *Definition) PrimaryKeyName() string { return d.spec.PrimaryKey }

// Spec returns the model declaration.
func (d *Definition) Spec() Spec { return d.spec }

// Provider returns the bound datastore.
func (d *Definition) Provider() datastore.Provider { return d.provider }

// Property returns the declaration of a property.
func (d *Definition) Property(name string) (PropertySpec, bool) {
	p, ok := d.spec.Properties[name]
	return p, ok
}

// Create returns an unsaved instance holding a copy of data. A primary key
// is generated when data has none.
func (d *Definition) Create(data datastore.Record) *Instance {
	rec := data.Clone()
	if rec == nil {
		rec = datastore.Record{}
	}
	if v, ok := rec[d.spec.PrimaryKey]; !ok || v == nil {
		rec[d.spec.PrimaryKey] = d.ids.Generate()
	}
	return &Instance{model: d, data: rec}
}

// Retrieve loads the instance stored under primaryKey, or nil when absent.
func (d *Definition) Retrieve(ctx context.Context, primaryKey any) (*Instance, error) {
	rec, err := d.provider.Retrieve(ctx, d, primaryKey)
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", d.spec.Name, err)
	}
	if rec == nil {
		return nil, nil
	}
	return &Instance{model: d, data: rec}, nil
}

// Search runs a compiled query against the provider.
func (d *Definition) Search(ctx context.Context, q query.OrmQuery) (datastore.SearchResult, error) {
	return d.provider.Search(ctx, d, q)
}

// Find compiles b and returns the matching records as instances.
func (d *Definition) Find(ctx context.Context, b query.Builder) ([]*Instance, error) {
	q, err := b.Compile()
	if err != nil {
		return nil, err
	}
	res, err := d.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]*Instance, len(res.Instances))
	for i, rec := range res.Instances {
		out[i] = &Instance{model: d, data: rec}
	}
	return out, nil
}

// SaveOption alters a single save.
type SaveOption func(*validate.Options)

// SkipOrmValidation saves without running validators.
func SkipOrmValidation() SaveOption {
	return func(o *validate.Options) {
		o.NoOrmValidation = true
	}
}

// Validate runs every validator against inst. It returns a *ValidationError
// when any of them reports a conflict.
func (d *Definition) Validate(ctx context.Context, inst *Instance, opts ...SaveOption) error {
	var vopts validate.Options
	for _, opt := range opts {
		opt(&vopts)
	}
	if vopts.NoOrmValidation || len(d.validators) == 0 {
		return nil
	}

	data, err := inst.ToObj(ctx)
	if err != nil {
		return err
	}
	failed := make(map[string]string)
	for _, v := range d.validators {
		msg, err := v.fn(ctx, d, data, vopts)
		if err != nil {
			return fmt.Errorf("validator %s on %s: %w", v.key, d.spec.Name, err)
		}
		if msg != "" {
			failed[v.key] = msg
		}
	}
	if len(failed) > 0 {
		d.logger.Debug("validation failed", "model", d.spec.Name, "key", inst.PrimaryKey(), "failures", len(failed))
		return &ValidationError{Model: d.spec.Name, Errors: failed}
	}
	return nil
}

// Save validates inst and stores it. The returned instance holds the record
// the provider stored.
func (d *Definition) Save(ctx context.Context, inst *Instance, opts ...SaveOption) (*Instance, error) {
	if err := d.Validate(ctx, inst, opts...); err != nil {
		return nil, err
	}
	rec, err := d.provider.Save(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", d.spec.Name, err)
	}
	d.logger.Debug("instance saved", "model", d.spec.Name, "key", inst.PrimaryKey())
	return &Instance{model: d, data: rec}, nil
}

// CreateAndSave validates inst and inserts it through the provider's
// CreateAndSave capability, falling back to Save.
func (d *Definition) CreateAndSave(ctx context.Context, inst *Instance, opts ...SaveOption) (*Instance, error) {
	if err := d.Validate(ctx, inst, opts...); err != nil {
		return nil, err
	}
	rec, err := datastore.CreateAndSave(ctx, d.provider, inst)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", d.spec.Name, err)
	}
	return &Instance{model: d, data: rec}, nil
}

// Delete removes inst from the provider.
func (d *Definition) Delete(ctx context.Context, inst *Instance) error {
	if err := d.provider.Delete(ctx, inst); err != nil {
		return fmt.Errorf("delete %s: %w", d.spec.Name, err)
	}
	d.logger.Debug("instance deleted", "model", d.spec.Name, "key", inst.PrimaryKey())
	return nil
}

// BulkInsert stores insts without running validators.
func (d *Definition) BulkInsert(ctx context.Context, insts []*Instance) error {
	items := make([]datastore.Instance, len(insts))
	for i, inst := range insts {
		items[i] = inst
	}
	return datastore.BulkInsert(ctx, d.provider, d, items)
}

// Count returns the number of stored records.
func (d *Definition) Count(ctx context.Context) (int, error) {
	return datastore.Count(ctx, d.provider, d)
}
