package model

import (
	"context"

	"github.com/roach88/ormkit/internal/datastore"
)

// Instance is one value of a Definition.
type Instance struct {
	model *Definition
	data  datastore.Record
}

var _ datastore.Instance = (*Instance)(nil)

// Model returns the instance's model.
func (i *Instance) Model() datastore.Model { return i.model }

// Definition returns the instance's model with its full API.
func (i *Instance) Definition() *Definition { return i.model }

// ToObj returns a copy of the instance's plain record.
func (i *Instance) ToObj(context.Context) (datastore.Record, error) {
	return i.data.Clone(), nil
}

// PrimaryKey returns the primary key value, or nil when unset.
func (i *Instance) PrimaryKey() any {
	return i.data[i.model.PrimaryKeyName()]
}

// Get returns a property value.
func (i *Instance) Get(field string) (any, bool) {
	v, ok := i.data[field]
	return v, ok
}

// Save stores the instance through its model.
func (i *Instance) Save(ctx context.Context, opts ...SaveOption) (*Instance, error) {
	return i.model.Save(ctx, i, opts...)
}

// Delete removes the instance through its model.
func (i *Instance) Delete(ctx context.Context) error {
	return i.model.Delete(ctx, i)
}
