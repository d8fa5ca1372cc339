// Package datastore defines the storage contract that models persist through.
//
// A Provider stores plain records (the serialized property bag of a model
// instance) keyed by model name and primary key value, and answers compiled
// queries from package query. Providers depend only on the narrow Model and
// Instance interfaces declared here, never on a concrete modeling framework.
//
// Optional capabilities are discovered with type assertions:
//   - BulkInserter: native multi-record insert
//   - Counter: native record count
//   - CreateAndSaver: insert that lets the backend assign fields
//
// The package-level BulkInsert, Count and CreateAndSave helpers use the native
// capability when a provider has one and fall back to the core operations
// otherwise.
//
// Noop is a provider that fails every call. It is the default for models
// constructed without a provider, so an unconfigured datastore fails loudly.
package datastore
