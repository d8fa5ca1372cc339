package harness

import (
	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/query"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// Query is the compiled query. Zero when compilation failed.
	Query query.OrmQuery `json:"query"`

	// Compiled reports whether the builder produced a query.
	Compiled bool `json:"compiled"`

	// Records are the search results in order.
	Records []datastore.Record `json:"records"`

	// Err is the compile or search failure, if any.
	Err error `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Records: []datastore.Record{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
