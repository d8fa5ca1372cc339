package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/query"
)

// Scenario defines a query scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Models is an optional directory of CUE model definitions.
	Models string `yaml:"models,omitempty"`

	// Model is the model searched by Query.
	Model string `yaml:"model"`

	// PrimaryKey names the key field when Models is not given.
	PrimaryKey string `yaml:"primary_key,omitempty"`

	// Seed is the initial store content.
	Seed datastore.Seed `yaml:"seed,omitempty"`

	// Setup runs saves and deletes through the model before the query.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Query lists the builder calls in order.
	Query []QueryStep `yaml:"query,omitempty"`

	// Assertions validate the query outcome and final state.
	Assertions []Assertion `yaml:"assertions"`
}

// SetupStep saves a record or deletes one by primary key.
type SetupStep struct {
	Save   map[string]any `yaml:"save,omitempty"`
	Delete any            `yaml:"delete,omitempty"`

	// ExpectError is the error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// QueryStep is one builder call. Exactly one field is set.
type QueryStep struct {
	Property    *PropertyStep `yaml:"property,omitempty"`
	DatesBefore *DateStep     `yaml:"dates_before,omitempty"`
	DatesAfter  *DateStep     `yaml:"dates_after,omitempty"`
	Sort        *SortStep     `yaml:"sort,omitempty"`
	Take        any           `yaml:"take,omitempty"`
	Page        any           `yaml:"page,omitempty"`
	And         bool          `yaml:"and,omitempty"`
	Or          bool          `yaml:"or,omitempty"`
}

// PropertyStep mirrors Builder.Property.
type PropertyStep struct {
	Name          string `yaml:"name"`
	Value         any    `yaml:"value"`
	Type          string `yaml:"type,omitempty"`
	Symbol        string `yaml:"symbol,omitempty"`
	CaseSensitive bool   `yaml:"case_sensitive,omitempty"`
	StartsWith    bool   `yaml:"starts_with,omitempty"`
	EndsWith      bool   `yaml:"ends_with,omitempty"`
}

// DateStep mirrors Builder.DatesBefore and Builder.DatesAfter.
type DateStep struct {
	Key       string `yaml:"key"`
	Date      any    `yaml:"date"`
	Type      string `yaml:"type,omitempty"`
	Exclusive bool   `yaml:"exclusive,omitempty"`
}

// SortStep mirrors Builder.Sort. Ascending is passed through unchecked, so
// a non-boolean value exercises argument validation.
type SortStep struct {
	Key       string `yaml:"key"`
	Ascending any    `yaml:"ascending,omitempty"`
}

// Assertion validates the query outcome or the final store state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// IDs are the expected primary keys in order (result_ids).
	IDs []any `yaml:"ids,omitempty"`

	// Count is the expected number of results (result_count).
	Count int `yaml:"count,omitempty"`

	// Record holds fields a result must contain (result_contains), or the
	// stored record must contain (final_state). Subset match.
	Record map[string]any `yaml:"record,omitempty"`

	// Code is the expected error code (error_code).
	Code string `yaml:"code,omitempty"`

	// Key is the primary key to look up (final_state).
	Key any `yaml:"key,omitempty"`

	// Absent expects no record under Key (final_state).
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertResultIDs      = "result_ids"
	AssertResultCount    = "result_count"
	AssertResultContains = "result_contains"
	AssertErrorCode      = "error_code"
	AssertFinalState     = "final_state"
)

var assertionTypes = []string{
	AssertResultIDs, AssertResultCount, AssertResultContains, AssertErrorCode, AssertFinalState,
}

// LoadScenario reads and parses a scenario YAML file. A relative Models path
// is resolved against the file's directory.
//
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Models != "" && !filepath.IsAbs(scenario.Models) {
		scenario.Models = filepath.Join(filepath.Dir(path), scenario.Models)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file in dir, ordered by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Models != "" {
		if _, err := os.Stat(s.Models); os.IsNotExist(err) {
			return fmt.Errorf("models directory not found: %s", s.Models)
		}
	}

	for i, step := range s.Setup {
		if (step.Save == nil) == (step.Delete == nil) {
			return fmt.Errorf("setup[%d]: exactly one of save or delete is required", i)
		}
	}

	for i, step := range s.Query {
		if n := step.kinds(); n != 1 {
			return fmt.Errorf("query[%d]: exactly one statement is required, got %d", i, n)
		}
		if step.Property != nil && step.Property.Name == "" {
			return fmt.Errorf("query[%d].property: name is required", i)
		}
	}

	for i, a := range s.Assertions {
		if !slices.Contains(assertionTypes, a.Type) {
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
		if a.Type == AssertErrorCode && a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required", i)
		}
		if a.Type == AssertFinalState && a.Key == nil {
			return fmt.Errorf("assertions[%d]: key is required", i)
		}
	}
	return nil
}

func (q QueryStep) kinds() int {
	n := 0
	for _, set := range []bool{
		q.Property != nil, q.DatesBefore != nil, q.DatesAfter != nil, q.Sort != nil,
		q.Take != nil, q.Page != nil, q.And, q.Or,
	} {
		if set {
			n++
		}
	}
	return n
}

// BuildQuery replays steps onto a new builder.
func BuildQuery(steps []QueryStep) query.Builder {
	b := query.New()
	for _, step := range steps {
		switch {
		case step.Property != nil:
			p := step.Property
			opts := []query.PropertyOption{
				query.OfType(query.ValueType(p.Type)),
				query.Symbol(query.EqualitySymbol(p.Symbol)),
			}
			if p.CaseSensitive {
				opts = append(opts, query.CaseSensitive())
			}
			if p.StartsWith {
				opts = append(opts, query.StartsWith())
			}
			if p.EndsWith {
				opts = append(opts, query.EndsWith())
			}
			b = b.Property(p.Name, p.Value, opts...)
		case step.DatesBefore != nil:
			b = b.DatesBefore(step.DatesBefore.Key, step.DatesBefore.Date, dateOptions(step.DatesBefore)...)
		case step.DatesAfter != nil:
			b = b.DatesAfter(step.DatesAfter.Key, step.DatesAfter.Date, dateOptions(step.DatesAfter)...)
		case step.Sort != nil:
			b = b.Sort(step.Sort.Key, step.Sort.Ascending)
		case step.Take != nil:
			b = b.Take(step.Take)
		case step.Page != nil:
			b = b.Pagination(step.Page)
		case step.And:
			b = b.And()
		case step.Or:
			b = b.Or()
		}
	}
	return b
}

func dateOptions(d *DateStep) []query.DateOption {
	var opts []query.DateOption
	if d.Type != "" {
		opts = append(opts, query.DateType(query.ValueType(d.Type)))
	}
	if d.Exclusive {
		opts = append(opts, query.Exclusive())
	}
	return opts
}
