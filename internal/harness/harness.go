package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/memstore"
	"github.com/roach88/ormkit/internal/model"
	"github.com/roach88/ormkit/internal/schema"
	"github.com/roach88/ormkit/internal/testutil"
)

// Harness holds the per-scenario model.
type Harness struct {
	model  *model.Definition
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh store seeded from the scenario, with a
// sequence ID generator so created keys are reproducible.
//
// Execution flow:
// 1. Resolve the model spec (CUE directory or name and primary_key)
// 2. Seed a new in-memory store
// 3. Execute setup steps
// 4. Compile and run the query
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	spec, err := resolveSpec(scenario)
	if err != nil {
		return nil, err
	}
	if spec.PrimaryKey == "" {
		spec.PrimaryKey = model.DefaultPrimaryKey
	}

	st, err := memstore.New(scenario.Seed, memstore.WithPrimaryKey(spec.PrimaryKey), memstore.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	def, err := model.NewDefinition(*spec,
		model.WithProvider(st),
		model.WithIDGenerator(testutil.NewSequenceGenerator(spec.Name)),
		model.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to define model: %w", err)
	}

	h := &Harness{model: def, logger: logger}
	result := NewResult()

	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	h.executeQuery(ctx, scenario.Query, result)

	actx := &AssertionContext{Ctx: ctx, Model: def}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func resolveSpec(scenario *Scenario) (*model.Spec, error) {
	if scenario.Models == "" {
		return &model.Spec{Name: scenario.Model, PrimaryKey: scenario.PrimaryKey}, nil
	}

	loaded, errs := schema.LoadDir(scenario.Models, schema.LoadModeFailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load models: %w", errs[0])
	}
	spec, ok := loaded.Models[scenario.Model]
	if !ok {
		return nil, fmt.Errorf("model %q not defined in %s (have %v)", scenario.Model, scenario.Models, loaded.Names())
	}
	if scenario.PrimaryKey != "" && scenario.PrimaryKey != spec.PrimaryKey {
		return nil, fmt.Errorf("primary_key %q conflicts with model primary key %q", scenario.PrimaryKey, spec.PrimaryKey)
	}
	return spec, nil
}

// executeSetup runs saves and deletes in order. A step with expect_error
// records a mismatch as a failure; an unexpected error aborts the run.
func (h *Harness) executeSetup(ctx context.Context, steps []SetupStep, result *Result) error {
	for i, step := range steps {
		var err error
		if step.Save != nil {
			_, err = h.model.Create(datastore.Record(step.Save)).Save(ctx)
		} else {
			err = h.model.Create(datastore.Record{h.model.PrimaryKeyName(): step.Delete}).Delete(ctx)
		}

		got := ErrorCode(err)
		switch {
		case step.ExpectError != "" && got != step.ExpectError:
			result.AddError(fmt.Sprintf("setup[%d]: expected error %s, got %q", i, step.ExpectError, got))
		case step.ExpectError == "" && err != nil:
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		h.logger.Debug("setup step", "index", i, "code", got)
	}
	return nil
}

func (h *Harness) executeQuery(ctx context.Context, steps []QueryStep, result *Result) {
	q, err := BuildQuery(steps).Compile()
	if err != nil {
		result.Err = err
		return
	}
	result.Query = q
	result.Compiled = true

	res, err := h.model.Search(ctx, q)
	if err != nil {
		result.Err = err
		return
	}
	result.Records = res.Instances
}
