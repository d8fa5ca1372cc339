package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ormkit/internal/canonical"
)

// Snapshot captures a scenario outcome for golden comparison.
type Snapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts the snapshot to plain values for canonical.Marshal.
// A failed compile has no query, so "query" is null.
func (s *Snapshot) toCanonicalMap() map[string]any {
	records := make([]any, len(s.Result.Records))
	for i, rec := range s.Result.Records {
		records[i] = map[string]any(rec)
	}

	out := map[string]any{
		"scenario": s.ScenarioName,
		"query":    nil,
		"results":  records,
		"error":    nil,
	}
	if s.Result.Compiled {
		out["query"] = canonical.QueryObject(s.Result.Query)
	}
	if s.Result.Err != nil {
		out["error"] = ErrorCode(s.Result.Err)
	}
	return out
}

// SnapshotJSON renders the golden snapshot of a result as canonical JSON.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: scenarioName, Result: result}
	return canonical.Marshal(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
