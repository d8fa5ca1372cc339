package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	modelsDir    = "testdata/models"
	seedFile     = "testdata/seed.yaml"
	scenariosDir = "../harness/testdata/scenarios"
	goldenDir    = "../harness/testdata/golden"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "ormkit", cmd.Use)

	for _, name := range []string{"search", "compile", "validate", "test"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "text", cmd.PersistentFlags().Lookup("format").DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "validate", modelsDir, "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestSearch_Text(t *testing.T) {
	stdout, stderr, err := execute(t, "search", "User", "--models", modelsDir, "--seed", seedFile, "--where", "name=UNIT-TEST")
	require.NoError(t, err)
	assert.Equal(t, `{"age":30,"created":"2024-01-01","email":"a@example.com","id":"123","name":"unit-test"}`+"\n", stdout)
	assert.Contains(t, stderr, "1 result(s)")
}

type searchResponse struct {
	Status string       `json:"status"`
	Data   SearchResult `json:"data"`
	Error  *CLIError    `json:"error"`
}

func searchJSON(t *testing.T, args ...string) searchResponse {
	t.Helper()
	stdout, _, err := execute(t, append([]string{"search", "--format", "json"}, args...)...)
	require.NoError(t, err)

	var resp searchResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp
}

func resultIDs(resp searchResponse) []any {
	ids := make([]any, len(resp.Data.Results))
	for i, rec := range resp.Data.Results {
		ids[i] = rec["id"]
	}
	return ids
}

func TestSearch_NumericSortTake(t *testing.T) {
	resp := searchJSON(t, "Score", "--seed", seedFile, "--where", "value>2", "--sort", "value", "--desc", "--take", "1")
	assert.Equal(t, "Score", resp.Data.Model)
	assert.Equal(t, 1, resp.Data.Count)
	assert.Equal(t, []any{"4"}, resultIDs(resp))
}

func TestSearch_Any(t *testing.T) {
	resp := searchJSON(t, "Score", "--models", modelsDir, "--seed", seedFile, "--where", "value=1", "--where", "value=4", "--any")
	assert.Equal(t, []any{"1", "4"}, resultIDs(resp))
}

func TestSearch_AndByDefault(t *testing.T) {
	resp := searchJSON(t, "Score", "--seed", seedFile, "--where", "value>=2", "--where", "value<4")
	assert.Equal(t, []any{"2", "3"}, resultIDs(resp))
}

func TestSearch_DateBounds(t *testing.T) {
	resp := searchJSON(t, "User", "--models", modelsDir, "--seed", seedFile, "--where", "created>2024-01-15")
	assert.Equal(t, []any{"234"}, resultIDs(resp))

	resp = searchJSON(t, "User", "--models", modelsDir, "--seed", seedFile, "--where", "created<2024-02-01")
	assert.Equal(t, []any{"123"}, resultIDs(resp))

	resp = searchJSON(t, "User", "--models", modelsDir, "--seed", seedFile, "--where", "created<=2024-02-01", "--sort", "created", "--desc")
	assert.Equal(t, []any{"234", "123"}, resultIDs(resp))
}

func TestSearch_NoSeed(t *testing.T) {
	resp := searchJSON(t, "User")
	assert.Equal(t, 0, resp.Data.Count)
	assert.Empty(t, resp.Data.Results)
}

func TestSearch_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		exitCode int
		output   string
	}{
		{
			name:     "invalid take",
			args:     []string{"search", "Score", "--seed", seedFile, "--take", "many"},
			exitCode: ExitFailure,
			output:   "Error [INVALID_ARGUMENT]",
		},
		{
			name:     "ordered comparison on a string property",
			args:     []string{"search", "User", "--models", modelsDir, "--where", "name<b"},
			exitCode: ExitFailure,
			output:   "Error [INVALID_ARGUMENT]",
		},
		{
			name:     "malformed where",
			args:     []string{"search", "User", "--where", "novalue"},
			exitCode: ExitCommandError,
			output:   "invalid --where",
		},
		{
			name:     "missing seed file",
			args:     []string{"search", "User", "--seed", "testdata/nope.yaml"},
			exitCode: ExitCommandError,
			output:   "Error [ERROR]",
		},
		{
			name:     "unknown model",
			args:     []string{"search", "Order", "--models", modelsDir},
			exitCode: ExitCommandError,
			output:   `model "Order" not defined`,
		},
		{
			name:     "unloadable models",
			args:     []string{"search", "User", "--models", "testdata/badmodels"},
			exitCode: ExitCommandError,
			output:   "Error [E101]",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stdout, _, err := execute(t, tc.args...)
			require.Error(t, err)
			assert.Equal(t, tc.exitCode, GetExitCode(err))
			assert.Contains(t, stdout, tc.output)
		})
	}
}

func TestSearch_ErrorJSON(t *testing.T) {
	stdout, _, err := execute(t, "search", "Score", "--format", "json", "--take", "1.5")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_ARGUMENT", resp.Error.Code)
}

func TestCompile_Text(t *testing.T) {
	stdout, _, err := execute(t, "compile", "User", "--models", modelsDir, "--where", "age>=30", "--sort", "name")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"equalitySymbol": ">="`)
	assert.Contains(t, stdout, `"valueType": "integer"`)
	assert.Contains(t, stdout, `"value": 30`)
	assert.Contains(t, stdout, `"order": true`)
	assert.Contains(t, stdout, `"take": null`)
}

func TestCompile_JSON(t *testing.T) {
	stdout, _, err := execute(t, "compile", "Score", "--format", "json", "--where", "value<3", "--take", "2")
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, float64(2), resp.Data["take"])
	assert.Contains(t, resp.Data["properties"], "value")
	assert.Len(t, resp.Data["chain"], 2)
}

func TestValidate_Valid(t *testing.T) {
	stdout, _, err := execute(t, "validate", modelsDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ All models valid (Score, User)")
}

func TestValidate_ValidJSON(t *testing.T) {
	stdout, _, err := execute(t, "validate", modelsDir, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"Score", "User"}, resp.Data.Models)
}

func TestValidate_Invalid(t *testing.T) {
	stdout, _, err := execute(t, "validate", "testdata/badmodels")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Validation failed")
	assert.Contains(t, stdout, "E101")
	assert.Contains(t, stdout, "E104")
}

func TestValidate_InvalidJSON(t *testing.T) {
	stdout, _, err := execute(t, "validate", "testdata/badmodels", "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Len(t, resp.Data.Errors, 2)
}

func TestValidate_MissingDirectory(t *testing.T) {
	stdout, _, err := execute(t, "validate", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
	assert.Contains(t, stdout, "not found")
}

func TestValidate_EmptyDirectory(t *testing.T) {
	_, _, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
}

func TestTest_HarnessScenarios(t *testing.T) {
	stdout, _, err := execute(t, "test", scenariosDir, "--golden", goldenDir)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "✓ case_insensitive_name")
	assert.Contains(t, stdout, " 0 failed")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTest_FilterJSON(t *testing.T) {
	stdout, _, err := execute(t, "test", scenariosDir, "--golden", goldenDir, "--filter", "case_*", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "case_insensitive_name", resp.Data.Scenarios[0].Name)
}

func TestTest_UpdateGolden(t *testing.T) {
	dir := t.TempDir()
	_, _, err := execute(t, "test", scenariosDir, "--golden", dir, "--filter", "invalid_take", "--update")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "invalid_take.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(goldenDir, "invalid_take.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestTest_GoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "invalid_take.golden"), []byte("{}"), 0644))

	stdout, _, err := execute(t, "test", scenariosDir, "--golden", dir, "--filter", "invalid_take")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "does not match golden file")
}

func TestTest_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fail.yaml"), []byte(`
name: fail
description: "wrong count"
model: User
assertions:
  - type: result_count
    count: 3
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0644))

	stdout, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ fail")
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "0 passed, 2 failed, 2 total")
}

func TestTest_Empty(t *testing.T) {
	stdout, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scenarios found.")
}

func TestTest_MissingDirectory(t *testing.T) {
	_, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestParseWhere(t *testing.T) {
	testCases := []struct {
		in     string
		field  string
		symbol string
		value  string
	}{
		{in: "name=a", field: "name", symbol: "=", value: "a"},
		{in: "age>=30", field: "age", symbol: ">=", value: "30"},
		{in: "age <= 30", field: "age", symbol: "<=", value: "30"},
		{in: "age>3", field: "age", symbol: ">", value: "3"},
		{in: "age<3", field: "age", symbol: "<", value: "3"},
		{in: "expr=a>b", field: "expr", symbol: "=", value: "a>b"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			w, err := parseWhere(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.field, w.field)
			assert.Equal(t, tc.symbol, string(w.symbol))
			assert.Equal(t, tc.value, w.value)
		})
	}

	_, err := parseWhere("=a")
	assert.Error(t, err)
}
