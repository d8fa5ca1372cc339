package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ormkit/internal/datastore"
)

func decodeResponse(t *testing.T, buf *bytes.Buffer) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	return resp
}

func TestOutputFormatter_SearchEnvelope(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(SearchResult{
		Model:   "User",
		Count:   1,
		Results: []datastore.Record{{"id": "123", "name": "<unit-test>"}},
	}))

	assert.Contains(t, buf.String(), `"name": "<unit-test>"`, "html is not escaped")
	resp := decodeResponse(t, buf)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{
		"model":   "User",
		"count":   float64(1),
		"results": []any{map[string]any{"id": "123", "name": "<unit-test>"}},
	}, resp.Data)
}

func TestOutputFormatter_FailJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Fail(ExitFailure, "INVALID_QUERY", errors.New("chain cannot end with or()"))
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.EqualError(t, err, "INVALID_QUERY: chain cannot end with or()")

	resp := decodeResponse(t, buf)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CLIError{Code: "INVALID_QUERY", Message: "chain cannot end with or()"}, *resp.Error)
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(ExitFailure, "INVALID_QUERY", errors.New("chain cannot end with or()"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Error [INVALID_QUERY]: chain cannot end with or()\n", buf.String())
}

func TestOutputFormatter_ErrorDetails(t *testing.T) {
	details := map[string]string{"file": "models.cue", "line": "7"}

	testCases := []struct {
		name    string
		verbose bool
		want    string
	}{
		{name: "quiet", want: "Error [E104]: unknown property type \"money\"\n"},
		{name: "verbose", verbose: true, want: "Error [E104]: unknown property type \"money\"\nDetails: map[file:models.cue line:7]\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tc.verbose}

			require.NoError(t, formatter.Error("E104", `unknown property type "money"`, details))
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestOutputFormatter_ErrorDetailsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("E101", "primary key sku is not a declared property", []string{"User"}))

	resp := decodeResponse(t, buf)
	require.NotNil(t, resp.Error)
	assert.Equal(t, []any{"User"}, resp.Error.Details)
	assert.Nil(t, resp.Data)
}

func TestOutputFormatter_Records(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Records([]datastore.Record{
		{"name": "<b>", "id": "1"},
		{"id": "2", "value": float64(1234567)},
	}))
	assert.Equal(t, "{\"id\":\"1\",\"name\":\"<b>\"}\n{\"id\":\"2\",\"value\":1234567}\n", buf.String())
}

func TestOutputFormatter_RecordsEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Records(nil))
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_VerboseLogKeepsJSONClean(t *testing.T) {
	testCases := []struct {
		name    string
		verbose bool
		wantLog string
	}{
		{name: "verbose", verbose: true, wantLog: "Compiled 3 statement(s) for User\n"},
		{name: "quiet", verbose: false, wantLog: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: tc.verbose}

			formatter.VerboseLog("Compiled %d statement(s) for %s", 3, "User")
			require.NoError(t, formatter.Success(SearchResult{Model: "User", Results: []datastore.Record{}}))

			assert.Equal(t, tc.wantLog, errOut.String())
			assert.Equal(t, "ok", decodeResponse(t, out).Status)
		})
	}
}

func TestOutputFormatter_ErrWriterFallsBack(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	assert.Same(t, buf, formatter.GetErrWriter())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "bad flag"))))

	wrapped := WrapExitError(ExitFailure, "search failed", errors.New("boom"))
	assert.Equal(t, "search failed: boom", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "boom")
}
