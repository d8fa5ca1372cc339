package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ormkit/internal/schema"
)

// ValidationIssue is one problem found in a models directory.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Models []string          `json:"models"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <models-dir>",
		Short: "Validate CUE model definitions",
		Long: `Validate the CUE model definitions in a directory.

Checks primary keys, property types and uniqueness constraints of every
model, reporting all problems rather than stopping at the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loaded, errs := schema.LoadDir(dir, schema.LoadModeCollectAll)
	if loaded == nil {
		issue := toIssue(errs[0])
		_ = formatter.Error(issue.Code, issue.Message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", issue.Code, issue.Message))
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := ValidationResult{Valid: len(errs) == 0, Models: loaded.Names()}
	for _, err := range errs {
		result.Errors = append(result.Errors, toIssue(err))
	}

	if result.Valid {
		if opts.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ All models valid (%s)\n", strings.Join(result.Models, ", "))
		return nil
	}

	if opts.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		for _, issue := range result.Errors {
			if issue.Line > 0 {
				fmt.Fprintf(formatter.Writer, "%s:%d\n", issue.File, issue.Line)
			}
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

func toIssue(err error) ValidationIssue {
	var loadErr *schema.LoadError
	if !errors.As(err, &loadErr) {
		return ValidationIssue{Code: schema.ErrCodeGeneric, Message: err.Error()}
	}
	issue := ValidationIssue{Code: loadErr.Code, Message: loadErr.Message}
	if loadErr.Pos.IsValid() {
		issue.File = loadErr.Pos.Filename()
		issue.Line = loadErr.Pos.Line()
	}
	return issue
}
