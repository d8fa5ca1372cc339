package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ormkit/internal/datastore"
	"github.com/roach88/ormkit/internal/harness"
	"github.com/roach88/ormkit/internal/model"
	"github.com/roach88/ormkit/internal/query"
)

// SearchResult is the json payload of the search command.
type SearchResult struct {
	Model   string             `json:"model"`
	Count   int                `json:"count"`
	Results []datastore.Record `json:"results"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <model>",
		Short: "Search seeded records of a model",
		Long: `Search the records of a model loaded from a seed file.

Where clauses are AND-ed unless --any is given. String comparisons ignore
case and match the whole value.

Exit codes:
  0 - Query ran (possibly with no results)
  1 - Query rejected (invalid argument, invalid chain, bad operator)
  2 - Command error (unreadable models or seed file)

Examples:
  ormkit search User --models ./models --seed seed.yaml --where name=unit-test
  ormkit search Score --seed seed.yaml --where "value>2" --sort value --desc --take 1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runSearch(opts *QueryOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	def, q, err := prepareQuery(opts, name, cmd)
	if err != nil {
		return err
	}

	res, err := def.Search(cmd.Context(), q)
	if err != nil {
		return formatter.Fail(ExitFailure, harness.ErrorCode(err), err)
	}
	opts.logger().Debug("search finished", "model", name, "matched", len(res.Instances))

	if opts.Format == "json" {
		return formatter.Success(SearchResult{Model: name, Count: len(res.Instances), Results: res.Instances})
	}
	if err := formatter.Records(res.Instances); err != nil {
		return err
	}
	fmt.Fprintf(formatter.GetErrWriter(), "%d result(s)\n", len(res.Instances))
	return nil
}

// prepareQuery loads the model and compiles the flags into a query, reporting
// failures through the formatter.
func prepareQuery(opts *QueryOptions, name string, cmd *cobra.Command) (*model.Definition, query.OrmQuery, error) {
	formatter := opts.formatter(cmd)

	def, err := opts.loadModel(cmd.Context(), name)
	if err != nil {
		return nil, query.OrmQuery{}, formatter.Fail(ExitCommandError, harness.ErrorCode(err), err)
	}

	b, err := opts.buildQuery(def)
	if err != nil {
		return nil, query.OrmQuery{}, formatter.Fail(ExitCommandError, harness.CodeUnknown, err)
	}
	q, err := b.Compile()
	if err != nil {
		return nil, query.OrmQuery{}, formatter.Fail(ExitFailure, harness.ErrorCode(err), err)
	}
	formatter.VerboseLog("Compiled %d statement(s) for %s", len(q.Chain), name)
	return def, q, nil
}
