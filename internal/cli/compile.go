package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ormkit/internal/canonical"
	"github.com/roach88/ormkit/internal/harness"
	"github.com/roach88/ormkit/internal/query"
)

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <model>",
		Short: "Print the compiled query for the given flags",
		Long: `Compile the query flags into the query a datastore receives and print it
as canonical JSON. Takes the same flags as search; the boolean chain is
validated as well, so a query that compiles here will not fail on grouping.

Example:
  ormkit compile User --models ./models --where "age>=30" --sort name`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func runCompile(opts *QueryOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	_, q, err := prepareQuery(opts, name, cmd)
	if err != nil {
		return err
	}

	groups, err := query.GroupChain(q.Chain)
	if err != nil {
		return formatter.Fail(ExitFailure, harness.ErrorCode(err), err)
	}
	formatter.VerboseLog("Grouping: %v", groups)

	obj := canonical.QueryObject(q)
	if opts.Format == "json" {
		return formatter.Success(obj)
	}
	out, err := canonical.MarshalIndent(obj, "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(formatter.Writer, string(out))
	return nil
}
