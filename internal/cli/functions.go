package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

// FunctionSummary describes one supported filter function.
type FunctionSummary struct {
	Name    string `json:"name"`
	MinArgs int    `json:"min_args"`
	MaxArgs int    `json:"max_args"`
	Result  string `json:"result"`
	V3      string `json:"v3,omitempty"`
	V4Only  bool   `json:"v4_only,omitempty"`
}

// NewFunctionsCommand creates the functions command.
func NewFunctionsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "functions",
		Short: "List the functions filters may call",
		Long: `List the built-in functions accepted in --where conditions, --function
filters and scenario files, with their arity, result type and 3.0 spelling.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunctions(rootOpts, cmd)
		},
	}
}

func runFunctions(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	names := predicate.Functions()
	summaries := make([]FunctionSummary, 0, len(names))
	for _, name := range names {
		fn, _ := predicate.LookupFunction(name)
		summaries = append(summaries, FunctionSummary{
			Name:    fn.Name,
			MinArgs: fn.MinArgs,
			MaxArgs: fn.MaxArgs,
			Result:  fn.Result,
			V3:      fn.V3,
			V4Only:  fn.V4Only,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(summaries)
	}
	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "%s(%s) %s", s.Name, arity(s.MinArgs, s.MaxArgs), s.Result)
		var notes []string
		if s.V3 != "" && s.V3 != s.Name {
			notes = append(notes, "3.0: "+s.V3)
		}
		if s.V4Only {
			notes = append(notes, "4.0 only")
		}
		if len(notes) > 0 {
			fmt.Fprintf(formatter.Writer, " [%s]", strings.Join(notes, ", "))
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}

func arity(lo, hi int) string {
	if lo == hi {
		return fmt.Sprint(lo)
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}
