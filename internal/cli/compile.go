package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
)

// ResourceSummary describes one compiled resource.
type ResourceSummary struct {
	Name        string   `json:"name"`
	Base        string   `json:"base,omitempty"`
	Path        string   `json:"path"`
	Keys        []string `json:"keys,omitempty"`
	Properties  int      `json:"properties"`
	Navigations int      `json:"navigations"`
	Complex     bool     `json:"complex,omitempty"`
}

// CompilationResult lists the resources of a schema.
type CompilationResult struct {
	Resources []ResourceSummary `json:"resources"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [schema-dir]",
		Short: "Compile a CUE schema and list its resources",
		Long: `Compile the CUE files of a schema directory into resource metadata
and list every resource with its inheritance path and keys.

The directory defaults to schema_dir from the config file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.Config().SchemaDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runCompile(rootOpts, dir, cmd)
		},
	}
	return cmd
}

func runCompile(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if dir == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "no schema directory given", nil)
	}

	static, err := metadata.LoadCUE(dir)
	if err != nil {
		return outputSchemaError(formatter, err)
	}

	result, err := summarize(cmd.Context(), static)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSchema, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "\u2713 Compiled %d resource(s)\n\n", len(result.Resources))
	for _, name := range static.Names() {
		r, _ := static.Resolve(cmd.Context(), name)
		fmt.Fprintf(formatter.Writer, "  %s\n", metadata.Describe(r))
	}
	return nil
}

func summarize(ctx context.Context, static *metadata.Static) (*CompilationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result := &CompilationResult{Resources: []ResourceSummary{}}
	for _, name := range static.Names() {
		h, err := metadata.ResolveHierarchy(ctx, static, name)
		if err != nil {
			return nil, err
		}
		r := h.Leaf()
		result.Resources = append(result.Resources, ResourceSummary{
			Name:        r.Name,
			Base:        r.Base,
			Path:        h.Path(),
			Keys:        h.Root().Keys,
			Properties:  len(r.Properties),
			Navigations: len(r.Navigations),
			Complex:     r.Complex,
		})
	}
	return result, nil
}

// outputSchemaError reports a schema load failure with its CUE position
// when there is one.
func outputSchemaError(formatter *OutputFormatter, err error) error {
	var schemaErr *metadata.SchemaError
	if errors.As(err, &schemaErr) {
		details := map[string]any{"resource": schemaErr.Resource, "field": schemaErr.Field}
		if schemaErr.Pos.IsValid() {
			details["position"] = schemaErr.Pos.String()
		}
		return formatter.Fail(ExitCommandError, ErrCodeSchema, schemaErr.Error(), details)
	}
	return formatter.Fail(ExitCommandError, ErrCodeSchema, err.Error(), nil)
}
