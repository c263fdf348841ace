package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PDNemesis/Simple.OData.Client/internal/command"
	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
	"github.com/PDNemesis/Simple.OData.Client/internal/transport"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Descriptor DescriptorOptions
	Operation  string
}

// BuildResult is the output of the build command.
type BuildResult struct {
	Text string `json:"text"`
	URI  string `json:"uri"`
	Key  string `json:"key"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <resource>",
		Short: "Build command text for a resource",
		Long: `Build the command text for a resource from key, filter and option flags.

The schema comes from --schema or schema_dir in the config file. Without
one, $metadata is fetched from service_url.

Examples:
  odata build Products --schema ./schema --key 1
  odata build Order_Details --schema ./schema --key OrderID=1 --key ProductID=2
  odata build Products --schema ./schema --where "UnitPrice gt 20" --orderby "ProductName desc" --top 5
  odata build Ships --schema ./schema --where "ShipName eq 'Titanic'"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	opts.Descriptor.register(cmd)
	cmd.Flags().StringVar(&opts.Operation, "operation", "get", "operation: get, insert, update or delete")

	return cmd
}

func runBuild(opts *BuildOptions, resource string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	static, err := opts.Descriptor.schema(opts.RootOptions)
	if err != nil {
		return outputSchemaError(formatter, err)
	}
	var resolver metadata.Resolver = static
	if static == nil {
		url := opts.Config().ServiceURL
		if url == "" {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidInput,
				"no schema: pass --schema or set schema_dir or service_url in the config", nil)
		}
		client, err := transport.New(url, transport.WithTimeout(opts.Config().Timeout))
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
		}
		formatter.VerboseLog("Resolving metadata from %s/$metadata", url)
		resolver = client.Resolver()
	}

	text, err := buildText(cmd, opts.RootOptions, &opts.Descriptor, opts.Operation, resolver, resource)
	if err != nil {
		return outputBuildError(formatter, resource, err)
	}

	formatter.VerboseLog("Command key: %s", text.Key())
	if formatter.Format == "json" {
		return formatter.Success(BuildResult{
			Text: text.String(),
			URI:  text.URI(),
			Key:  text.Key(),
		})
	}
	fmt.Fprintln(formatter.Writer, text.String())
	return nil
}

// buildText turns the descriptor flags into command text.
func buildText(cmd *cobra.Command, root *RootOptions, d *DescriptorOptions, operation string, resolver metadata.Resolver, resource string) (command.Text, error) {
	c, err := d.command(resource)
	if err != nil {
		return command.Text{}, err
	}
	c.Operation = operation

	desc, err := c.Descriptor()
	if err != nil {
		return command.Text{}, err
	}
	proto, err := d.protocol(root)
	if err != nil {
		return command.Text{}, err
	}
	return command.NewBuilder(resolver, command.WithProtocol(proto)).Build(cmd.Context(), desc)
}

// outputBuildError reports a build failure under its command error code
// when it has one.
func outputBuildError(formatter *OutputFormatter, resource string, err error) error {
	code := odataerr.CodeOf(err)
	if code == "" {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, err.Error(), nil)
	}

	details := map[string]any{"resource": resource}
	var oe *odataerr.Error
	if errors.As(err, &oe) {
		if oe.Resource != "" {
			details["resource"] = oe.Resource
		}
		if oe.Property != "" {
			details["property"] = oe.Property
		}
		if oe.Construct != "" {
			details["construct"] = oe.Construct
		}
		if len(oe.Missing) > 0 {
			details["missing"] = oe.Missing
		}
		if len(oe.Extra) > 0 {
			details["extra"] = oe.Extra
		}
	}
	return formatter.Fail(ExitFailure, string(code), err.Error(), details)
}
