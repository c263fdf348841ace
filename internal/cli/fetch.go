package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
	"github.com/PDNemesis/Simple.OData.Client/internal/recording"
	"github.com/PDNemesis/Simple.OData.Client/internal/transport"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Descriptor DescriptorOptions
	URL        string
	Record     string // SQLite database to record the exchange to
	Replay     string // SQLite database to answer from instead of the network
}

// FetchResult is the output of the fetch command.
type FetchResult struct {
	Command   string `json:"command"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id"`
	Body      any    `json:"body,omitempty"`
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch <resource>",
		Short: "Send a GET for a resource and print the response",
		Long: `Build command text like the build command, send it to the service and
print the response.

With --record the exchange is written to a SQLite recording database
(default: recording_db from the config file). With --replay the response
comes from a recording and nothing is sent.

Exit codes:
  0 - 2xx response
  1 - command could not be built, or 4xx/5xx response
  2 - command error (no service URL, unreadable recording, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(opts, args[0], cmd)
		},
	}

	opts.Descriptor.register(cmd)
	cmd.Flags().StringVar(&opts.URL, "url", "", "service root URL (default: service_url from config)")
	cmd.Flags().StringVar(&opts.Record, "record", "", "record the exchange to this SQLite database")
	cmd.Flags().StringVar(&opts.Replay, "replay", "", "answer from this SQLite recording instead of the network")
	cmd.MarkFlagsMutuallyExclusive("record", "replay")

	return cmd
}

func runFetch(opts *FetchOptions, resource string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	cfg := opts.Config()

	url := opts.URL
	if url == "" {
		url = cfg.ServiceURL
	}
	if url == "" {
		return formatter.Fail(ExitCommandError, ErrCodeConfig,
			"no service URL: pass --url or set service_url in the config", nil)
	}

	clientOpts, err := cfg.TransportOptions()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	if opts.Descriptor.Protocol != "" {
		proto, err := opts.Descriptor.protocol(opts.RootOptions)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, err.Error(), nil)
		}
		clientOpts = append(clientOpts, transport.WithProtocol(proto))
	}

	rt, closeStore, err := opts.roundTripper()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRecording, err.Error(), nil)
	}
	defer closeStore()
	clientOpts = append(clientOpts,
		transport.WithHTTPClient(&http.Client{Transport: rt, Timeout: cfg.Timeout}),
		transport.WithLogger(slog.Default()),
	)

	client, err := transport.New(url, clientOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	static, err := opts.Descriptor.schema(opts.RootOptions)
	if err != nil {
		return outputSchemaError(formatter, err)
	}
	var resolver metadata.Resolver = client.Resolver()
	if static != nil {
		resolver = static
	}

	text, err := buildText(cmd, opts.RootOptions, &opts.Descriptor, "get", resolver, resource)
	if err != nil {
		return outputBuildError(formatter, resource, err)
	}
	formatter.VerboseLog("GET %s/%s", client.BaseURL(), text.URI())

	resp, err := client.Do(cmd.Context(), transport.Request{Command: text})
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		return formatter.Fail(ExitFailure, ErrCodeStatus,
			fmt.Sprintf("service returned status %d", statusErr.StatusCode),
			map[string]any{"request_id": statusErr.RequestID, "body": statusErr.Body})
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeTransport, err.Error(), nil)
	}

	if formatter.Format == "json" {
		result := FetchResult{
			Command:   text.String(),
			Status:    resp.StatusCode,
			RequestID: resp.RequestID,
		}
		if decoded, err := resp.Decode(); err == nil && decoded != nil {
			result.Body = decoded
		} else if len(resp.Body) > 0 {
			result.Body = string(resp.Body)
		}
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "GET %s\n", text.String())
	fmt.Fprintf(formatter.Writer, "Status: %d (request %s, %s)\n\n", resp.StatusCode, resp.RequestID, resp.Duration)
	fmt.Fprintln(formatter.Writer, string(resp.Body))
	return nil
}

// roundTripper picks the HTTP transport: a replayer, a recorder or the
// default transport. The returned func closes any recording database.
func (o *FetchOptions) roundTripper() (http.RoundTripper, func(), error) {
	if o.Replay != "" {
		store, err := recording.Open(o.Replay)
		if err != nil {
			return nil, nil, fmt.Errorf("open recording %s: %w", o.Replay, err)
		}
		return recording.NewReplayer(store), func() { store.Close() }, nil
	}

	path := o.Record
	if path == "" {
		path = o.Config().RecordingDB
	}
	if path == "" {
		return http.DefaultTransport, func() {}, nil
	}

	store, err := recording.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open recording %s: %w", path, err)
	}
	slog.Debug("recording exchanges", "path", path)
	return recording.NewRecorder(store, http.DefaultTransport), func() { store.Close() }, nil
}
