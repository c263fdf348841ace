package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PDNemesis/Simple.OData.Client/internal/command"
	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

// Result is the outcome of running a scenario.
type Result struct {
	Scenario string
	Commands []CommandResult
}

// CommandResult is the outcome of one command.
type CommandResult struct {
	Name string
	// Text is the built command text, empty when building failed.
	Text string
	// Code is the error code when building failed.
	Code odataerr.Code
	Err  error

	Pass    bool
	Message string
}

// Pass reports whether every command matched its expectation.
func (r *Result) Pass() bool {
	for _, c := range r.Commands {
		if !c.Pass {
			return false
		}
	}
	return true
}

// Failures returns the commands that did not match.
func (r *Result) Failures() []CommandResult {
	var out []CommandResult
	for _, c := range r.Commands {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

// Option configures Run.
type Option func(*runner)

type runner struct {
	logger *slog.Logger
}

// WithLogger sets the logger for per-command debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(r *runner) {
		r.logger = l
	}
}

// Run compiles the scenario's schema and builds every command.
//
// A schema or protocol problem fails the whole run. A command that does
// not match its expectation is reported in the result, not as an error.
func Run(ctx context.Context, s *Scenario, opts ...Option) (*Result, error) {
	r := runner{logger: slog.Default()}
	for _, opt := range opts {
		opt(&r)
	}

	resolver, err := loadSchema(s)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	proto, err := ir.ParseProtocol(s.Protocol)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	builder := command.NewBuilder(resolver, command.WithProtocol(proto))

	result := &Result{Scenario: s.Name}
	for _, c := range s.Commands {
		cr := runCommand(ctx, builder, c)
		r.logger.Debug("command",
			"scenario", s.Name,
			"command", c.Name,
			"text", cr.Text,
			"code", string(cr.Code),
			"pass", cr.Pass)
		result.Commands = append(result.Commands, cr)
	}
	return result, nil
}

func loadSchema(s *Scenario) (*metadata.Static, error) {
	if s.SchemaDir != "" {
		return metadata.LoadCUE(s.SchemaDir)
	}
	return metadata.CompileCUEString(s.Name+".cue", s.Schema)
}

func runCommand(ctx context.Context, b *command.Builder, c Command) CommandResult {
	cr := CommandResult{Name: c.Name}

	d, err := c.Descriptor()
	if err == nil {
		var text command.Text
		text, err = b.Build(ctx, d)
		cr.Text = text.String()
	}
	if err != nil {
		cr.Err = err
		cr.Code = odataerr.CodeOf(err)
	}

	switch {
	case c.ExpectError != "":
		cr.Pass = string(cr.Code) == c.ExpectError
		if !cr.Pass {
			cr.Message = fmt.Sprintf("expected error %s, got %s", c.ExpectError, describe(cr))
		}
	case err != nil:
		cr.Message = fmt.Sprintf("unexpected error: %v", err)
	case c.Expect != "":
		cr.Pass = cr.Text == c.Expect
		if !cr.Pass {
			cr.Message = fmt.Sprintf("expected %q, got %q", c.Expect, cr.Text)
		}
	default:
		// No expectation: building without an error is a pass.
		cr.Pass = true
	}
	return cr
}

func describe(cr CommandResult) string {
	if cr.Err == nil {
		return fmt.Sprintf("text %q", cr.Text)
	}
	if cr.Code == "" {
		return cr.Err.Error()
	}
	return string(cr.Code)
}
