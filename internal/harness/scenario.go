package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PDNemesis/Simple.OData.Client/internal/command"
	"github.com/PDNemesis/Simple.OData.Client/internal/keys"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
	"github.com/PDNemesis/Simple.OData.Client/internal/predicate/dynamic"
)

// Scenario is a named list of commands over one schema.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Protocol selects the literal dialect (default 4.0).
	Protocol string `yaml:"protocol,omitempty"`

	// Schema is inline CUE source. SchemaDir names a directory of CUE
	// files instead. Exactly one must be set.
	Schema    string `yaml:"schema,omitempty"`
	SchemaDir string `yaml:"schema_dir,omitempty"`

	Commands []Command `yaml:"commands"`
}

// Command is one descriptor plus its expected outcome.
type Command struct {
	Name string `yaml:"name"`

	Resource string `yaml:"resource"`
	As       string `yaml:"as,omitempty"`

	// Key is a scalar for a single key or a map of key names to values.
	Key any `yaml:"key,omitempty"`

	// Filter is raw filter text. Where is a list of conditions joined
	// with and, translated against the schema.
	Filter string      `yaml:"filter,omitempty"`
	Where  []Condition `yaml:"where,omitempty"`

	Navigate     []string       `yaml:"navigate,omitempty"`
	Function     string         `yaml:"function,omitempty"`
	FunctionArgs map[string]any `yaml:"function_args,omitempty"`

	Select []string `yaml:"select,omitempty"`
	Expand []string `yaml:"expand,omitempty"`
	// OrderBy entries are property paths, optionally followed by " desc".
	OrderBy []string `yaml:"orderby,omitempty"`
	Skip    *int     `yaml:"skip,omitempty"`
	Top     *int     `yaml:"top,omitempty"`
	Count   bool     `yaml:"count,omitempty"`

	Operation string         `yaml:"operation,omitempty"`
	Body      map[string]any `yaml:"body,omitempty"`

	Expect      string `yaml:"expect,omitempty"`
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Condition is one comparison in a Where list. Op is a comparison
// operator (eq, ne, gt, ge, lt, le), a string function (contains,
// startswith, endswith) or "null".
type Condition struct {
	Path  string `yaml:"path"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. A relative
// schema_dir is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if scenario.SchemaDir != "" && !filepath.IsAbs(scenario.SchemaDir) {
		scenario.SchemaDir = filepath.Join(filepath.Dir(path), scenario.SchemaDir)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if (s.Schema == "") == (s.SchemaDir == "") {
		return fmt.Errorf("exactly one of schema and schema_dir is required")
	}
	if len(s.Commands) == 0 {
		return fmt.Errorf("commands list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Commands))
	for i, c := range s.Commands {
		if c.Name == "" {
			return fmt.Errorf("commands[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("commands[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true

		if c.Resource == "" {
			return fmt.Errorf("command %q: resource is required", c.Name)
		}
		if c.Expect != "" && c.ExpectError != "" {
			return fmt.Errorf("command %q: expect and expect_error are mutually exclusive", c.Name)
		}
		if c.ExpectError != "" && !knownCode(c.ExpectError) {
			return fmt.Errorf("command %q: unknown error code %q", c.Name, c.ExpectError)
		}
		for j, cond := range c.Where {
			if cond.Path == "" || cond.Op == "" {
				return fmt.Errorf("command %q: where[%d]: path and op are required", c.Name, j)
			}
		}
	}
	return nil
}

func knownCode(code string) bool {
	switch odataerr.Code(code) {
	case odataerr.CodeUnsupportedExpression,
		odataerr.CodeUnknownProperty,
		odataerr.CodeKeyMismatch,
		odataerr.CodeAmbiguousAddressing,
		odataerr.CodeResourceNotFound,
		odataerr.CodeInvalidCommand:
		return true
	}
	return false
}

// Descriptor converts the command to a command descriptor.
func (c Command) Descriptor() (command.Descriptor, error) {
	op, err := command.ParseOperation(c.Operation)
	if err != nil {
		return command.Descriptor{}, err
	}

	q := command.From(c.Resource)
	if c.As != "" {
		q.As(c.As)
	}
	if c.Key != nil {
		q.Key(keyMapping(c.Key))
	}
	if c.Filter != "" {
		q.FilterText(c.Filter)
	}
	if len(c.Where) > 0 {
		node, err := c.where().Build()
		if err != nil {
			return command.Descriptor{}, err
		}
		q.Filter(node)
	}
	if len(c.Navigate) > 0 {
		q.Navigate(c.Navigate...)
	}
	if c.Function != "" {
		args := make([]keys.Pair, 0, len(c.FunctionArgs))
		for _, name := range sortedArgs(c.FunctionArgs) {
			args = append(args, keys.P(name, c.FunctionArgs[name]))
		}
		q.Function(c.Function, args...)
	}
	if len(c.Select) > 0 {
		q.Select(c.Select...)
	}
	if len(c.Expand) > 0 {
		q.Expand(c.Expand...)
	}
	for _, o := range c.OrderBy {
		if prop, ok := strings.CutSuffix(o, " desc"); ok {
			q.OrderByDesc(strings.TrimSpace(prop))
		} else {
			q.OrderBy(strings.TrimSpace(strings.TrimSuffix(o, " asc")))
		}
	}
	if c.Skip != nil {
		q.Skip(*c.Skip)
	}
	if c.Top != nil {
		q.Top(*c.Top)
	}
	if c.Count {
		q.Count()
	}
	if op != command.Get || c.Body != nil {
		q.Operation(op, c.Body)
	}
	return q.Descriptor(), nil
}

func keyMapping(v any) keys.Mapping {
	if m, ok := v.(map[string]any); ok {
		return keys.Map(m)
	}
	return keys.Single(v)
}

func (c Command) where() dynamic.Expr {
	exprs := make([]dynamic.Expr, len(c.Where))
	for i, cond := range c.Where {
		exprs[i] = cond.expr()
	}
	if len(exprs) == 1 {
		return exprs[0]
	}
	return dynamic.And(exprs...)
}

func (cond Condition) expr() dynamic.Expr {
	p := dynamic.Root().Prop(cond.Path)
	switch strings.ToLower(cond.Op) {
	case "contains":
		return p.Contains(cond.Value)
	case "startswith":
		return p.StartsWith(cond.Value)
	case "endswith":
		return p.EndsWith(cond.Value)
	case "null":
		return p.IsNull()
	default:
		return p.Compare(strings.ToLower(cond.Op), cond.Value)
	}
}

// sortedArgs orders function arguments by name; YAML maps carry no order.
func sortedArgs(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
