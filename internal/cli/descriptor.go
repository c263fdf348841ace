package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PDNemesis/Simple.OData.Client/internal/harness"
	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
)

// DescriptorOptions holds the flags that describe a command. The build
// and fetch commands share them.
type DescriptorOptions struct {
	SchemaDir string
	Protocol  string

	As       string
	Keys     []string
	Filter   string
	Where    []string
	Navigate []string
	Function string
	FuncArgs []string
	Select   []string
	Expand   []string
	OrderBy  []string
	Skip     int
	Top      int
	Count    bool
}

func (o *DescriptorOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.SchemaDir, "schema", "", "CUE schema directory (default: schema_dir from config)")
	f.StringVar(&o.Protocol, "protocol", "", "protocol version 3.0 or 4.0 (default: protocol from config)")
	f.StringVar(&o.As, "as", "", "derived resource to address through the base entity set")
	f.StringArrayVar(&o.Keys, "key", nil, "key value, or name=value for each part of a compound key")
	f.StringVar(&o.Filter, "filter", "", "raw filter text")
	f.StringArrayVar(&o.Where, "where", nil, `condition "path op value" (op: eq ne gt ge lt le contains startswith endswith null)`)
	f.StringSliceVar(&o.Navigate, "navigate", nil, "navigation properties to follow after the key")
	f.StringVar(&o.Function, "function", "", "bound function to call")
	f.StringArrayVar(&o.FuncArgs, "arg", nil, "function argument name=value")
	f.StringSliceVar(&o.Select, "select", nil, "properties to select")
	f.StringSliceVar(&o.Expand, "expand", nil, "navigation paths to expand")
	f.StringSliceVar(&o.OrderBy, "orderby", nil, `order by property, "Name desc" for descending`)
	f.IntVar(&o.Skip, "skip", -1, "number of entries to skip")
	f.IntVar(&o.Top, "top", -1, "maximum number of entries")
	f.BoolVar(&o.Count, "count", false, "request the total count")
}

// command converts the flags to a harness command for resource.
func (o *DescriptorOptions) command(resource string) (harness.Command, error) {
	c := harness.Command{
		Name:     resource,
		Resource: resource,
		As:       o.As,
		Filter:   o.Filter,
		Navigate: o.Navigate,
		Function: o.Function,
		Select:   o.Select,
		Expand:   o.Expand,
		OrderBy:  o.OrderBy,
		Count:    o.Count,
	}
	if o.Skip >= 0 {
		c.Skip = &o.Skip
	}
	if o.Top >= 0 {
		c.Top = &o.Top
	}

	key, err := parseKey(o.Keys)
	if err != nil {
		return harness.Command{}, err
	}
	c.Key = key

	if len(o.FuncArgs) > 0 {
		c.FunctionArgs = make(map[string]any, len(o.FuncArgs))
		for _, a := range o.FuncArgs {
			name, value, ok := strings.Cut(a, "=")
			if !ok || name == "" {
				return harness.Command{}, fmt.Errorf("invalid --arg %q: want name=value", a)
			}
			c.FunctionArgs[name] = literal(value)
		}
	}

	for _, w := range o.Where {
		cond, err := parseCondition(w)
		if err != nil {
			return harness.Command{}, err
		}
		c.Where = append(c.Where, cond)
	}
	return c, nil
}

// parseKey accepts one bare value, or name=value pairs.
func parseKey(parts []string) (any, error) {
	switch {
	case len(parts) == 0:
		return nil, nil
	case len(parts) == 1 && !strings.Contains(parts[0], "="):
		return literal(parts[0]), nil
	}

	m := make(map[string]any, len(parts))
	for _, p := range parts {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --key %q: compound keys need name=value for every part", p)
		}
		m[name] = literal(value)
	}
	return m, nil
}

// parseCondition splits "path op value". The value may contain spaces and
// may be wrapped in single quotes.
func parseCondition(s string) (harness.Condition, error) {
	fields := strings.SplitN(strings.TrimSpace(s), " ", 3)
	if len(fields) < 2 {
		return harness.Condition{}, fmt.Errorf("invalid --where %q: want \"path op value\"", s)
	}
	cond := harness.Condition{Path: fields[0], Op: fields[1]}
	if len(fields) == 3 {
		cond.Value = literal(fields[2])
	}
	return cond, nil
}

// literal converts a flag value. Values stay strings and are formatted
// against the declared type of the property they meet, so "1" works for
// an Edm.Int32 key. null becomes a null literal and quotes are stripped.
func literal(s string) any {
	s = strings.TrimSpace(s)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

// protocol resolves the protocol flag against the config.
func (o *DescriptorOptions) protocol(root *RootOptions) (ir.Protocol, error) {
	if o.Protocol != "" {
		return ir.ParseProtocol(o.Protocol)
	}
	return root.Config().ProtocolVersion()
}

// schema loads the CUE schema named by the flag or the config. It returns
// nil when neither names one.
func (o *DescriptorOptions) schema(root *RootOptions) (*metadata.Static, error) {
	dir := o.SchemaDir
	if dir == "" {
		dir = root.Config().SchemaDir
	}
	if dir == "" {
		return nil, nil
	}
	return metadata.LoadCUE(dir)
}
