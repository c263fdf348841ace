package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Render formats a result as one line per command:
//
//	by key: Products(1)
//	key and filter: error AMBIGUOUS_ADDRESSING
func Render(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", r.Scenario)
	for _, c := range r.Commands {
		switch {
		case c.Err == nil:
			fmt.Fprintf(&b, "%s: %s\n", c.Name, c.Text)
		case c.Code != "":
			fmt.Fprintf(&b, "%s: error %s\n", c.Name, c.Code)
		default:
			fmt.Fprintf(&b, "%s: error %v\n", c.Name, c.Err)
		}
	}
	return b.String()
}

// RunWithGolden runs a scenario and compares its rendering against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(Render(result)))
}
