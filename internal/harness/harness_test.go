package harness

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

const inlineSchema = `
resource: Products: {
	keys: ["ProductID"]
	properties: {
		ProductID: "Edm.Int32"
		ProductName: "Edm.String"
		UnitPrice: "Edm.Decimal"
	}
}
`

func TestRunWithGolden_Catalog(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/catalog.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	for _, f := range result.Failures() {
		t.Errorf("%s: %s", f.Name, f.Message)
	}
	assert.True(t, result.Pass())
}

func TestRun_ProtocolV3(t *testing.T) {
	top := 3
	scenario := &Scenario{
		Name:     "v3",
		Protocol: "3.0",
		Schema:   inlineSchema,
		Commands: []Command{
			{
				Name:     "decimal literal",
				Resource: "Products",
				Where:    []Condition{{Path: "UnitPrice", Op: "ge", Value: 20}},
				Top:      &top,
				Count:    true,
				Expect:   "Products?$filter=UnitPrice ge 20M&$top=3&$inlinecount=allpages",
			},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	require.Len(t, result.Commands, 1)
	assert.True(t, result.Commands[0].Pass, result.Commands[0].Message)
}

func TestRun_ReportsMismatches(t *testing.T) {
	scenario := &Scenario{
		Name:   "mismatch",
		Schema: inlineSchema,
		Commands: []Command{
			{Name: "wrong text", Resource: "Products", Key: 1, Expect: "Products(2)"},
			{Name: "missing error", Resource: "Products", ExpectError: "KEY_MISMATCH"},
			{Name: "unexpected error", Resource: "Nope", Expect: "Nope"},
			{Name: "no expectation", Resource: "Products"},
		},
	}

	result, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass())

	tests := []struct {
		name    string
		pass    bool
		message string
	}{
		{"wrong text", false, `expected "Products(2)", got "Products(1)"`},
		{"missing error", false, `expected error KEY_MISMATCH, got text "Products"`},
		{"unexpected error", false, "unexpected error"},
		{"no expectation", true, ""},
	}
	require.Len(t, result.Commands, len(tests))
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := result.Commands[i]
			assert.Equal(t, tt.name, got.Name)
			assert.Equal(t, tt.pass, got.Pass)
			assert.Contains(t, got.Message, tt.message)
		})
	}
	assert.Len(t, result.Failures(), 3)
	assert.Equal(t, odataerr.CodeResourceNotFound, result.Commands[2].Code)
}

func TestRun_SchemaErrors(t *testing.T) {
	tests := []struct {
		name     string
		scenario *Scenario
	}{
		{"bad cue", &Scenario{Name: "bad", Schema: "resource: {", Commands: []Command{{Name: "a", Resource: "A"}}}},
		{"no resources", &Scenario{Name: "empty", Schema: "x: 1", Commands: []Command{{Name: "a", Resource: "A"}}}},
		{"bad protocol", &Scenario{Name: "proto", Protocol: "2.0", Schema: inlineSchema, Commands: []Command{{Name: "a", Resource: "Products"}}}},
		{"missing dir", &Scenario{Name: "dir", SchemaDir: "testdata/nope", Commands: []Command{{Name: "a", Resource: "Products"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), tt.scenario)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "scenario "+tt.scenario.Name)
		})
	}
}

func TestRun_LogsCommands(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	scenario := &Scenario{
		Name:     "logged",
		Schema:   inlineSchema,
		Commands: []Command{{Name: "all", Resource: "Products", Expect: "Products"}},
	}
	_, err := Run(context.Background(), scenario, WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "scenario=logged")
	assert.Contains(t, buf.String(), "text=Products")
	assert.Contains(t, buf.String(), "pass=true")
}

func TestRender(t *testing.T) {
	result := &Result{
		Scenario: "render",
		Commands: []CommandResult{
			{Name: "ok", Text: "Products(1)", Pass: true},
			{Name: "coded", Code: odataerr.CodeKeyMismatch, Err: odataerr.KeyMismatch("Products", []string{"B"}, nil)},
			{Name: "plain", Err: assert.AnError},
		},
	}
	expected := "# render\n" +
		"ok: Products(1)\n" +
		"coded: error KEY_MISMATCH\n" +
		"plain: error " + assert.AnError.Error() + "\n"
	assert.Equal(t, expected, Render(result))
}
