package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PDNemesis/Simple.OData.Client/internal/command"
	"github.com/PDNemesis/Simple.OData.Client/internal/predicate"
)

func TestLoadScenario_ResolvesSchemaDir(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/catalog.yaml")
	require.NoError(t, err)
	assert.Equal(t, "catalog", s.Name)
	assert.Equal(t, filepath.Join("testdata", "schema"), s.SchemaDir)
	assert.NotEmpty(t, s.Commands)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}

func TestLoadScenario_InlineSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inline.yaml")
	content := "name: inline\nschema: |\n  resource: A: {keys: [\"ID\"], properties: ID: \"Edm.Int32\"}\ncommands:\n  - {name: one, resource: A, key: 7, expect: A(7)}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Empty(t, s.SchemaDir)
	assert.Equal(t, 7, s.Commands[0].Key)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"unknown field", "name: x\nschema: s\ncomands: []\n", "field comands not found"},
		{"missing name", "schema: s\ncommands: [{name: a, resource: A}]\n", "name is required"},
		{"no schema", "name: x\ncommands: [{name: a, resource: A}]\n", "exactly one of schema and schema_dir"},
		{"both schemas", "name: x\nschema: s\nschema_dir: d\ncommands: [{name: a, resource: A}]\n", "exactly one of schema and schema_dir"},
		{"no commands", "name: x\nschema: s\n", "commands list is required"},
		{"unnamed command", "name: x\nschema: s\ncommands: [{resource: A}]\n", "commands[0]: name is required"},
		{"duplicate command", "name: x\nschema: s\ncommands: [{name: a, resource: A}, {name: a, resource: A}]\n", `duplicate name "a"`},
		{"no resource", "name: x\nschema: s\ncommands: [{name: a}]\n", "resource is required"},
		{"both expectations", "name: x\nschema: s\ncommands: [{name: a, resource: A, expect: A, expect_error: KEY_MISMATCH}]\n", "mutually exclusive"},
		{"unknown code", "name: x\nschema: s\ncommands: [{name: a, resource: A, expect_error: OOPS}]\n", `unknown error code "OOPS"`},
		{"incomplete condition", "name: x\nschema: s\ncommands: [{name: a, resource: A, where: [{path: P}]}]\n", "where[0]: path and op are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCommandDescriptor(t *testing.T) {
	skip := 0
	c := Command{
		Resource:     "Products",
		As:           "Specials",
		Key:          map[string]any{"ProductID": 1},
		Navigate:     []string{"Category"},
		Function:     "Top",
		FunctionArgs: map[string]any{"n": 5, "category": "Beverages"},
		Select:       []string{"CategoryName"},
		Expand:       []string{"Products"},
		OrderBy:      []string{"CategoryName desc", "CategoryID asc", "Description"},
		Skip:         &skip,
		Count:        true,
		Where:        []Condition{{Path: "CategoryName", Op: "EQ", Value: "Beverages"}},
	}

	d, err := c.Descriptor()
	require.NoError(t, err)

	assert.Equal(t, "Products", d.Resource)
	assert.Equal(t, "Specials", d.Derived)
	assert.Equal(t, 1, d.Key.Len())
	assert.Equal(t, []string{"Category"}, d.Navigate)
	assert.Equal(t, "Top", d.Function)
	require.Len(t, d.FunctionArgs, 2)
	assert.Equal(t, "category", d.FunctionArgs[0].Name)
	assert.Equal(t, "n", d.FunctionArgs[1].Name)
	assert.Equal(t, []command.Order{
		{Property: "CategoryName", Descending: true},
		{Property: "CategoryID"},
		{Property: "Description"},
	}, d.OrderBy)
	require.NotNil(t, d.Skip)
	assert.Equal(t, 0, *d.Skip)
	assert.Nil(t, d.Top)
	assert.True(t, d.Count)
	assert.Equal(t, command.Get, d.Operation)

	cmp, ok := d.Filter.(predicate.Comparison)
	require.True(t, ok, "got %T", d.Filter)
	assert.Equal(t, predicate.Eq, cmp.Op)
}

func TestCommandDescriptor_Errors(t *testing.T) {
	_, err := Command{Resource: "A", Operation: "upsert"}.Descriptor()
	assert.Error(t, err)

	_, err = Command{Resource: "A", Where: []Condition{{Path: "P", Op: "like", Value: 1}}}.Descriptor()
	assert.Error(t, err)
}
