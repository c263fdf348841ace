package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PDNemesis/Simple.OData.Client/internal/harness"
	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name     string
		parts    []string
		expected any
	}{
		{"none", nil, nil},
		{"bare", []string{"1"}, "1"},
		{"quoted", []string{"'ALFKI'"}, "ALFKI"},
		{"pairs", []string{"OrderID=1", "ProductID=2"}, map[string]any{"OrderID": "1", "ProductID": "2"}},
		{"single pair", []string{"ProductID=7"}, map[string]any{"ProductID": "7"}},
		{"value with equals", []string{"Code='a=b'"}, map[string]any{"Code": "a=b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseKey(tt.parts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := parseKey([]string{"OrderID=1", "2"})
	assert.ErrorContains(t, err, "compound keys need name=value")
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		input    string
		expected harness.Condition
	}{
		{"UnitPrice gt 20", harness.Condition{Path: "UnitPrice", Op: "gt", Value: "20"}},
		{"ProductName eq 'Chef Anton''s'", harness.Condition{Path: "ProductName", Op: "eq", Value: "Chef Anton's"}},
		{"UnitPrice null", harness.Condition{Path: "UnitPrice", Op: "null"}},
		{"UnitPrice eq null", harness.Condition{Path: "UnitPrice", Op: "eq"}},
		{"  Category/CategoryName eq Beverages  ", harness.Condition{Path: "Category/CategoryName", Op: "eq", Value: "Beverages"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseCondition(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := parseCondition("UnitPrice")
	assert.Error(t, err)
}

func TestLiteral(t *testing.T) {
	assert.Nil(t, literal("null"))
	assert.Equal(t, "null", literal("'null'"))
	assert.Equal(t, "O'Neil", literal("'O''Neil'"))
	assert.Equal(t, "42", literal(" 42 "))
	assert.Equal(t, "'", literal("'"))
}

func TestDescriptorOptionsCommand(t *testing.T) {
	o := DescriptorOptions{
		Keys:     []string{"1"},
		Navigate: []string{"Category"},
		FuncArgs: []string{"limit=5"},
		Function: "NS.Top",
		Skip:     0,
		Top:      -1,
	}
	c, err := o.command("Products")
	require.NoError(t, err)
	assert.Equal(t, "Products", c.Resource)
	assert.Equal(t, "1", c.Key)
	assert.Equal(t, map[string]any{"limit": "5"}, c.FunctionArgs)
	require.NotNil(t, c.Skip)
	assert.Equal(t, 0, *c.Skip)
	assert.Nil(t, c.Top)

	o = DescriptorOptions{FuncArgs: []string{"=5"}, Skip: -1, Top: -1}
	_, err = o.command("Products")
	assert.ErrorContains(t, err, "invalid --arg")
}

func TestDescriptorOptionsProtocol(t *testing.T) {
	root := &RootOptions{}

	p, err := (&DescriptorOptions{}).protocol(root)
	require.NoError(t, err)
	assert.Equal(t, ir.V4, p)

	p, err = (&DescriptorOptions{Protocol: "v3"}).protocol(root)
	require.NoError(t, err)
	assert.Equal(t, ir.V3, p)

	static, err := (&DescriptorOptions{}).schema(root)
	require.NoError(t, err)
	assert.Nil(t, static)
}
