package keys

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
	"github.com/PDNemesis/Simple.OData.Client/internal/odataerr"
)

func products() *metadata.Resource {
	return &metadata.Resource{
		Name: "Products",
		Keys: []string{"ProductID"},
		Properties: []metadata.Property{
			{Name: "ProductID", Type: ir.EdmInt32},
			{Name: "ProductName", Type: ir.EdmString},
		},
	}
}

func orderDetails() *metadata.Resource {
	return &metadata.Resource{
		Name: "Order_Details",
		Keys: []string{"OrderID", "ProductID"},
		Properties: []metadata.Property{
			{Name: "OrderID", Type: ir.EdmInt32},
			{Name: "ProductID", Type: ir.EdmInt64},
			{Name: "Quantity", Type: ir.EdmInt16},
		},
	}
}

func customers() *metadata.Resource {
	return &metadata.Resource{
		Name: "Customers",
		Keys: []string{"CustomerID"},
		Properties: []metadata.Property{
			{Name: "CustomerID", Type: ir.EdmString},
			{Name: "ExternalID", Type: ir.EdmGuid},
		},
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		resource *metadata.Resource
		mapping  Mapping
		proto    ir.Protocol
		expected string
	}{
		{"single unnamed", products(), Single(1), ir.V4, "(1)"},
		{"single named", products(), Map(map[string]any{"ProductID": 1}), ir.V4, "(1)"},
		{"string key", customers(), Single("ALFKI"), ir.V4, "('ALFKI')"},
		{"string key with quote", customers(), Single("O'Neil"), ir.V4, "('O''Neil')"},
		{"compound in declared order", orderDetails(), Of(P("OrderID", 10248), P("ProductID", 11)), ir.V4, "(OrderID=10248,ProductID=11)"},
		{"compound reversed", orderDetails(), Of(P("ProductID", 2), P("OrderID", 1)), ir.V4, "(OrderID=1,ProductID=2)"},
		{"compound from map", orderDetails(), Map(map[string]any{"ProductID": 2, "OrderID": 1}), ir.V4, "(OrderID=1,ProductID=2)"},
		{"int64 suffix in v3", orderDetails(), Of(P("ProductID", 2), P("OrderID", 1)), ir.V3, "(OrderID=1,ProductID=2L)"},
		{"negative value", products(), Single(-1), ir.V4, "(-1)"},
		{"ir value", products(), Of(Pair{Name: "ProductID", Value: ir.Int(7)}), ir.V4, "(7)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.resource, tt.mapping, tt.proto)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// Key order follows the declaration, whatever order the caller used.
func TestResolveOrderIndependent(t *testing.T) {
	ab, err := Resolve(orderDetails(), Of(P("OrderID", 1), P("ProductID", 2)), ir.V4)
	require.NoError(t, err)
	ba, err := Resolve(orderDetails(), Of(P("ProductID", 2), P("OrderID", 1)), ir.V4)
	require.NoError(t, err)

	assert.Equal(t, ab, ba)
	assert.Equal(t, []Resolved{{Name: "OrderID", Literal: "1"}, {Name: "ProductID", Literal: "2"}}, ab)
}

func TestResolveKeyMismatch(t *testing.T) {
	compound := &metadata.Resource{
		Name: "Products",
		Keys: []string{"ProductID", "CategoryID"},
		Properties: []metadata.Property{
			{Name: "ProductID", Type: ir.EdmInt32},
			{Name: "CategoryID", Type: ir.EdmInt32},
		},
	}

	tests := []struct {
		name     string
		resource *metadata.Resource
		mapping  Mapping
		missing  []string
		extra    []string
	}{
		{"missing compound part", compound, Map(map[string]any{"ProductID": -1}), []string{"CategoryID"}, nil},
		{"undeclared name", products(), Of(P("ProductID", 1), P("Name", "x")), nil, []string{"Name"}},
		{"wrong name", products(), Of(P("ID", 1)), []string{"ProductID"}, []string{"ID"}},
		{"repeated name", products(), Of(P("ProductID", 1), P("ProductID", 2)), nil, []string{"ProductID"}},
		{"unnamed against compound", compound, Single(1), []string{"CategoryID"}, nil},
		{"empty mapping", products(), Mapping{}, []string{"ProductID"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved, err := Resolve(tt.resource, tt.mapping, ir.V4)
			require.Error(t, err)
			assert.Nil(t, resolved)
			assert.True(t, odataerr.IsKeyMismatch(err), "got %v", err)

			var oerr *odataerr.Error
			require.ErrorAs(t, err, &oerr)
			assert.Equal(t, tt.resource.Name, oerr.Resource)
			assert.Equal(t, tt.missing, oerr.Missing)
			assert.Equal(t, tt.extra, oerr.Extra)
		})
	}
}

func TestResolveValueErrors(t *testing.T) {
	_, err := Resolve(products(), Single(nil), ir.V4)
	require.Error(t, err)
	assert.Equal(t, odataerr.CodeInvalidCommand, odataerr.CodeOf(err))

	_, err = Resolve(products(), Single(struct{}{}), ir.V4)
	require.Error(t, err)
	assert.True(t, odataerr.IsUnsupportedExpression(err))

	_, err = Resolve(products(), Single(true), ir.V4)
	require.Error(t, err)
	assert.True(t, odataerr.IsUnsupportedExpression(err))

	var oerr *odataerr.Error
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "Products", oerr.Resource)

	_, err = Resolve(&metadata.Resource{Name: "Address", Complex: true}, Single(1), ir.V4)
	require.Error(t, err)
	assert.Equal(t, odataerr.CodeInvalidCommand, odataerr.CodeOf(err))
}

func TestResolveReusedMappingNamesEachResource(t *testing.T) {
	categories := &metadata.Resource{
		Name:       "Categories",
		Keys:       []string{"CategoryID"},
		Properties: []metadata.Property{{Name: "CategoryID", Type: ir.EdmInt32}},
	}
	m := Single(struct{}{})

	var oerr *odataerr.Error
	_, err := Resolve(products(), m, ir.V4)
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "Products", oerr.Resource)

	_, err = Resolve(categories, m, ir.V4)
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "Categories", oerr.Resource)
}

func TestGUIDKeyIsLowercase(t *testing.T) {
	r := &metadata.Resource{
		Name:       "Devices",
		Keys:       []string{"DeviceID"},
		Properties: []metadata.Property{{Name: "DeviceID", Type: ir.EdmGuid}},
	}
	got, err := Render(r, Single("0B6E5E9A-3C1D-4F2B-9A7E-1F2D3C4B5A69"), ir.V4)
	require.NoError(t, err)
	assert.Equal(t, "(0b6e5e9a-3c1d-4f2b-9a7e-1f2d3c4b5a69)", got)

	got, err = Render(r, Single(uuid.MustParse("0b6e5e9a-3c1d-4f2b-9a7e-1f2d3c4b5a69")), ir.V3)
	require.NoError(t, err)
	assert.Equal(t, "(guid'0b6e5e9a-3c1d-4f2b-9a7e-1f2d3c4b5a69')", got)
}

func TestMappingAccessors(t *testing.T) {
	m := Of(P("B", 2), P("A", 1))
	assert.False(t, m.IsZero())
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "B", m.Pairs()[0].Name)

	pairs := m.Pairs()
	pairs[0].Name = "changed"
	assert.Equal(t, "B", m.Pairs()[0].Name)

	assert.True(t, Mapping{}.IsZero())
}
