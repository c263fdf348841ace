package command

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/PDNemesis/Simple.OData.Client/internal/ir"
)

func TestTextURI(t *testing.T) {
	tests := []struct {
		name string
		text Text
		str  string
		uri  string
	}{
		{
			name: "filter with spaces",
			text: Text{Segments: []string{"Transport", "Ships"}, Params: []Param{{Name: "$filter", Value: "ShipName eq 'Titanic'"}}},
			str:  "Transport/Ships?$filter=ShipName eq 'Titanic'",
			uri:  "Transport/Ships?$filter=ShipName%20eq%20'Titanic'",
		},
		{
			name: "ampersand and plus in literal",
			text: Text{Segments: []string{"Products"}, Params: []Param{{Name: "$filter", Value: "ProductName eq 'A&B+C'"}, {Name: "$top", Value: "1"}}},
			str:  "Products?$filter=ProductName eq 'A&B+C'&$top=1",
			uri:  "Products?$filter=ProductName%20eq%20'A%26B%2BC'&$top=1",
		},
		{
			name: "key segment",
			text: Text{Segments: []string{"Order_Details(OrderID=1,ProductID=2)"}},
			str:  "Order_Details(OrderID=1,ProductID=2)",
			uri:  "Order_Details(OrderID=1,ProductID=2)",
		},
		{
			name: "slash and hash in key",
			text: Text{Segments: []string{"Customers('A/B#1')"}},
			str:  "Customers('A/B#1')",
			uri:  "Customers('A%2FB%231')",
		},
		{
			name: "non-ascii",
			text: Text{Segments: []string{"Products"}, Params: []Param{{Name: "$filter", Value: "ProductName eq 'caf\u00e9'"}}},
			str:  "Products?$filter=ProductName eq 'caf\u00e9'",
			uri:  "Products?$filter=ProductName%20eq%20'caf%C3%A9'",
		},
		{
			name: "navigation paths keep slashes",
			text: Text{Segments: []string{"Customers"}, Params: []Param{{Name: "$expand", Value: "Orders/Items"}}},
			str:  "Customers?$expand=Orders/Items",
			uri:  "Customers?$expand=Orders/Items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.text.String())
			assert.Equal(t, tt.uri, tt.text.URI())
		})
	}
}

func TestTextKey(t *testing.T) {
	a := Text{Segments: []string{"Products"}, Params: []Param{{Name: "$top", Value: "1"}}}
	b := Text{Segments: []string{"Products"}, Params: []Param{{Name: "$top", Value: "2"}}}

	assert.Equal(t, ir.CommandKey("Products?$top=1"), a.Key())
	assert.Len(t, a.Key(), 64)
	assert.NotEqual(t, a.Key(), b.Key())
	assert.True(t, Text{}.IsZero())
	assert.False(t, a.IsZero())
}
