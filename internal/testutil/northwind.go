package testutil

import (
	"github.com/PDNemesis/Simple.OData.Client/internal/metadata"
)

// Northwind returns a resource set modelled on the Northwind sample
// service, plus the Transport/Ships hierarchy and a few shapes the sample
// lacks (a complex type, a primitive collection, an enumeration property).
//
// A fresh set is built on every call, so tests may not observe each other's
// changes.
func Northwind() *metadata.Static {
	return metadata.MustStatic(NorthwindResources()...)
}

// NorthwindResources returns the declarations behind Northwind.
func NorthwindResources() []*metadata.Resource {
	return []*metadata.Resource{
		{
			Name: "Products",
			Keys: []string{"ProductID"},
			Properties: []metadata.Property{
				{Name: "ProductID", Type: "Edm.Int32"},
				{Name: "ProductName", Type: "Edm.String"},
				{Name: "SupplierID", Type: "Edm.Int32", Nullable: true},
				{Name: "CategoryID", Type: "Edm.Int32", Nullable: true},
				{Name: "QuantityPerUnit", Type: "Edm.String", Nullable: true},
				{Name: "UnitPrice", Type: "Edm.Decimal", Nullable: true},
				{Name: "UnitsInStock", Type: "Edm.Int16", Nullable: true},
				{Name: "Discontinued", Type: "Edm.Boolean"},
				{Name: "ReleaseDate", Type: "Edm.DateTimeOffset", Nullable: true},
				{Name: "Rating", Type: "Edm.Double", Nullable: true},
				{Name: "Color", Type: "NorthwindModel.Color", Nullable: true},
			},
			Navigations: []metadata.Navigation{
				{Name: "Category", Target: "Categories"},
				{Name: "Order_Details", Target: "Order_Details", Collection: true},
			},
		},
		{
			Name: "Categories",
			Keys: []string{"CategoryID"},
			Properties: []metadata.Property{
				{Name: "CategoryID", Type: "Edm.Int32"},
				{Name: "CategoryName", Type: "Edm.String"},
				{Name: "Description", Type: "Edm.String", Nullable: true},
			},
			Navigations: []metadata.Navigation{
				{Name: "Products", Target: "Products", Collection: true},
			},
		},
		{
			Name: "Orders",
			Keys: []string{"OrderID"},
			Properties: []metadata.Property{
				{Name: "OrderID", Type: "Edm.Int32"},
				{Name: "CustomerID", Type: "Edm.String", Nullable: true},
				{Name: "OrderDate", Type: "Edm.DateTimeOffset", Nullable: true},
				{Name: "ShipName", Type: "Edm.String", Nullable: true},
				{Name: "Freight", Type: "Edm.Decimal", Nullable: true},
			},
			Navigations: []metadata.Navigation{
				{Name: "Customer", Target: "Customers"},
				{Name: "Items", Target: "Order_Details", Collection: true},
			},
		},
		{
			Name: "Order_Details",
			Keys: []string{"OrderID", "ProductID"},
			Properties: []metadata.Property{
				{Name: "OrderID", Type: "Edm.Int32"},
				{Name: "ProductID", Type: "Edm.Int32"},
				{Name: "UnitPrice", Type: "Edm.Decimal"},
				{Name: "Quantity", Type: "Edm.Int16"},
				{Name: "Discount", Type: "Edm.Single"},
			},
			Navigations: []metadata.Navigation{
				{Name: "Order", Target: "Orders"},
				{Name: "Product", Target: "Products"},
			},
		},
		{
			Name: "Customers",
			Keys: []string{"CustomerID"},
			Properties: []metadata.Property{
				{Name: "CustomerID", Type: "Edm.String"},
				{Name: "CompanyName", Type: "Edm.String"},
				{Name: "Address", Type: "NorthwindModel.Address", Nullable: true},
				{Name: "Tags", Type: "Collection(Edm.String)"},
				{Name: "ExternalID", Type: "Edm.Guid", Nullable: true},
			},
			Navigations: []metadata.Navigation{
				{Name: "Orders", Target: "Orders", Collection: true},
			},
		},
		{
			Name:    "NorthwindModel.Address",
			Complex: true,
			Properties: []metadata.Property{
				{Name: "Street", Type: "Edm.String"},
				{Name: "City", Type: "Edm.String"},
				{Name: "PostalCode", Type: "Edm.String"},
			},
		},
		{
			Name: "Transport",
			Keys: []string{"TransportID"},
			Properties: []metadata.Property{
				{Name: "TransportID", Type: "Edm.Int32"},
				{Name: "TransportType", Type: "Edm.String"},
			},
		},
		{
			Name:       "Ships",
			Base:       "Transport",
			Properties: []metadata.Property{{Name: "ShipName", Type: "Edm.String"}},
		},
		{
			Name:       "Trucks",
			Base:       "Transport",
			Cast:       "NorthwindModel.Truck",
			Properties: []metadata.Property{{Name: "TruckNumber", Type: "Edm.String"}},
		},
	}
}
