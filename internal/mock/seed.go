package mock

import (
	"github.com/sadopc/apiprobe/internal/api/audit"
	"github.com/sadopc/apiprobe/internal/api/products"
)

// Seeded creator ids.
const (
	CreatorAlice = "9b2d6a4e-1c3f-4e8a-b7d5-2f6c8e0a1b3d"
	CreatorBob   = "4e7a1c9d-6b2f-4d3e-8a5c-7f0e2b4d6a8c"
)

// UserID is the id returned by the user profile endpoint.
const UserID = "c1a5e9d3-7b4f-4a2e-9c6d-3e8f1a5b7d9c"

// SeedRecords returns the default audit history.
func SeedRecords() []audit.HistoryRecord {
	return []audit.HistoryRecord{
		{AuditID: "0d6f4a2c-8e1b-4c7d-9a3f-5b2e8d1c4a7f", CreatedAt: "2024-01-05T09:15:00Z", CreatedBy: CreatorAlice,
			PDescription: "Order created", TDescription: "Orders", Details: "Order 1001 created", ImpKey: "ORD-1001"},
		{AuditID: "1e7a5b3d-9f2c-4d8e-a4b6-6c3f9e2d5b8a", CreatedAt: "2024-01-12T14:30:00Z", CreatedBy: CreatorBob,
			PDescription: "Customer updated", TDescription: "Customers", Details: "Email changed", ImpKey: "CUS-2001"},
		{AuditID: "2f8b6c4e-a03d-4e9f-b5c7-7d4a0f3e6c9b", CreatedAt: "2024-01-20T08:00:00Z", CreatedBy: CreatorAlice,
			PDescription: "Order shipped", TDescription: "Orders", Details: "Order 1001 shipped", ImpKey: "ORD-1001"},
		{AuditID: "3a9c7d5f-b14e-4fa0-86d8-8e5b1a4f7d0c", CreatedAt: "2024-02-02T11:45:00Z", CreatedBy: CreatorBob,
			PDescription: "Invoice issued", TDescription: "Invoices", Details: "Invoice 3001 issued", ImpKey: "INV-3001"},
		{AuditID: "4b0d8e6a-c25f-4ab1-97e9-9f6c2b5a8e1d", CreatedAt: "2024-02-14T16:20:00Z", CreatedBy: CreatorAlice,
			PDescription: "Order cancelled", TDescription: "Orders", Details: "Order 1002 cancelled", ImpKey: "ORD-1002"},
		{AuditID: "5c1e9f7b-d36a-4bc2-a8fa-a07d3c6b9f2e", CreatedAt: "2024-03-01T07:05:00Z", CreatedBy: CreatorBob,
			PDescription: "Customer created", TDescription: "Customers", Details: "Customer 2002 created", ImpKey: "CUS-2002"},
		{AuditID: "6d2fa08c-e47b-4cd3-b90b-b18e4d7ca03f", CreatedAt: "2024-03-18T19:40:00Z", CreatedBy: CreatorAlice,
			PDescription: "Invoice paid", TDescription: "Invoices", Details: "Invoice 3001 paid", ImpKey: "INV-3001"},
	}
}

// SeedProducts returns the default catalog.
func SeedProducts() []products.Product {
	return []products.Product{
		{ID: 1, Title: "iPhone 9", Description: "An apple mobile which is nothing like apple", Price: 549,
			DiscountPercentage: 12.96, Rating: 4.69, Stock: 94, Brand: "Apple", Category: "smartphones",
			Thumbnail: "https://cdn.dummyjson.com/product-images/1/thumbnail.jpg",
			Images: []string{"https://cdn.dummyjson.com/product-images/1/1.jpg"}},
		{ID: 2, Title: "Galaxy S21", Description: "Samsung flagship smartphone", Price: 799,
			DiscountPercentage: 10.5, Rating: 4.5, Stock: 40, Brand: "Samsung", Category: "smartphones"},
		{ID: 3, Title: "MacBook Pro", Description: "Apple laptop with M-series chip", Price: 1749,
			DiscountPercentage: 11.02, Rating: 4.57, Stock: 83, Brand: "Apple", Category: "laptops"},
		{ID: 4, Title: "Wireless Headphones", Description: "Noise cancelling over-ear headphones", Price: 199,
			DiscountPercentage: 5, Rating: 4.2, Stock: 120, Brand: "Sony", Category: "audio"},
		{ID: 5, Title: "Desk Lamp", Description: "LED lamp with adjustable arm", Price: 39,
			DiscountPercentage: 0, Rating: 4.0, Stock: 300, Brand: "Ikea", Category: "home-decoration"},
	}
}
