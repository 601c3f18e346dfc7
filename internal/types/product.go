// Package types provides type definitions for structured data used throughout the sales-intel system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Product represents one commercial offering in a seller's product catalog
type Product struct {
	ProductName string `json:"product_name"`
	Description string `json:"description"`
	SourceURL   string `json:"source_url,omitempty"`
}

// ProductCatalog is the structured payload produced by the product generation stage
type ProductCatalog struct {
	Products []Product `json:"products"`
}
