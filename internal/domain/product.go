package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend speaks plain JSON numbers for money.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a robot in the catalog. Products are never mutated by
// the client.
type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	ImageURL       string            `json:"image_url"`
	Category       string            `json:"category"`
	Specifications map[string]string `json:"specifications,omitempty"`
	StockQuantity  int               `json:"stock_quantity"`
	Featured       bool              `json:"featured"`
	CreatedAt      time.Time         `json:"created_at,omitempty"`
}

// Category represents a product category
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProductFilter carries the catalog query parameters passed through to the
// backend.
type ProductFilter struct {
	Category string
	Search   string
	Featured *bool
}
