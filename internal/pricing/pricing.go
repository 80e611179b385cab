// Package pricing holds the storefront's order arithmetic. Every function is
// a pure function of its inputs.
package pricing

import (
	"robohub/internal/domain"

	"github.com/shopspring/decimal"
)

const places = 2

// Rates are the display percentages applied to a subtotal.
type Rates struct {
	Savings decimal.Decimal
	Tax     decimal.Decimal
}

// DefaultRates are 15% promotional savings and 8% tax.
var DefaultRates = Rates{
	Savings: decimal.RequireFromString("0.15"),
	Tax:     decimal.RequireFromString("0.08"),
}

// NewRates builds Rates from configured fractions.
func NewRates(savings, tax float64) Rates {
	return Rates{
		Savings: decimal.NewFromFloat(savings),
		Tax:     decimal.NewFromFloat(tax),
	}
}

// CartSummary is what the cart view shows.
type CartSummary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Savings  decimal.Decimal `json:"savings"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// CheckoutSummary is what the checkout view shows. It has no savings line.
type CheckoutSummary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Line is one priced cart row.
type Line struct {
	Product  domain.Product  `json:"product"`
	Quantity int             `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// LineTotal is price × quantity.
func LineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// Subtotal sums price × quantity over items whose product is known. Items
// without a product entry are left out rather than priced at zero.
func Subtotal(items []domain.CartItem, products map[string]domain.Product) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		sum = sum.Add(LineTotal(p.Price, item.Quantity))
	}
	return sum
}

// Lines joins items with their products, skipping unknown products.
func Lines(items []domain.CartItem, products map[string]domain.Product) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		p, ok := products[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, Line{Product: p, Quantity: item.Quantity, Total: LineTotal(p.Price, item.Quantity).Round(places)})
	}
	return lines
}

// ForCart computes the cart view totals: subtotal − savings + tax.
func (r Rates) ForCart(items []domain.CartItem, products map[string]domain.Product) CartSummary {
	subtotal := Subtotal(items, products)
	savings := subtotal.Mul(r.Savings)
	tax := subtotal.Mul(r.Tax)
	return CartSummary{
		Subtotal: subtotal.Round(places),
		Savings:  savings.Round(places),
		Tax:      tax.Round(places),
		Total:    subtotal.Sub(savings).Add(tax).Round(places),
	}
}

// ForCheckout computes the checkout totals: subtotal + tax, free shipping.
func (r Rates) ForCheckout(items []domain.CartItem, products map[string]domain.Product) CheckoutSummary {
	subtotal := Subtotal(items, products)
	tax := subtotal.Mul(r.Tax)
	return CheckoutSummary{
		Subtotal: subtotal.Round(places),
		Tax:      tax.Round(places),
		Shipping: decimal.Zero,
		Total:    subtotal.Add(tax).Round(places),
	}
}
