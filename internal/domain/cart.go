package domain

import "time"

// CartItem is a single line of the cart. ProductID is unique within a cart
// and Quantity is at least 1.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart is the client mirror of the server-side cart.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Find returns the index of the item for productID, or -1.
func (c *Cart) Find(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Quantity returns the quantity held for productID, zero when absent.
func (c *Cart) Quantity(productID string) int {
	if i := c.Find(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// Clone returns a deep copy so callers cannot alias the mirror's items.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Items != nil {
		cp.Items = make([]CartItem, len(c.Items))
		copy(cp.Items, c.Items)
	}
	return &cp
}
