package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"robohub/internal/domain"
)

// GetCart returns the authenticated user's cart.
func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}

// AddToCart adds delta units of productID. The quantity is a delta, not an
// absolute value, and may be negative to decrement.
func (c *Client) AddToCart(ctx context.Context, productID string, delta int) error {
	return c.do(ctx, http.MethodPost, "/cart/add", nil, domain.CartItem{ProductID: productID, Quantity: delta}, nil)
}

// RemoveFromCart drops productID from the cart.
func (c *Client) RemoveFromCart(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/remove/"+url.PathEscape(productID), nil, nil, nil)
}
