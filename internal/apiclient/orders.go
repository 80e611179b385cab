package apiclient

import (
	"context"
	"net/http"

	"robohub/internal/domain"
)

// CreateOrder places an order built from the current cart.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	var order domain.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the current user's orders, newest first.
func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders := []domain.Order{}
	if err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
