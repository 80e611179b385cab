package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is assigned by the backend. Unknown values are kept as-is.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentMethodCOD is the only payment method the storefront accepts.
const PaymentMethodCOD = "cod"

// ShippingAddress is collected at checkout.
type ShippingAddress struct {
	FullName     string `json:"full_name" validate:"notblank"`
	AddressLine1 string `json:"address_line_1" validate:"notblank"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	City         string `json:"city" validate:"notblank"`
	State        string `json:"state" validate:"notblank"`
	PostalCode   string `json:"postal_code" validate:"notblank"`
	Country      string `json:"country"`
	Phone        string `json:"phone" validate:"notblank"`
}

// OrderItem is a snapshot of a product at order time, decoupled from the
// live catalog.
type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// Order is immutable from the client's point of view.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaymentMethod   string          `json:"payment_method"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderRequest is the body of POST /api/orders.
type OrderRequest struct {
	Items           []CartItem      `json:"items"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
}
