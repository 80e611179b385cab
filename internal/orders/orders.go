// Package orders reads the signed-in user's order history.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"robohub/internal/domain"

	"go.uber.org/zap"
)

// DateLayout renders timestamps as "January 2, 2006 at 03:04 PM".
const DateLayout = "January 2, 2006 at 03:04 PM"

// Badge is the presentation of an order status.
type Badge struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var badges = map[domain.OrderStatus]Badge{
	domain.OrderStatusPending:    {Label: "pending", Icon: "clock", Color: "yellow"},
	domain.OrderStatusProcessing: {Label: "processing", Icon: "package", Color: "blue"},
	domain.OrderStatusShipped:    {Label: "shipped", Icon: "truck", Color: "purple"},
	domain.OrderStatusDelivered:  {Label: "delivered", Icon: "check-circle", Color: "green"},
	domain.OrderStatusCancelled:  {Label: "cancelled", Icon: "clock", Color: "red"},
}

// BadgeFor maps a status to its badge. Statuses the client does not know
// get a neutral badge labelled with the raw value.
func BadgeFor(status domain.OrderStatus) Badge {
	if b, ok := badges[status]; ok {
		return b
	}
	label := strings.TrimSpace(string(status))
	if label == "" {
		label = "unknown"
	}
	return Badge{Label: label, Icon: "clock", Color: "gray"}
}

// PaymentLabel names a payment method for display.
func PaymentLabel(method string) string {
	if method == domain.PaymentMethodCOD {
		return "Cash on Delivery"
	}
	return method
}

// FormatDate renders t in the storefront's long date format.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(DateLayout)
}

// API lists orders on the backend.
type API interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

// Reader is read-only; it never mutates orders.
type Reader struct {
	api    API
	logger *zap.Logger
}

func NewReader(api API, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{api: api, logger: logger}
}

// List returns the user's orders in backend order (newest first).
func (r *Reader) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := r.api.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// OrderView is one order of the history list.
type OrderView struct {
	domain.Order
	Badge        Badge  `json:"badge"`
	PaymentLabel string `json:"payment_label"`
	PlacedAt     string `json:"placed_at"`
	Note         string `json:"note,omitempty"`
}

// NewOrderView decorates o for display.
func NewOrderView(o domain.Order) OrderView {
	v := OrderView{
		Order:        o,
		Badge:        BadgeFor(o.Status),
		PaymentLabel: PaymentLabel(o.PaymentMethod),
		PlacedAt:     FormatDate(o.CreatedAt),
	}
	if o.Status == domain.OrderStatusPending {
		v.Note = "Processing your order..."
	}
	return v
}

// Account is the profile tab of the order history view.
type Account struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	AccountType string `json:"account_type"`
	MemberSince string `json:"member_since"`
}

// NewAccount describes u for the profile tab.
func NewAccount(u domain.User) Account {
	accountType := "Customer"
	if u.IsAdmin {
		accountType = "Administrator"
	}
	return Account{
		FullName:    u.FullName,
		Email:       u.Email,
		AccountType: accountType,
		MemberSince: FormatDate(u.CreatedAt),
	}
}

// Profile is the order history view.
type Profile struct {
	Account Account     `json:"account"`
	Orders  []OrderView `json:"orders"`
}

// Profile fetches the orders of user and builds the view.
func (r *Reader) Profile(ctx context.Context, user domain.User) (*Profile, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]OrderView, 0, len(list))
	for _, o := range list {
		views = append(views, NewOrderView(o))
	}
	return &Profile{Account: NewAccount(user), Orders: views}, nil
}
