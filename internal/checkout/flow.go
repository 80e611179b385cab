// Package checkout drives order submission from the current cart.
package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"

	"robohub/internal/domain"
	"robohub/internal/pricing"
	"robohub/internal/validation"

	"go.uber.org/zap"
)

const (
	// SuccessRedirect is where the caller goes after a placed order.
	SuccessRedirect = "/profile"
	SuccessMessage  = "Order placed successfully!"
	FailureMessage  = "Error placing order. Please try again."

	DefaultCountry = "Pakistan"

	addressMessage = "Please fill in all required shipping information"
)

// Countries offered by the address form.
var Countries = []string{"Pakistan", "India", "Bangladesh", "UAE"}

// ErrInProgress is returned when Submit is called while another submission
// is still running.
var ErrInProgress = errors.New("an order is already being submitted")

// State of the checkout flow.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PaymentMethod is one option of the payment picker.
type PaymentMethod struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

// PaymentMethods lists every method the form shows. Only cash on delivery
// is enabled.
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{ID: domain.PaymentMethodCOD, Label: "Cash on Delivery", Description: "Pay when your order arrives", Enabled: true},
		{ID: "card", Label: "Credit/Debit Card", Description: "Coming soon"},
		{ID: "mobile", Label: "Mobile Wallet", Description: "JazzCash, Easypaisa - Coming soon"},
	}
}

// ValidatePaymentMethod accepts enabled methods only. Empty means cod.
func ValidatePaymentMethod(method string) (string, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return domain.PaymentMethodCOD, nil
	}
	for _, pm := range PaymentMethods() {
		if pm.ID == method && pm.Enabled {
			return method, nil
		}
	}
	return "", domain.NewValidationError("Payment method is not available",
		domain.FieldError{Field: "payment_method", Message: "Only Cash on Delivery is available"})
}

// ValidateAddress flags every required field that is empty or blank.
func ValidateAddress(addr domain.ShippingAddress) error {
	return validation.Struct(addr, addressMessage)
}

// SubmitError is a failed order submission. It is always safe to retry.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string { return FailureMessage }

func (e *SubmitError) Unwrap() error { return e.Err }

func (e *SubmitError) UserMessage() string { return FailureMessage }

// OrderAPI creates orders on the backend.
type OrderAPI interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
}

// CartSnapshot is the loaded cart the order is built from.
type CartSnapshot interface {
	Cart() *domain.Cart
	Products() map[string]domain.Product
}

// Result of a placed order.
type Result struct {
	Order    *domain.Order           `json:"order"`
	Summary  pricing.CheckoutSummary `json:"summary"`
	Redirect string                  `json:"redirect"`
	Message  string                  `json:"message"`
}

// Flow is the checkout state machine: Idle, Validating, Submitting and then
// Success or Failed. Failed falls back to Idle.
type Flow struct {
	mu           sync.Mutex
	state        State
	api          OrderAPI
	cart         CartSnapshot
	rates        pricing.Rates
	logger       *zap.Logger
	onTransition func(from, to State)
}

func NewFlow(api OrderAPI, cart CartSnapshot, rates pricing.Rates, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{api: api, cart: cart, rates: rates, logger: logger}
}

// OnTransition registers fn to observe every state change.
func (f *Flow) OnTransition(fn func(from, to State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onTransition = fn
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Summary prices the cart snapshot the way the checkout view shows it.
func (f *Flow) Summary() pricing.CheckoutSummary {
	return f.summary(f.cart.Cart())
}

func (f *Flow) summary(c *domain.Cart) pricing.CheckoutSummary {
	if c == nil {
		return f.rates.ForCheckout(nil, nil)
	}
	return f.rates.ForCheckout(c.Items, f.cart.Products())
}

// Submit validates addr and method, then places an order for the current
// cart. Validation errors never reach the network.
func (f *Flow) Submit(ctx context.Context, addr domain.ShippingAddress, method string) (*Result, error) {
	f.mu.Lock()
	if f.state == Validating || f.state == Submitting {
		f.mu.Unlock()
		return nil, ErrInProgress
	}
	notify := f.transitionLocked(Validating)
	f.mu.Unlock()
	notify()

	snapshot, req, err := f.prepare(addr, method)
	if err != nil {
		f.transition(Idle)
		return nil, err
	}

	f.transition(Submitting)
	order, err := f.api.CreateOrder(ctx, req)
	if err != nil {
		f.logger.Warn("Order submission failed", zap.Error(err))
		f.transition(Failed)
		f.transition(Idle)
		return nil, &SubmitError{Err: err}
	}

	summary := f.summary(snapshot)
	if !order.TotalAmount.Round(2).Equal(summary.Total) {
		f.logger.Warn("Order total differs from checkout total",
			zap.String("order_id", order.ID),
			zap.String("order_total", order.TotalAmount.StringFixed(2)),
			zap.String("checkout_total", summary.Total.StringFixed(2)),
		)
	}

	f.transition(Success)
	f.logger.Info("Order placed", zap.String("order_id", order.ID), zap.Int("items", len(order.Items)))
	return &Result{
		Order:    order,
		Summary:  summary,
		Redirect: SuccessRedirect,
		Message:  SuccessMessage,
	}, nil
}

func (f *Flow) prepare(addr domain.ShippingAddress, method string) (*domain.Cart, domain.OrderRequest, error) {
	addr = normalize(addr)
	if err := ValidateAddress(addr); err != nil {
		return nil, domain.OrderRequest{}, err
	}
	method, err := ValidatePaymentMethod(method)
	if err != nil {
		return nil, domain.OrderRequest{}, err
	}

	snapshot := f.cart.Cart()
	if snapshot == nil || len(snapshot.Items) == 0 {
		return nil, domain.OrderRequest{}, &domain.ValidationError{
			Message: "Your cart is empty",
			Fields:  []domain.FieldError{{Field: "items", Message: "Add something to your cart first"}},
			Err:     domain.ErrEmptyCart,
		}
	}

	return snapshot, domain.OrderRequest{
		Items:           snapshot.Items,
		PaymentMethod:   method,
		ShippingAddress: addr,
	}, nil
}

func (f *Flow) transition(to State) {
	f.mu.Lock()
	notify := f.transitionLocked(to)
	f.mu.Unlock()
	notify()
}

// transitionLocked sets the state and returns the observer call, which the
// caller runs after releasing f.mu so observers may read the flow.
func (f *Flow) transitionLocked(to State) func() {
	from := f.state
	f.state = to
	fn := f.onTransition
	if fn == nil {
		return func() {}
	}
	return func() { fn(from, to) }
}

func normalize(addr domain.ShippingAddress) domain.ShippingAddress {
	addr.FullName = strings.TrimSpace(addr.FullName)
	addr.AddressLine1 = strings.TrimSpace(addr.AddressLine1)
	addr.AddressLine2 = strings.TrimSpace(addr.AddressLine2)
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.TrimSpace(addr.State)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.Phone = strings.TrimSpace(addr.Phone)
	addr.Country = strings.TrimSpace(addr.Country)
	if addr.Country == "" {
		addr.Country = DefaultCountry
	}
	return addr
}
