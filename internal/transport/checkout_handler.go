package transport

import (
	"net/http"
	"sync"

	"robohub/internal/cart"
	"robohub/internal/checkout"
	"robohub/internal/domain"
	"robohub/internal/middleware"
	"robohub/internal/pricing"
	"robohub/internal/session"
	"robohub/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutAPI is the backend surface of the checkout view.
type CheckoutAPI interface {
	cart.API
	checkout.OrderAPI
}

// CheckoutRequest represents the order form payload
type CheckoutRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
}

// CheckoutView is the checkout form with its order summary.
type CheckoutView struct {
	Items          []pricing.Line           `json:"items"`
	Summary        pricing.CheckoutSummary  `json:"summary"`
	PaymentMethods []checkout.PaymentMethod `json:"payment_methods"`
	Countries      []string                 `json:"countries"`
	Address        domain.ShippingAddress   `json:"address"`
}

// CheckoutHandler serves the checkout view and order submission.
type CheckoutHandler struct {
	api     CheckoutAPI
	rates   pricing.Rates
	session session.Reader
	logger  *zap.Logger

	// one order at a time per gateway
	submitting sync.Mutex
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(api CheckoutAPI, rates pricing.Rates, sess session.Reader, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{api: api, rates: rates, session: sess, logger: logger}
}

// RegisterRoutes registers the checkout view and action behind requireSession
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/checkout", h.View)
		r.Post("/checkout", h.Submit)
	})
}

// View renders the checkout form. An empty cart sends the user back to the
// cart view.
func (h *CheckoutHandler) View(w http.ResponseWriter, r *http.Request) {
	m := cart.NewManager(h.api, h.rates, h.logger)
	if err := m.Load(r.Context()); err != nil {
		renderPage[*CheckoutView](w, h.logger, h.session, "checkout", nil, err, nil)
		return
	}
	if m.IsEmpty() {
		middleware.RespondWithRedirect(w, "/cart", view.Info("Your cart is empty"))
		return
	}

	user := userOf(r)
	renderPage(w, h.logger, h.session, "checkout", &CheckoutView{
		Items:          m.Lines(),
		Summary:        m.CheckoutSummary(),
		PaymentMethods: checkout.PaymentMethods(),
		Countries:      checkout.Countries,
		Address: domain.ShippingAddress{
			FullName: user.FullName,
			Country:  checkout.DefaultCountry,
		},
	}, nil, nil)
}

// Submit places an order for the current cart
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	if !h.submitting.TryLock() {
		middleware.RespondWithError(w, http.StatusConflict, "Your order is already being placed")
		return
	}
	defer h.submitting.Unlock()

	m := cart.NewManager(h.api, h.rates, h.logger)
	if err := m.Load(r.Context()); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	flow := checkout.NewFlow(h.api, m, h.rates, h.logger)
	flow.OnTransition(func(from, to checkout.State) {
		h.logger.Debug("Checkout state changed", zap.Stringer("from", from), zap.Stringer("to", to))
	})

	result, err := flow.Submit(r.Context(), req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, ActionResponse{
		Data:     result,
		Redirect: result.Redirect,
		Notice:   view.Success(result.Message),
	})
}
