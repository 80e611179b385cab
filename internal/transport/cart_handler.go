package transport

import (
	"fmt"
	"net/http"

	"robohub/internal/cart"
	"robohub/internal/domain"
	"robohub/internal/middleware"
	"robohub/internal/pricing"
	"robohub/internal/session"
	"robohub/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	loginToAddMessage   = "Please login to add items to cart"
	updateFailedMessage = "Error updating quantity"
)

// AddItemRequest adds units of a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"notblank"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// SetQuantityRequest sets an absolute quantity; zero removes the item.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartHandler serves the cart view and cart actions. Every request builds
// its own cart manager; nothing is cached between views.
type CartHandler struct {
	api     cart.API
	rates   pricing.Rates
	session session.Reader
	logger  *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(api cart.API, rates pricing.Rates, sess session.Reader, logger *zap.Logger) *CartHandler {
	return &CartHandler{api: api, rates: rates, session: sess, logger: logger}
}

// RegisterRoutes registers the cart view and actions behind requireSession
func (h *CartHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Post("/cart/items", h.AddItem)
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/cart", h.View)
		r.Put("/cart/items/{productID}", h.SetQuantity)
		r.Delete("/cart/items/{productID}", h.RemoveItem)
	})
}

func (h *CartHandler) manager() *cart.Manager {
	return cart.NewManager(h.api, h.rates, h.logger)
}

// View renders the cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	m := h.manager()
	if err := m.Load(r.Context()); err != nil {
		renderPage[*cart.View](w, h.logger, h.session, "cart", nil, err, nil)
		return
	}
	v := m.View()
	renderPage(w, h.logger, h.session, "cart", &v, nil, nil)
}

// AddItem handles add-to-cart from the catalog and product views. Those views
// are public, so the session check happens here with its own message.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !h.session.IsAuthenticated() {
		middleware.RespondWithError(w, http.StatusUnauthorized, loginToAddMessage)
		return
	}

	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	m := h.manager()
	if err := m.AddOrIncrement(r.Context(), req.ProductID, req.Quantity); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	name := req.ProductID
	if p, ok := m.Products()[req.ProductID]; ok {
		name = p.Name
	}
	h.respond(w, m, view.Success(fmt.Sprintf("Added %d %s(s) to cart!", req.Quantity, name)))
}

// SetQuantity handles quantity changes in the cart view
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	m := h.manager()
	if err := m.Load(r.Context()); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	if err := m.SetQuantity(r.Context(), chi.URLParam(r, "productID"), *req.Quantity); err != nil {
		if domain.IsValidation(err) {
			middleware.RespondWithDomainError(w, h.logger, err)
			return
		}
		h.logger.Warn("Cart quantity update failed", zap.Error(err))
		middleware.RespondWithError(w, middleware.StatusFor(err), updateFailedMessage)
		return
	}

	var notice *view.Notice
	if *req.Quantity <= 0 {
		notice = view.Success("Item removed from cart")
	}
	h.respond(w, m, notice)
}

// RemoveItem handles item removal in the cart view
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	m := h.manager()
	if err := m.Load(r.Context()); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	if err := m.RemoveItem(r.Context(), chi.URLParam(r, "productID")); err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	h.respond(w, m, view.Success("Item removed from cart"))
}

// respond returns the cart as confirmed by the backend.
func (h *CartHandler) respond(w http.ResponseWriter, m *cart.Manager, notice *view.Notice) {
	middleware.RespondWithJSON(w, http.StatusOK, ActionResponse{Data: m.View(), Notice: notice})
}
