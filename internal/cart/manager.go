// Package cart keeps a view-local mirror of the signed-in user's cart joined
// with its products. The mirror only changes after the backend confirms a
// mutation.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"robohub/internal/domain"
	"robohub/internal/pricing"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fetchLimit bounds concurrent product lookups while joining.
const fetchLimit = 4

// API is the part of the backend client the manager uses.
type API interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddToCart(ctx context.Context, productID string, delta int) error
	RemoveFromCart(ctx context.Context, productID string) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// Manager is created per view; it is not shared between views.
type Manager struct {
	mu       sync.Mutex
	api      API
	rates    pricing.Rates
	logger   *zap.Logger
	cart     *domain.Cart
	products map[string]domain.Product
}

func NewManager(api API, rates pricing.Rates, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		api:      api,
		rates:    rates,
		logger:   logger,
		products: make(map[string]domain.Product),
	}
}

// Load fetches the cart and the products it references. Products the backend
// no longer knows are dropped from the join and left out of totals.
func (m *Manager) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx)
}

func (m *Manager) loadLocked(ctx context.Context) error {
	c, err := m.api.GetCart(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	fetched := make([]*domain.Product, len(c.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)
	for i, item := range c.Items {
		i, item := i, item
		g.Go(func() error {
			p, err := m.api.GetProduct(gctx, item.ProductID)
			if domain.IsNotFound(err) {
				m.logger.Warn("Cart references unknown product", zap.String("product_id", item.ProductID))
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
			}
			fetched[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	products := make(map[string]domain.Product, len(fetched))
	for _, p := range fetched {
		if p != nil {
			products[p.ID] = *p
		}
	}

	m.cart = c
	m.products = products
	return nil
}

// GetCart reloads and returns a copy of the cart.
func (m *Manager) GetCart(ctx context.Context) (*domain.Cart, error) {
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m.Cart(), nil
}

// Cart returns a copy of the mirror, or nil before the first Load.
func (m *Manager) Cart() *domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart.Clone()
}

// Products returns a copy of the joined products.
func (m *Manager) Products() map[string]domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domain.Product, len(m.products))
	for id, p := range m.products {
		out[id] = p
	}
	return out
}

// AddOrIncrement adds delta units of productID, refusing to go past stock.
func (m *Manager) AddOrIncrement(ctx context.Context, productID string, delta int) error {
	if delta < 1 {
		return domain.NewValidationError("Quantity must be at least 1",
			domain.FieldError{Field: "quantity", Message: "Must be at least 1"})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoadedLocked(ctx); err != nil {
		return err
	}
	product, err := m.productLocked(ctx, productID)
	if err != nil {
		return err
	}

	current := m.cart.Quantity(productID)
	if current+delta > product.StockQuantity {
		return stockError(product)
	}

	if err := m.api.AddToCart(ctx, productID, delta); err != nil {
		return fmt.Errorf("failed to add %s to cart: %w", productID, err)
	}

	m.setLocked(productID, current+delta)
	m.logger.Debug("Cart item added", zap.String("product_id", productID), zap.Int("quantity", current+delta))
	return nil
}

// SetQuantity sets an absolute quantity. Zero or less removes the item; more
// than the stock is refused and the quantity stays as it was.
func (m *Manager) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return m.RemoveItem(ctx, productID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoadedLocked(ctx); err != nil {
		return err
	}
	product, err := m.productLocked(ctx, productID)
	if err != nil {
		return err
	}
	if quantity > product.StockQuantity {
		return stockError(product)
	}

	delta := quantity - m.cart.Quantity(productID)
	if delta == 0 {
		return nil
	}
	if err := m.api.AddToCart(ctx, productID, delta); err != nil {
		return fmt.Errorf("failed to update %s in cart: %w", productID, err)
	}

	m.setLocked(productID, quantity)
	m.logger.Debug("Cart item updated", zap.String("product_id", productID), zap.Int("quantity", quantity))
	return nil
}

// RemoveItem drops productID from the cart.
func (m *Manager) RemoveItem(ctx context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.api.RemoveFromCart(ctx, productID); err != nil {
		return fmt.Errorf("failed to remove %s from cart: %w", productID, err)
	}

	if m.cart != nil {
		m.setLocked(productID, 0)
	}
	m.logger.Debug("Cart item removed", zap.String("product_id", productID))
	return nil
}

// Lines are the priced rows of the cart.
func (m *Manager) Lines() []pricing.Line {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cart == nil {
		return []pricing.Line{}
	}
	return pricing.Lines(m.cart.Items, m.products)
}

// Summary is the cart view totals.
func (m *Manager) Summary() pricing.CartSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cart == nil {
		return m.rates.ForCart(nil, nil)
	}
	return m.rates.ForCart(m.cart.Items, m.products)
}

// CheckoutSummary is the checkout view totals over the same mirror.
func (m *Manager) CheckoutSummary() pricing.CheckoutSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cart == nil {
		return m.rates.ForCheckout(nil, nil)
	}
	return m.rates.ForCheckout(m.cart.Items, m.products)
}

// ItemCount is the number of units in the cart.
func (m *Manager) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cart == nil {
		return 0
	}
	n := 0
	for _, item := range m.cart.Items {
		n += item.Quantity
	}
	return n
}

// IsEmpty reports whether the loaded cart has no items.
func (m *Manager) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cart == nil || len(m.cart.Items) == 0
}

// View is the cart view model.
type View struct {
	Items     []pricing.Line      `json:"items"`
	Summary   pricing.CartSummary `json:"summary"`
	ItemCount int                 `json:"item_count"`
}

// View snapshots the mirror for rendering.
func (m *Manager) View() View {
	return View{Items: m.Lines(), Summary: m.Summary(), ItemCount: m.ItemCount()}
}

func (m *Manager) ensureLoadedLocked(ctx context.Context) error {
	if m.cart != nil {
		return nil
	}
	return m.loadLocked(ctx)
}

func (m *Manager) productLocked(ctx context.Context, productID string) (domain.Product, error) {
	if p, ok := m.products[productID]; ok {
		return p, nil
	}
	p, err := m.api.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("failed to load product %s: %w", productID, err)
	}
	m.products[productID] = *p
	return *p, nil
}

// setLocked applies a confirmed quantity to the mirror.
func (m *Manager) setLocked(productID string, quantity int) {
	i := m.cart.Find(productID)
	switch {
	case quantity <= 0 && i >= 0:
		m.cart.Items = append(m.cart.Items[:i:i], m.cart.Items[i+1:]...)
	case quantity <= 0:
	case i >= 0:
		m.cart.Items[i].Quantity = quantity
	default:
		m.cart.Items = append(m.cart.Items, domain.CartItem{ProductID: productID, Quantity: quantity})
	}
}

func stockError(p domain.Product) error {
	msg := fmt.Sprintf("Only %d of %s in stock", p.StockQuantity, p.Name)
	if p.StockQuantity <= 0 {
		msg = p.Name + " is out of stock"
	}
	return &domain.ValidationError{
		Message: msg,
		Fields:  []domain.FieldError{{Field: "quantity", Message: fmt.Sprintf("Must not exceed %d", p.StockQuantity)}},
		Err:     domain.ErrStockExceeded,
	}
}

// IsStockExceeded reports whether err is a stock cap refusal.
func IsStockExceeded(err error) bool {
	return errors.Is(err, domain.ErrStockExceeded)
}
