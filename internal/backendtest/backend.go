// Package backendtest is an in-memory RoboHub backend implementing the REST
// contract the storefront client relies on. It is used by tests across the
// repository and by `robohub mock-backend` for local development.
package backendtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"robohub/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenTTL matches the backend's access token lifetime.
	TokenTTL = 30 * time.Minute

	secret = "robohub-test-secret"
)

type account struct {
	user         domain.User
	passwordHash []byte
}

type failure struct {
	method string
	prefix string
	status int
}

// Backend holds users, products, carts and orders in memory.
type Backend struct {
	mu         sync.Mutex
	accounts   map[string]*account // by email
	products   []domain.Product
	categories []domain.Category
	carts      map[string]*domain.Cart   // by user id
	orders     map[string][]domain.Order // by user id
	failures   []failure
	calls      map[string]int
	now        func() time.Time

	// TaxRate is applied to order totals. It mirrors the storefront's
	// checkout arithmetic so both sides agree.
	TaxRate decimal.Decimal
}

// New returns a backend seeded with the sample catalog.
func New() *Backend {
	b := &Backend{
		accounts: make(map[string]*account),
		carts:    make(map[string]*domain.Cart),
		orders:   make(map[string][]domain.Order),
		calls:    make(map[string]int),
		now:      time.Now,
		TaxRate:  decimal.RequireFromString("0.08"),
	}
	b.products = SampleProducts()
	b.categories = SampleCategories()
	return b
}

// NewServer starts b behind an httptest server closed at test cleanup.
func NewServer(t testing.TB) (*Backend, *httptest.Server) {
	t.Helper()
	b := New()
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	return b, srv
}

// SampleCategories returns the three storefront categories.
func SampleCategories() []domain.Category {
	return []domain.Category{
		{ID: "home_automation", Name: "Home Automation", Description: "Smart robots for your home"},
		{ID: "educational", Name: "Educational", Description: "Learning and hobby robotics"},
		{ID: "ai_companion", Name: "AI Companions", Description: "Intelligent companion robots"},
	}
}

// SampleProducts returns the four seeded robots with stable ids.
func SampleProducts() []domain.Product {
	created := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	return []domain.Product{
		{
			ID: "robovac-pro-x1", Name: "RoboVac Pro X1",
			Description: "Advanced home cleaning robot with AI navigation and smart mapping technology",
			Price:       decimal.RequireFromString("599.99"),
			ImageURL:    "https://images.unsplash.com/photo-1625314887424-9f190599bd56",
			Category:    "home_automation",
			Specifications: map[string]string{
				"battery_life":  "120 minutes",
				"suction_power": "2000Pa",
				"connectivity":  "WiFi, Bluetooth",
				"dimensions":    "35 x 35 x 9.2 cm",
			},
			StockQuantity: 50, Featured: true, CreatedAt: created,
		},
		{
			ID: "ai-companion-bot", Name: "AI Companion Bot",
			Description: "Intelligent companion robot with voice interaction and emotion recognition",
			Price:       decimal.RequireFromString("1299.99"),
			ImageURL:    "https://images.unsplash.com/photo-1625314876522-a908c4c01167",
			Category:    "ai_companion",
			Specifications: map[string]string{
				"height":          "45 cm",
				"weight":          "3.2 kg",
				"voice_languages": "12 languages",
				"battery_life":    "8 hours",
			},
			StockQuantity: 25, Featured: true, CreatedAt: created,
		},
		{
			ID: "edubot-learning-kit", Name: "EduBot Learning Kit",
			Description: "Complete robotics learning kit for students and hobbyists",
			Price:       decimal.RequireFromString("199.99"),
			ImageURL:    "https://images.unsplash.com/photo-1581916459131-90da1f9c7162",
			Category:    "educational",
			Specifications: map[string]string{
				"programming_languages": "Python, Scratch",
				"sensors":               "Ultrasonic, Camera, Gyroscope",
				"age_range":             "12+ years",
				"components":            "250+ pieces",
			},
			StockQuantity: 100, CreatedAt: created,
		},
		{
			ID: "smart-home-hub", Name: "Smart Home Hub Robot",
			Description: "Central control robot for all your smart home devices",
			Price:       decimal.RequireFromString("899.99"),
			ImageURL:    "https://images.unsplash.com/photo-1530546171585-cc042ea5d7ab",
			Category:    "home_automation",
			Specifications: map[string]string{
				"compatible_devices": "500+ smart devices",
				"voice_control":      "Alexa, Google, Siri",
				"display":            "7-inch touch screen",
				"connectivity":       "WiFi 6, Zigbee, Z-Wave",
			},
			StockQuantity: 30, Featured: true, CreatedAt: created,
		},
	}
}

// SetProducts replaces the catalog.
func (b *Backend) SetProducts(products ...domain.Product) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.products = append([]domain.Product(nil), products...)
}

// SeedUser creates an account directly and returns a valid token for it.
func (b *Backend) SeedUser(email, password, fullName string) (domain.User, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.createAccountLocked(email, password, fullName)
	token, _ := b.issueToken(acc.user.ID, TokenTTL)
	return acc.user, token
}

// IssueToken signs a token for userID valid for ttl; a negative ttl yields
// an already-expired token.
func (b *Backend) IssueToken(userID string, ttl time.Duration) string {
	token, _ := b.issueToken(userID, ttl)
	return token
}

// SetCart replaces the cart of userID.
func (b *Backend) SetCart(userID string, items ...domain.CartItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.carts[userID] = &domain.Cart{ID: uuid.NewString(), UserID: userID, Items: append([]domain.CartItem{}, items...), UpdatedAt: b.now()}
}

// CartOf returns a copy of userID's cart.
func (b *Backend) CartOf(userID string) domain.Cart {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.carts[userID]; ok {
		return *c.Clone()
	}
	return domain.Cart{UserID: userID, Items: []domain.CartItem{}}
}

// SetOrderStatus changes the status of an order, as the fulfilment side would.
func (b *Backend) SetOrderStatus(userID, orderID string, status domain.OrderStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders[userID] {
		if b.orders[userID][i].ID == orderID {
			b.orders[userID][i].Status = status
		}
	}
}

// FailNext makes the next request matching method and path prefix fail with
// status. Use status 0 to drop the connection instead.
func (b *Backend) FailNext(method, pathPrefix string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, failure{method: method, prefix: pathPrefix, status: status})
}

// Calls reports how many requests reached "METHOD /path".
func (b *Backend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

// TotalCalls reports how many requests reached the backend at all.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// Handler returns the HTTP handler serving the /api routes.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", b.register)
		r.Post("/auth/login", b.login)
		r.Get("/products", b.listProducts)
		r.Get("/products/{id}", b.getProduct)
		r.Get("/categories", b.listCategories)

		r.Group(func(r chi.Router) {
			r.Use(b.authenticate)
			r.Get("/auth/me", b.me)
			r.Get("/cart", b.getCart)
			r.Post("/cart/add", b.addToCart)
			r.Delete("/cart/remove/{productID}", b.removeFromCart)
			r.Post("/orders", b.createOrder)
			r.Get("/orders", b.listOrders)
		})
	})
	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.Method+" "+r.URL.Path]++
		var injected *failure
		for i, f := range b.failures {
			if f.method == r.Method && strings.HasPrefix(r.URL.Path, f.prefix) {
				injected = &f
				b.failures = append(b.failures[:i], b.failures[i+1:]...)
				break
			}
		}
		b.mu.Unlock()

		if injected != nil {
			if injected.status == 0 {
				if hj, ok := w.(http.Hijacker); ok {
					if conn, _, err := hj.Hijack(); err == nil {
						conn.Close()
						return
					}
				}
				injected.status = http.StatusBadGateway
			}
			detail(w, injected.status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			detail(w, http.StatusForbidden, "Not authenticated")
			return
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil {
			detail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		b.mu.Lock()
		var user *domain.User
		for _, acc := range b.accounts {
			if acc.user.ID == claims.Subject {
				u := acc.user
				user = &u
			}
		}
		b.mu.Unlock()
		if user == nil {
			detail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r, user)))
	})
}

func (b *Backend) issueToken(userID string, ttl time.Duration) (string, error) {
	now := b.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (b *Backend) createAccountLocked(email, password, fullName string) *account {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	acc := &account{
		user: domain.User{
			ID:        uuid.NewString(),
			Email:     email,
			FullName:  fullName,
			CreatedAt: b.now().UTC(),
		},
		passwordHash: hash,
	}
	b.accounts[strings.ToLower(email)] = acc
	return acc
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !strings.Contains(req.Email, "@") || req.FullName == "" {
		detail(w, http.StatusUnprocessableEntity, "Invalid registration payload")
		return
	}

	b.mu.Lock()
	if _, exists := b.accounts[strings.ToLower(req.Email)]; exists {
		b.mu.Unlock()
		detail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	acc := b.createAccountLocked(req.Email, req.Password, req.FullName)
	b.mu.Unlock()

	b.respondWithToken(w, acc.user)
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, "Invalid login payload")
		return
	}

	b.mu.Lock()
	acc, ok := b.accounts[strings.ToLower(req.Email)]
	b.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		detail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	b.respondWithToken(w, acc.user)
}

func (b *Backend) respondWithToken(w http.ResponseWriter, user domain.User) {
	token, err := b.issueToken(user.ID, TokenTTL)
	if err != nil {
		detail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	respond(w, http.StatusOK, domain.AuthResponse{AccessToken: token, TokenType: "bearer", User: user})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, userFrom(r))
}

func (b *Backend) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	search := strings.ToLower(q.Get("search"))
	featured, hasFeatured := q.Get("featured"), q.Has("featured")

	b.mu.Lock()
	defer b.mu.Unlock()

	out := []domain.Product{}
	for _, p := range b.products {
		if category != "" && p.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) && !strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if hasFeatured {
			want, err := strconv.ParseBool(featured)
			if err != nil {
				detail(w, http.StatusUnprocessableEntity, "featured must be a boolean")
				return
			}
			if p.Featured != want {
				continue
			}
		}
		out = append(out, p)
	}
	respond(w, http.StatusOK, out)
}

func (b *Backend) findProductLocked(id string) (domain.Product, bool) {
	for _, p := range b.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (b *Backend) getProduct(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	p, ok := b.findProductLocked(chi.URLParam(r, "id"))
	b.mu.Unlock()
	if !ok {
		detail(w, http.StatusNotFound, "Product not found")
		return
	}
	respond(w, http.StatusOK, p)
}

func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	respond(w, http.StatusOK, b.categories)
}

func (b *Backend) cartLocked(userID string) *domain.Cart {
	c, ok := b.carts[userID]
	if !ok {
		c = &domain.Cart{ID: uuid.NewString(), UserID: userID, Items: []domain.CartItem{}, UpdatedAt: b.now().UTC()}
		b.carts[userID] = c
	}
	return c
}

func (b *Backend) getCart(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	respond(w, http.StatusOK, b.cartLocked(userFrom(r).ID))
}

func (b *Backend) addToCart(w http.ResponseWriter, r *http.Request) {
	var item domain.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		detail(w, http.StatusUnprocessableEntity, "Invalid cart item")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.findProductLocked(item.ProductID); !ok {
		detail(w, http.StatusNotFound, "Product not found")
		return
	}

	c := b.cartLocked(userFrom(r).ID)
	if i := c.Find(item.ProductID); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		if c.Items[i].Quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
	} else if item.Quantity > 0 {
		c.Items = append(c.Items, item)
	}
	c.UpdatedAt = b.now().UTC()

	respond(w, http.StatusOK, map[string]string{"message": "Item added to cart"})
}

func (b *Backend) removeFromCart(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.carts[userFrom(r).ID]
	if !ok {
		detail(w, http.StatusNotFound, "Cart not found")
		return
	}
	if i := c.Find(chi.URLParam(r, "productID")); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
	c.UpdatedAt = b.now().UTC()

	respond(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
}

func (b *Backend) createOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, "Invalid order")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	user := userFrom(r)
	subtotal := decimal.Zero
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		p, ok := b.findProductLocked(it.ProductID)
		if !ok {
			detail(w, http.StatusNotFound, fmt.Sprintf("Product %s not found", it.ProductID))
			return
		}
		total := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(total)
		items = append(items, domain.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			Price:       p.Price,
			Total:       total,
		})
	}

	order := domain.Order{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		Items:           items,
		TotalAmount:     subtotal.Add(subtotal.Mul(b.TaxRate)).Round(2),
		PaymentMethod:   req.PaymentMethod,
		Status:          domain.OrderStatusPending,
		ShippingAddress: req.ShippingAddress,
		CreatedAt:       b.now().UTC(),
	}
	b.orders[user.ID] = append(b.orders[user.ID], order)
	delete(b.carts, user.ID)

	respond(w, http.StatusOK, order)
}

func (b *Backend) listOrders(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	orders := append([]domain.Order{}, b.orders[userFrom(r).ID]...)
	sort.SliceStable(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	respond(w, http.StatusOK, orders)
}

func withUser(r *http.Request, u *domain.User) context.Context {
	return context.WithValue(r.Context(), ctxKey{}, u)
}

func userFrom(r *http.Request) *domain.User {
	u, _ := r.Context().Value(ctxKey{}).(*domain.User)
	if u == nil {
		panic(errors.New("backendtest: handler reached without a user"))
	}
	return u
}

func respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func detail(w http.ResponseWriter, status int, msg string) {
	respond(w, status, map[string]string{"detail": msg})
}
