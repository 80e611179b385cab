// Package catalog reads products and categories and applies the client-side
// ordering the catalog views offer.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"robohub/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// AllProducts labels the unfiltered listing.
const AllProducts = "All Products"

// SortKey selects the client-side ordering of a product list.
type SortKey string

const (
	SortServer    SortKey = ""
	SortName      SortKey = "name"
	SortPriceLow  SortKey = "price_low"
	SortPriceHigh SortKey = "price_high"
)

// ParseSortKey accepts the keys above; anything else is an error.
func ParseSortKey(raw string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case SortServer, SortName, SortPriceLow, SortPriceHigh:
		return k, nil
	default:
		return "", domain.NewValidationError("Unknown sort order",
			domain.FieldError{Field: "sort", Message: fmt.Sprintf("must be one of %s, %s, %s", SortName, SortPriceLow, SortPriceHigh)})
	}
}

// API is the part of the backend client the reader uses.
type API interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Reader serves catalog data. It keeps no cache; every call re-fetches.
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

// ListProducts passes filter to the backend and orders the result by key.
func (r *Reader) ListProducts(ctx context.Context, filter domain.ProductFilter, key SortKey) ([]domain.Product, error) {
	products, err := r.api.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	Sort(products, key)
	return products, nil
}

// GetProduct returns a NotFoundError for unknown ids.
func (r *Reader) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := r.api.GetProduct(ctx, id)
	if err != nil {
		if domain.IsNotFound(err) {
			r.logger.Debug("Product not found", zap.String("product_id", id))
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return product, nil
}

func (r *Reader) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := r.api.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Home is the landing view: featured products and the category list.
type Home struct {
	Featured   []domain.Product  `json:"featured"`
	Categories []domain.Category `json:"categories"`
}

// Home fetches both halves of the landing view concurrently.
func (r *Reader) Home(ctx context.Context) (*Home, error) {
	var (
		home     Home
		featured = true
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := r.api.ListProducts(gctx, domain.ProductFilter{Featured: &featured})
		if err != nil {
			return fmt.Errorf("failed to list featured products: %w", err)
		}
		home.Featured = products
		return nil
	})
	g.Go(func() error {
		categories, err := r.api.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		home.Categories = categories
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &home, nil
}

// Listing is the catalog view for one category (or all of them).
type Listing struct {
	Title      string            `json:"title"`
	Category   string            `json:"category,omitempty"`
	Sort       SortKey           `json:"sort"`
	Products   []domain.Product  `json:"products"`
	Categories []domain.Category `json:"categories"`
}

// Listing fetches products and categories concurrently and titles the view.
func (r *Reader) Listing(ctx context.Context, filter domain.ProductFilter, key SortKey) (*Listing, error) {
	listing := Listing{Category: filter.Category, Sort: key}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := r.ListProducts(gctx, filter, key)
		listing.Products = products
		return err
	})
	g.Go(func() error {
		categories, err := r.ListCategories(gctx)
		listing.Categories = categories
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	listing.Title = CategoryName(listing.Categories, filter.Category)
	return &listing, nil
}

// Sort orders products in place. Ties keep their server order.
func Sort(products []domain.Product, key SortKey) {
	switch key {
	case SortName:
		c := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[i].Name, products[j].Name) < 0
		})
	case SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	}
}

// CategoryName returns the display name for id, or AllProducts.
func CategoryName(categories []domain.Category, id string) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return AllProducts
}

// StockStatus is the availability line of the product detail view.
func StockStatus(p domain.Product) string {
	switch {
	case p.StockQuantity > 10:
		return "In Stock"
	case p.StockQuantity > 0:
		return fmt.Sprintf("Only %d left", p.StockQuantity)
	default:
		return "Out of Stock"
	}
}

// ClampQuantity keeps a picker quantity within [1, stock].
func ClampQuantity(q, stock int) int {
	if q > stock {
		q = stock
	}
	if q < 1 {
		q = 1
	}
	return q
}

// Spec is one row of the specification table.
type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Specs lists a product's specifications ordered by key, with keys such as
// "battery_life" shown as "Battery life".
func Specs(p domain.Product) []Spec {
	keys := make([]string, 0, len(p.Specifications))
	for k := range p.Specifications {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	specs := make([]Spec, 0, len(keys))
	for _, k := range keys {
		label := strings.ReplaceAll(k, "_", " ")
		if r, size := utf8.DecodeRuneInString(label); size > 0 {
			label = string(unicode.ToUpper(r)) + label[size:]
		}
		specs = append(specs, Spec{Label: label, Value: p.Specifications[k]})
	}
	return specs
}

// Detail is the product detail view.
type Detail struct {
	Product     domain.Product `json:"product"`
	StockStatus string         `json:"stock_status"`
	InStock     bool           `json:"in_stock"`
	Specs       []Spec         `json:"specs"`
}

// NewDetail builds the product detail view model.
func NewDetail(p domain.Product) Detail {
	return Detail{
		Product:     p,
		StockStatus: StockStatus(p),
		InStock:     p.StockQuantity > 0,
		Specs:       Specs(p),
	}
}
