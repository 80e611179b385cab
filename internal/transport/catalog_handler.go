package transport

import (
	"net/http"
	"strconv"

	"robohub/internal/catalog"
	"robohub/internal/domain"
	"robohub/internal/middleware"
	"robohub/internal/session"
	"robohub/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves the public views: home, catalog, category and
// product detail.
type CatalogHandler struct {
	reader  *catalog.Reader
	session session.Reader
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(reader *catalog.Reader, sess session.Reader, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{reader: reader, session: sess, logger: logger}
}

// RegisterRoutes registers the public catalog views
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/catalog", h.Catalog)
	r.Get("/category/{id}", h.Category)
	r.Get("/product/{id}", h.Product)
}

// Home renders featured products and categories
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	home, err := h.reader.Home(r.Context())
	renderPage(w, h.logger, h.session, "home", home, err, nil)
}

// Catalog renders the product listing filtered by query parameters
func (h *CatalogHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, r.URL.Query().Get("category"))
}

// Category renders the listing of one category
func (h *CatalogHandler) Category(w http.ResponseWriter, r *http.Request) {
	h.listing(w, r, chi.URLParam(r, "id"))
}

func (h *CatalogHandler) listing(w http.ResponseWriter, r *http.Request, category string) {
	q := r.URL.Query()

	sortParam := q.Get("sort")
	if !q.Has("sort") {
		sortParam = string(catalog.SortName)
	}
	key, err := catalog.ParseSortKey(sortParam)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}

	filter := domain.ProductFilter{Category: category, Search: q.Get("search")}
	if raw := q.Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.RespondWithDomainError(w, h.logger, domain.NewValidationError("Invalid featured flag",
				domain.FieldError{Field: "featured", Message: "Must be true or false"}))
			return
		}
		filter.Featured = &featured
	}

	listing, err := h.reader.Listing(r.Context(), filter, key)
	renderPage(w, h.logger, h.session, "catalog", listing, err, nil)
}

// Product renders the detail view. Unknown products send the user back to
// the catalog.
func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	product, err := h.reader.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if domain.IsNotFound(err) {
		middleware.RespondWithRedirect(w, "/catalog", &view.Notice{Level: view.LevelError, Message: "Product not found"})
		return
	}
	if err != nil {
		renderPage[*catalog.Detail](w, h.logger, h.session, "product", nil, err, nil)
		return
	}

	detail := catalog.NewDetail(*product)
	renderPage(w, h.logger, h.session, "product", &detail, nil, nil)
}
