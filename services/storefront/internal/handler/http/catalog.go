package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "github.com/NivraTech-Teams/Silk-Elegance/pkg/errors"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/httputil"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/catalog"
)

// Catalog is the read side of the product catalog.
type Catalog interface {
	catalog.Lookup
	List() []catalog.Product
	Search(query string) []catalog.Product
}

// CatalogHandler serves the product listing and search.
type CatalogHandler struct {
	products Catalog
	logger   *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(products Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{products: products, logger: logger}
}

// ListProducts handles GET /api/v1/catalog/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.products.List()})
}

// GetProduct handles GET /api/v1/catalog/products/{productId}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := productID(r)
	p, ok := h.products.Lookup(id)
	if !ok {
		httputil.WriteError(w, r, apperrors.NotFound("product", id), h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

// Search handles GET /api/v1/catalog/search?q=&live=
// A live (as-you-type) query shorter than catalog.MinLiveQueryLength
// returns no results. The length is taken before trimming, as typed.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	typed := r.URL.Query().Get("q")

	live := false
	if raw := r.URL.Query().Get("live"); raw != "" {
		var err error
		live, err = strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("live must be a boolean"), h.logger)
			return
		}
	}

	results := []catalog.Product{}
	if !live || utf8.RuneCountInString(typed) >= catalog.MinLiveQueryLength {
		results = h.products.Search(strings.TrimSpace(typed))
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: results})
}
