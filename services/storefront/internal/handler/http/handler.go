package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NivraTech-Teams/Silk-Elegance/pkg/httputil"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/middleware"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/service"
)

// --- Request DTOs ---

// ItemRequest is the JSON body naming a catalog product.
type ItemRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
}

// QuantityRequest is the JSON body for setting a cart line quantity.
// Zero or less removes the line; above 999 is rejected.
type QuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,max=999"`
}

// ContentTypeJSON sets the response content type for API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// session resolves the caller's session. When it cannot be loaded the error
// response is written and ok is false.
func session(w http.ResponseWriter, r *http.Request, sessions *service.Sessions, logger *slog.Logger) (*service.Session, bool) {
	sess, err := sessions.Get(r.Context(), middleware.SessionIDFromContext(r))
	if err != nil {
		httputil.WriteError(w, r, err, logger)
		return nil, false
	}
	return sess, true
}

func productID(r *http.Request) string {
	return chi.URLParam(r, "productId")
}

func writeResult(w http.ResponseWriter, res service.Result) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}
