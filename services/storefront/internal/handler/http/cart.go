package http

import (
	"log/slog"
	"net/http"

	"github.com/NivraTech-Teams/Silk-Elegance/pkg/httputil"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/validator"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/service"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	sessions *service.Sessions
	logger   *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(sessions *service.Sessions, logger *slog.Logger) *CartHandler {
	return &CartHandler{sessions: sessions, logger: logger}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sess.Cart.View()})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	res, err := sess.Cart.Add(r.Context(), req.ProductID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeResult(w, res)
}

// SetQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	res, err := sess.Cart.SetQuantity(r.Context(), productID(r), *req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeResult(w, res)
}

// Increment handles POST /api/v1/cart/items/{productId}/increment
func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	res, err := sess.Cart.Increment(r.Context(), productID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeResult(w, res)
}

// Decrement handles POST /api/v1/cart/items/{productId}/decrement
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	res, err := sess.Cart.Decrement(r.Context(), productID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeResult(w, res)
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	res, err := sess.Cart.Remove(r.Context(), productID(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeResult(w, res)
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	res, err := sess.Cart.Clear(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writeResult(w, res)
}

// Checkout handles POST /api/v1/cart/checkout
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	receipt, err := sess.Cart.Checkout(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: receipt})
}
