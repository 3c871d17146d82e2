package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/NivraTech-Teams/Silk-Elegance/pkg/httputil"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/validator"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/service"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	sessions *service.Sessions
	logger   *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(sessions *service.Sessions, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{sessions: sessions, logger: logger}
}

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sess.Wishlist.View()})
}

// Marked handles GET /api/v1/wishlist/marked?ids=1,2,3
func (h *WishlistHandler) Marked(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sess.Wishlist.Marked(ids)})
}

// AddItem handles POST /api/v1/wishlist/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	h.write(w, r)(sess.Wishlist.Add(r.Context(), req.ProductID))
}

// Toggle handles POST /api/v1/wishlist/items/{productId}/toggle
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	h.write(w, r)(sess.Wishlist.Toggle(r.Context(), productID(r)))
}

// RemoveItem handles DELETE /api/v1/wishlist/items/{productId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	h.write(w, r)(sess.Wishlist.Remove(r.Context(), productID(r)))
}

// ClearWishlist handles DELETE /api/v1/wishlist
func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	h.write(w, r)(sess.Wishlist.Clear(r.Context()))
}

// MoveToCart handles POST /api/v1/wishlist/items/{productId}/move-to-cart
func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	h.write(w, r)(sess.Wishlist.MoveToCart(r.Context(), productID(r)))
}

// MoveAllToCart handles POST /api/v1/wishlist/move-all-to-cart
func (h *WishlistHandler) MoveAllToCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	h.write(w, r)(sess.Wishlist.MoveAllToCart(r.Context()))
}

func (h *WishlistHandler) write(w http.ResponseWriter, r *http.Request) func(service.Result, error) {
	return func(res service.Result, err error) {
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		writeResult(w, res)
	}
}
