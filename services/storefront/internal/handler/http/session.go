package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/NivraTech-Teams/Silk-Elegance/pkg/errors"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/httputil"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/binding"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/service"
)

// SessionHandler serves the per-session read models that span both
// collections: page composition and notifications.
type SessionHandler struct {
	sessions *service.Sessions
	logger   *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(sessions *service.Sessions, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// GetPage handles GET /api/v1/pages/{page}
func (h *SessionHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "page")
	page, ok := binding.ParsePage(name)
	if !ok {
		httputil.WriteError(w, r, apperrors.NotFound("page", name), h.logger)
		return
	}

	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: page.Compose(sess.Cart.View(), sess.Wishlist.View()),
	})
}

// ListNotifications handles GET /api/v1/notifications
func (h *SessionHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: sess.Notifications.Active()})
}

// DismissNotification handles DELETE /api/v1/notifications/{id}
func (h *SessionHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := session(w, r, h.sessions, h.logger)
	if !ok {
		return
	}
	if !sess.Notifications.Dismiss(id) {
		httputil.WriteError(w, r, apperrors.NotFound("notification", id), h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
