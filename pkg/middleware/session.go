package middleware

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/NivraTech-Teams/Silk-Elegance/pkg/logger"
)

// SessionHeader carries the opaque storefront session id. It scopes the
// persisted cart and wishlist the way a browser origin scopes local storage.
const SessionHeader = "X-Session-ID"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// RequireSession rejects requests without a well-formed X-Session-ID header
// and stores the id in the request context.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+SessionHeader+" header")
			return
		}
		if !sessionIDPattern.MatchString(id) {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "malformed "+SessionHeader+" header")
			return
		}

		next.ServeHTTP(w, r.WithContext(logger.WithSessionID(r.Context(), id)))
	})
}

// SessionIDFromContext returns the session id stored by RequireSession.
func SessionIDFromContext(r *http.Request) string {
	return logger.SessionIDFromContext(r.Context())
}

// writeJSONError writes the standard error envelope from middleware that
// runs before any handler.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
