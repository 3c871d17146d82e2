package repository

import (
	"context"

	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
)

// Storage key suffixes. A session's keys are "<session>:sareeCart" and
// "<session>:sareeWishlist".
const (
	cartSuffix     = "sareeCart"
	wishlistSuffix = "sareeWishlist"
)

// KV is a flat key-value store holding one serialized collection per key.
// Get returns an error wrapping apperrors.ErrNotFound when the key is absent.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key returns the storage key for the session's collection of the given kind.
func Key(sessionID string, kind domain.Kind) string {
	if kind == domain.KindWishlist {
		return sessionID + ":" + wishlistSuffix
	}
	return sessionID + ":" + cartSuffix
}
