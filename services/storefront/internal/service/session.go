package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/NivraTech-Teams/Silk-Elegance/pkg/logger"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/notify"
)

// Session is one shopper's cart, wishlist and feedback queue.
type Session struct {
	ID            string
	Cart          *Cart
	Wishlist      *Wishlist
	Notifications *notify.Center

	lastSeen time.Time
}

// Sessions hydrates sessions on first use and keeps them in memory. In a
// multi-replica deployment requests for one session must be routed to the
// same replica.
type Sessions struct {
	deps           Deps
	notifyTTL      time.Duration
	hydrateTimeout time.Duration
	now            func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	sessions map[string]*Session
}

// DefaultHydrateTimeout bounds how long loading a session from the store may take.
const DefaultHydrateTimeout = 5 * time.Second

// NewSessions creates an empty registry.
func NewSessions(deps Deps, notifyTTL time.Duration) *Sessions {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Sessions{
		deps:           deps,
		notifyTTL:      notifyTTL,
		hydrateTimeout: DefaultHydrateTimeout,
		now:            time.Now,
		sessions:       make(map[string]*Session),
	}
}

// Get returns the session for id, loading its collections from the store
// the first time it is seen. Concurrent first requests for one id share a
// single load. A failed load is returned and not cached, so the next request
// retries it.
func (s *Sessions) Get(ctx context.Context, id string) (*Session, error) {
	if sess, ok := s.lookup(id); ok {
		return sess, nil
	}

	v, err, _ := s.group.Do(id, func() (any, error) {
		if sess, ok := s.lookup(id); ok {
			return sess, nil
		}
		sess, err := s.hydrate(ctx, id)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if existing, ok := s.sessions[id]; ok {
			sess.Notifications.Close()
			return existing, nil
		}
		s.sessions[id] = sess
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (s *Sessions) lookup(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		sess.lastSeen = s.now()
	}
	return sess, ok
}

// hydrate loads both collections for id. It runs outside s.mu and is not
// cut short by the caller's cancellation, only by hydrateTimeout.
func (s *Sessions) hydrate(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.hydrateTimeout)
	defer cancel()

	log := logger.WithContext(ctx, s.deps.Logger)
	notes := notify.NewCenter(s.notifyTTL)
	cart, err := newCart(ctx, s.deps, id, notes)
	if err != nil {
		notes.Close()
		log.WarnContext(ctx, "session hydration failed", slog.String("error", err.Error()))
		return nil, err
	}
	wishlist, err := newWishlist(ctx, s.deps, id, cart, notes)
	if err != nil {
		notes.Close()
		log.WarnContext(ctx, "session hydration failed", slog.String("error", err.Error()))
		return nil, err
	}

	sess := &Session{
		ID:            id,
		Cart:          cart,
		Wishlist:      wishlist,
		Notifications: notes,
		lastSeen:      s.now(),
	}
	log.DebugContext(ctx, "session hydrated",
		slog.Int("cart_items", sess.Cart.View().Badge.Count),
		slog.Int("wishlist_items", sess.Wishlist.View().Badge.Count),
	)
	return sess, nil
}

// Len reports how many sessions are held in memory.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict drops sessions idle for longer than idle. Their state stays in the
// store and is reloaded on the next request.
func (s *Sessions) Evict(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-idle)
	evicted := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			sess.Notifications.Close()
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Close stops every notification timer and forgets all sessions.
func (s *Sessions) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		sess.Notifications.Close()
		delete(s.sessions, id)
	}
}
