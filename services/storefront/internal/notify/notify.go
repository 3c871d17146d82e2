// Package notify keeps the short-lived feedback messages shown after a cart
// or wishlist action.
package notify

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind selects the notification styling.
type Kind string

const (
	KindAdd    Kind = "add"
	KindRemove Kind = "remove"
	KindInfo   Kind = "info"
)

// DefaultTTL is how long a notification stays up before it dismisses itself.
const DefaultTTL = 3 * time.Second

// maxActive bounds the queue when a client fires actions faster than they expire.
const maxActive = 20

// Notification is one feedback message.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type entry struct {
	n     Notification
	timer *time.Timer
}

// Center holds one session's active notifications. Each notification
// removes itself after the TTL unless dismissed first.
type Center struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries []*entry
	closed  bool
}

// NewCenter creates a Center. A non-positive ttl means DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{ttl: ttl, now: time.Now}
}

// Push shows a message and schedules its dismissal. After Close it returns
// the notification without keeping it.
func (c *Center) Push(kind Kind, message string) Notification {
	now := c.now()
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return n
	}

	e := &entry{n: n}
	e.timer = time.AfterFunc(c.ttl, func() { c.Dismiss(n.ID) })
	c.entries = append(c.entries, e)

	for len(c.entries) > maxActive {
		c.entries[0].timer.Stop()
		c.entries = c.entries[1:]
	}
	return n
}

// Active returns the undismissed notifications, oldest first.
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.n)
	}
	return out
}

// Dismiss removes the notification with the given id. It reports whether
// the notification was still active.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if e.n.ID == id {
			e.timer.Stop()
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Close stops every pending timer and drops all notifications.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		e.timer.Stop()
	}
	c.entries = nil
	c.closed = true
}

// Feedback messages.

func AddedToCart(name string) string         { return name + " added to cart!" }
func AddedToWishlist(name string) string     { return name + " added to wishlist!" }
func RemovedFromWishlist(name string) string { return name + " removed from wishlist!" }

const (
	MovedToCart     = "Item moved to cart!"
	AllMovedToCart  = "All items moved to cart!"
	WishlistCleared = "Wishlist cleared!"
)

// OrderPlaced confirms a checkout.
func OrderPlaced(total int64) string {
	return "Thank you for your order! Total: " + FormatRupees(total)
}

// FormatRupees renders whole rupees with thousands separators, e.g. ₹17,998.
func FormatRupees(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, digits[i])
	}
	return sign + "₹" + string(out)
}
