package binding

import (
	"sync"

	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
)

// Mount is anything that displays a collection view.
type Mount interface {
	Render(View)
}

// Binding fans a refreshed view out to its mounts. With no mounts a refresh
// still computes the view and renders nothing.
type Binding struct {
	mu     sync.RWMutex
	mounts []Mount
}

// New creates a Binding rendering to mounts. Nil mounts are skipped.
func New(mounts ...Mount) *Binding {
	b := &Binding{}
	for _, m := range mounts {
		b.Attach(m)
	}
	return b
}

// Attach adds a mount.
func (b *Binding) Attach(m Mount) {
	if m == nil {
		return
	}
	b.mu.Lock()
	b.mounts = append(b.mounts, m)
	b.mu.Unlock()
}

// Refresh projects c and renders the view on every mount, synchronously.
func (b *Binding) Refresh(c *domain.Collection) View {
	v := Project(c)

	b.mu.RLock()
	mounts := b.mounts
	b.mu.RUnlock()

	for _, m := range mounts {
		m.Render(v)
	}
	return v
}

// Snapshot is a mount that keeps the most recent view for readers on other
// goroutines.
type Snapshot struct {
	mu   sync.RWMutex
	view View
	set  bool
}

// NewSnapshot creates an empty Snapshot.
func NewSnapshot() *Snapshot { return &Snapshot{} }

// Render stores v.
func (s *Snapshot) Render(v View) {
	s.mu.Lock()
	s.view = v
	s.set = true
	s.mu.Unlock()
}

// Latest returns the last rendered view and whether anything was rendered yet.
func (s *Snapshot) Latest() (View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view, s.set
}

// Markers is a mount tracking which products are wishlisted, for the heart
// icons on product cards.
type Markers struct {
	mu     sync.RWMutex
	active map[string]struct{}
}

// NewMarkers creates a Markers mount with nothing active.
func NewMarkers() *Markers {
	return &Markers{active: map[string]struct{}{}}
}

// Render replaces the active set with the products in v.
func (m *Markers) Render(v View) {
	active := make(map[string]struct{}, len(v.Items))
	for _, it := range v.Items {
		active[it.ProductID] = struct{}{}
	}
	m.mu.Lock()
	m.active = active
	m.mu.Unlock()
}

// Mark returns the state of each given card, keyed by product id.
func (m *Markers) Mark(productIDs []string) map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		_, out[id] = m.active[id]
	}
	return out
}
