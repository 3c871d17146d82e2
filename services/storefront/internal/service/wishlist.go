package service

import (
	"context"

	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/binding"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/notify"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository"
)

// Wishlist owns one session's wishlist. It moves items into cart, so the
// Wishlist lock is always taken before the Cart lock and both are held for
// the whole move.
type Wishlist struct {
	*owner
	cart    *Cart
	markers *binding.Markers
	notes   *notify.Center
}

func newWishlist(ctx context.Context, deps Deps, sessionID string, cart *Cart, notes *notify.Center) (*Wishlist, error) {
	markers := binding.NewMarkers()
	o, err := newOwner(ctx, deps, sessionID, repository.Key(sessionID, domain.KindWishlist), domain.KindWishlist, markers)
	if err != nil {
		return nil, err
	}
	return &Wishlist{owner: o, cart: cart, markers: markers, notes: notes}, nil
}

// View returns the current wishlist projection.
func (w *Wishlist) View() binding.View {
	return w.view()
}

// Marked reports which of the given product cards show as wishlisted.
func (w *Wishlist) Marked(productIDs []string) map[string]bool {
	return w.markers.Mark(productIDs)
}

// Toggle adds productID when absent and removes it when present.
func (w *Wishlist) Toggle(ctx context.Context, productID string) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.lookup(ctx, opToggle, productID)
	if !ok {
		return w.notFound(), nil
	}

	res, err := w.mutateLocked(ctx, opToggle, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.Toggle(p)
	})
	if err != nil {
		return res, err
	}
	switch res.Outcome {
	case domain.OutcomeAdded:
		w.notes.Push(notify.KindAdd, notify.AddedToWishlist(p.Name))
	case domain.OutcomeRemoved:
		w.notes.Push(notify.KindRemove, notify.RemovedFromWishlist(p.Name))
	}
	return res, nil
}

// Add wishlists productID. Adding an entry that is already there changes nothing.
func (w *Wishlist) Add(ctx context.Context, productID string) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.lookup(ctx, opAdd, productID)
	if !ok {
		return w.notFound(), nil
	}

	res, err := w.mutateLocked(ctx, opAdd, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.Add(p), nil
	})
	if err == nil && res.Outcome == domain.OutcomeAdded {
		w.notes.Push(notify.KindAdd, notify.AddedToWishlist(p.Name))
	}
	return res, err
}

// Remove drops productID from the wishlist.
func (w *Wishlist) Remove(ctx context.Context, productID string) (Result, error) {
	return w.mutate(ctx, opRemove, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.Remove(productID), nil
	})
}

// Clear empties the wishlist.
func (w *Wishlist) Clear(ctx context.Context) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	had := w.coll.Len() > 0
	res, err := w.mutateLocked(ctx, opClear, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.Clear(), nil
	})
	if err == nil && had {
		w.notes.Push(notify.KindInfo, notify.WishlistCleared)
	}
	return res, err
}

// MoveToCart adds a wishlisted product to the cart and drops it from the
// wishlist. A product that is not wishlisted reports OutcomeAbsent and the
// cart is left alone. If the wishlist cannot be saved the cart is restored.
func (w *Wishlist) MoveToCart(ctx context.Context, productID string) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.coll.Contains(productID) {
		recordMutation(string(domain.KindWishlist), opMoveToCart, string(domain.OutcomeAbsent))
		return Result{Outcome: domain.OutcomeAbsent, View: w.binding.Refresh(w.coll)}, nil
	}

	w.cart.mu.Lock()
	defer w.cart.mu.Unlock()

	cartBefore := w.cart.coll.Clone()
	added, err := w.cart.addLocked(ctx, productID, false)
	if err != nil {
		return Result{}, err
	}
	if added.Outcome == domain.OutcomeNotFound {
		return w.notFound(), nil
	}

	res, err := w.mutateLocked(ctx, opMoveToCart, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.Remove(productID), nil
	})
	if err != nil {
		if added.Outcome.Changed() {
			w.cart.restoreLocked(ctx, cartBefore)
		}
		return res, err
	}
	w.notes.Push(notify.KindAdd, notify.MovedToCart)
	return res, nil
}

// MoveAllToCart adds every wishlisted product to the cart in one save, then
// clears the wishlist. An empty wishlist is a no-op. If the wishlist cannot
// be saved the cart is restored.
func (w *Wishlist) MoveAllToCart(ctx context.Context) (Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.coll.Len() == 0 {
		recordMutation(string(domain.KindWishlist), opMoveAll, string(domain.OutcomeUnchanged))
		return Result{Outcome: domain.OutcomeUnchanged, View: w.binding.Refresh(w.coll)}, nil
	}

	w.cart.mu.Lock()
	defer w.cart.mu.Unlock()

	cartBefore := w.cart.coll.Clone()
	added, err := w.cart.addAllLocked(ctx, w.coll.Items())
	if err != nil {
		return Result{}, err
	}

	res, err := w.mutateLocked(ctx, opMoveAll, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.Clear(), nil
	})
	if err != nil {
		if added.Outcome.Changed() {
			w.cart.restoreLocked(ctx, cartBefore)
		}
		return res, err
	}
	w.notes.Push(notify.KindAdd, notify.AllMovedToCart)
	return res, nil
}
