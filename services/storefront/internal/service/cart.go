package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/NivraTech-Teams/Silk-Elegance/pkg/errors"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/logger"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/binding"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/catalog"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/notify"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository"
)

// Receipt is the result of a checkout.
type Receipt struct {
	ID        string            `json:"id"`
	Items     []domain.LineItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Total     int64             `json:"total"`
	PlacedAt  time.Time         `json:"placed_at"`
}

// Cart owns one session's cart.
type Cart struct {
	*owner
	notes *notify.Center
}

func newCart(ctx context.Context, deps Deps, sessionID string, notes *notify.Center) (*Cart, error) {
	o, err := newOwner(ctx, deps, sessionID, repository.Key(sessionID, domain.KindCart), domain.KindCart)
	if err != nil {
		return nil, err
	}
	return &Cart{owner: o, notes: notes}, nil
}

// View returns the current cart projection.
func (c *Cart) View() binding.View {
	return c.view()
}

// Add puts one unit of productID in the cart. An unknown product is reported
// as OutcomeNotFound, not as an error.
func (c *Cart) Add(ctx context.Context, productID string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addLocked(ctx, productID, true)
}

func (c *Cart) addLocked(ctx context.Context, productID string, announce bool) (Result, error) {
	p, ok := c.lookup(ctx, opAdd, productID)
	if !ok {
		return c.notFound(), nil
	}

	res, err := c.mutateLocked(ctx, opAdd, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.Add(p), nil
	})
	if err == nil && announce && res.Outcome.Changed() {
		c.notes.Push(notify.KindAdd, notify.AddedToCart(p.Name))
	}
	return res, err
}

// addAllLocked adds one unit of every product in a single save. Unknown
// products are skipped and logged. Callers must hold c.mu.
func (c *Cart) addAllLocked(ctx context.Context, items []domain.LineItem) (Result, error) {
	products := make([]catalog.Product, 0, len(items))
	for _, it := range items {
		if p, ok := c.lookup(ctx, opMoveAll, it.ProductID); ok {
			products = append(products, p)
		}
	}
	if len(products) == 0 {
		return Result{Outcome: domain.OutcomeUnchanged, View: c.binding.Refresh(c.coll)}, nil
	}

	return c.mutateLocked(ctx, opMoveAll, func(coll *domain.Collection) (domain.Outcome, error) {
		for _, p := range products {
			coll.Add(p)
		}
		return domain.OutcomeAdded, nil
	})
}

// Remove deletes productID from the cart. Removing an absent product is a no-op.
func (c *Cart) Remove(ctx context.Context, productID string) (Result, error) {
	return c.mutate(ctx, opRemove, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.Remove(productID), nil
	})
}

// SetQuantity sets the quantity of productID to exactly n; n below 1 removes it.
func (c *Cart) SetQuantity(ctx context.Context, productID string, n int) (Result, error) {
	return c.mutate(ctx, opSetQuantity, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.SetQuantity(productID, n)
	})
}

// Increment raises the quantity of a cart line by one. A line already at
// domain.MaxQuantity is left alone.
func (c *Cart) Increment(ctx context.Context, productID string) (Result, error) {
	return c.step(ctx, opIncrement, productID, 1)
}

// Decrement lowers the quantity of a cart line by one, removing it at zero.
func (c *Cart) Decrement(ctx context.Context, productID string) (Result, error) {
	return c.step(ctx, opDecrement, productID, -1)
}

func (c *Cart) step(ctx context.Context, op, productID string, delta int) (Result, error) {
	return c.mutate(ctx, op, func(coll *domain.Collection) (domain.Outcome, error) {
		item, ok := coll.Item(productID)
		if !ok {
			return domain.OutcomeAbsent, nil
		}
		if item.Quantity+delta > domain.MaxQuantity {
			return domain.OutcomeUnchanged, nil
		}
		return coll.SetQuantity(productID, item.Quantity+delta)
	})
}

// Clear empties the cart.
func (c *Cart) Clear(ctx context.Context) (Result, error) {
	return c.mutate(ctx, opClear, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.Clear(), nil
	})
}

// Checkout records the order and empties the cart. An empty cart is rejected.
func (c *Cart) Checkout(ctx context.Context) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.coll.Len() == 0 {
		recordMutation(string(domain.KindCart), opCheckout, "empty")
		return Receipt{}, apperrors.InvalidInput("your cart is empty")
	}

	receipt := Receipt{
		ID:        uuid.NewString(),
		Items:     c.coll.Items(),
		ItemCount: c.coll.TotalItemCount(),
		Total:     c.coll.TotalPrice(),
		PlacedAt:  time.Now().UTC(),
	}

	if _, err := c.mutateLocked(ctx, opCheckout, func(coll *domain.Collection) (domain.Outcome, error) {
		return coll.Clear(), nil
	}); err != nil {
		return Receipt{}, err
	}

	checkoutTotal.Observe(float64(receipt.Total))
	if err := c.deps.Events.PublishCheckedOut(ctx, c.sessionID, receipt.ID, receipt.Items, receipt.Total); err != nil {
		logger.WithContext(ctx, c.deps.Logger).ErrorContext(ctx, "publish checkout event failed",
			slog.String("receipt_id", receipt.ID),
			slog.String("error", err.Error()),
		)
	}
	logger.WithContext(ctx, c.deps.Logger).InfoContext(ctx, "checkout completed",
		slog.String("receipt_id", receipt.ID),
		slog.Int("item_count", receipt.ItemCount),
		slog.Int64("total", receipt.Total),
	)
	c.notes.Push(notify.KindInfo, notify.OrderPlaced(receipt.Total))
	return receipt, nil
}
