package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/NivraTech-Teams/Silk-Elegance/pkg/logger"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/binding"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/catalog"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
)

// Store loads and saves whole collections. *repository.Adapter implements it.
// Load returns an error only when the stored state could not be read.
type Store interface {
	Load(ctx context.Context, key string, kind domain.Kind) (*domain.Collection, error)
	Save(ctx context.Context, key string, c *domain.Collection) error
}

// EventPublisher receives the state after every change. Failures are logged
// by the caller and never undo a mutation.
type EventPublisher interface {
	PublishCollectionUpdated(ctx context.Context, sessionID, operation string, outcome domain.Outcome, c *domain.Collection) error
	PublishCheckedOut(ctx context.Context, sessionID, receiptID string, items []domain.LineItem, total int64) error
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Store   Store
	Catalog catalog.Lookup
	Events  EventPublisher
	Logger  *slog.Logger
}

// Result is what a mutation reports back: what happened and the view after it.
type Result struct {
	Outcome domain.Outcome `json:"outcome"`
	View    binding.View   `json:"view"`
}

// Operation names used in logs, metrics and events.
const (
	opAdd         = "add"
	opRemove      = "remove"
	opSetQuantity = "set_quantity"
	opIncrement   = "increment"
	opDecrement   = "decrement"
	opClear       = "clear"
	opToggle      = "toggle"
	opCheckout    = "checkout"
	opMoveToCart  = "move_to_cart"
	opMoveAll     = "move_all_to_cart"
	opRollback    = "rollback"
)

// owner holds one hydrated collection and serialises every access to it.
// A mutation runs mutate, save, refresh, then observers, all under mu.
type owner struct {
	mu        sync.Mutex
	sessionID string
	key       string
	coll      *domain.Collection
	binding   *binding.Binding
	snapshot  *binding.Snapshot
	deps      Deps
}

func newOwner(ctx context.Context, deps Deps, sessionID, key string, kind domain.Kind, mounts ...binding.Mount) (*owner, error) {
	coll, err := deps.Store.Load(ctx, key, kind)
	if err != nil {
		return nil, err
	}

	snap := binding.NewSnapshot()
	o := &owner{
		sessionID: sessionID,
		key:       key,
		coll:      coll,
		binding:   binding.New(append([]binding.Mount{snap}, mounts...)...),
		snapshot:  snap,
		deps:      deps,
	}
	o.binding.Refresh(o.coll)
	return o, nil
}

// view returns the latest rendered view.
func (o *owner) view() binding.View {
	v, ok := o.snapshot.Latest()
	if !ok {
		o.mu.Lock()
		defer o.mu.Unlock()
		return o.binding.Refresh(o.coll)
	}
	return v
}

// mutateLocked applies fn and, when it changed something, persists and
// publishes the new state. On a failed save the previous state is restored.
// Callers must hold o.mu.
func (o *owner) mutateLocked(ctx context.Context, op string, fn func(*domain.Collection) (domain.Outcome, error)) (Result, error) {
	kind := string(o.coll.Kind())
	before := o.coll.Clone()

	outcome, err := fn(o.coll)
	if err != nil {
		o.coll = before
		recordMutation(kind, op, "error")
		return Result{}, err
	}

	if outcome.Changed() {
		if err := o.deps.Store.Save(ctx, o.key, o.coll); err != nil {
			o.coll = before
			recordMutation(kind, op, "error")
			logger.WithContext(ctx, o.deps.Logger).ErrorContext(ctx, "persist collection failed, change rolled back",
				slog.String("collection", kind),
				slog.String("operation", op),
				slog.String("error", err.Error()),
			)
			return Result{}, fmt.Errorf("%s %s: %w", op, kind, err)
		}
	}

	view := o.binding.Refresh(o.coll)
	recordMutation(kind, op, string(outcome))
	if outcome.Changed() {
		o.publishUpdated(ctx, op, outcome)
	}
	return Result{Outcome: outcome, View: view}, nil
}

func (o *owner) mutate(ctx context.Context, op string, fn func(*domain.Collection) (domain.Outcome, error)) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mutateLocked(ctx, op, fn)
}

// restoreLocked puts prev back after a dependent change failed and persists
// it. Callers must hold o.mu.
func (o *owner) restoreLocked(ctx context.Context, prev *domain.Collection) {
	kind := string(o.coll.Kind())
	o.coll = prev
	o.binding.Refresh(o.coll)
	if err := o.deps.Store.Save(ctx, o.key, o.coll); err != nil {
		recordMutation(kind, opRollback, "error")
		logger.WithContext(ctx, o.deps.Logger).ErrorContext(ctx, "persist rollback failed, store is ahead of memory",
			slog.String("collection", kind),
			slog.String("error", err.Error()),
		)
		return
	}
	recordMutation(kind, opRollback, string(domain.OutcomeUpdated))
	o.publishUpdated(ctx, opRollback, domain.OutcomeUpdated)
}

func (o *owner) publishUpdated(ctx context.Context, op string, outcome domain.Outcome) {
	if err := o.deps.Events.PublishCollectionUpdated(ctx, o.sessionID, op, outcome, o.coll); err != nil {
		logger.WithContext(ctx, o.deps.Logger).ErrorContext(ctx, "publish collection event failed",
			slog.String("collection", string(o.coll.Kind())),
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}
}

// lookup resolves productID, logging a miss at WARN.
func (o *owner) lookup(ctx context.Context, op, productID string) (catalog.Product, bool) {
	p, ok := o.deps.Catalog.Lookup(productID)
	if !ok {
		logger.WithContext(ctx, o.deps.Logger).WarnContext(ctx, "product not found in catalog",
			slog.String("collection", string(o.coll.Kind())),
			slog.String("operation", op),
			slog.String("product_id", productID),
		)
		recordMutation(string(o.coll.Kind()), op, string(domain.OutcomeNotFound))
	}
	return p, ok
}

// notFound reports a catalog miss without touching state.
func (o *owner) notFound() Result {
	return Result{Outcome: domain.OutcomeNotFound, View: o.binding.Refresh(o.coll)}
}
