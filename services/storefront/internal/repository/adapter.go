package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/NivraTech-Teams/Silk-Elegance/pkg/errors"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/logger"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/validator"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
)

var tracer = otel.Tracer("github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository")

// Adapter turns collections into full JSON snapshots and back.
type Adapter struct {
	kv     KV
	logger *slog.Logger
}

// NewAdapter creates an Adapter over kv.
func NewAdapter(kv KV, logger *slog.Logger) *Adapter {
	return &Adapter{kv: kv, logger: logger}
}

// Load returns the collection stored under key. A missing key or a stored
// value that is not a well-formed list of line items yields an empty
// collection. Any other read failure is returned, so callers never mistake
// an unreachable store for an empty one.
func (a *Adapter) Load(ctx context.Context, key string, kind domain.Kind) (*domain.Collection, error) {
	ctx, span := tracer.Start(ctx, "Adapter.Load", trace.WithAttributes(
		attribute.String("storefront.key", key),
		attribute.String("storefront.kind", string(kind)),
	))
	defer span.End()

	log := logger.WithContext(ctx, a.logger)

	raw, err := a.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewCollection(kind), nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.ErrorContext(ctx, "read stored collection failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("load %s: %w: %w", key, apperrors.ErrServiceUnavail, err)
	}

	c, err := Decode(raw, kind)
	if err != nil {
		span.SetAttributes(attribute.Bool("storefront.corrupt", true))
		log.WarnContext(ctx, "stored collection is corrupt, starting empty",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return domain.NewCollection(kind), nil
	}

	span.SetAttributes(attribute.Int("storefront.items", c.Len()))
	return c, nil
}

// Save overwrites key with a full snapshot of c.
func (a *Adapter) Save(ctx context.Context, key string, c *domain.Collection) error {
	ctx, span := tracer.Start(ctx, "Adapter.Save", trace.WithAttributes(
		attribute.String("storefront.key", key),
		attribute.Int("storefront.items", c.Len()),
	))
	defer span.End()

	data, err := Encode(c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := a.kv.Set(ctx, key, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Encode serializes c as a JSON array, "[]" when empty.
func Encode(c *domain.Collection) ([]byte, error) {
	data, err := json.Marshal(c.Items())
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", c.Kind(), err)
	}
	return data, nil
}

// Decode parses a stored JSON array of line items. It fails when raw is not
// an array, an entry does not have the line item shape, or ids repeat.
func Decode(raw []byte, kind domain.Kind) (*domain.Collection, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("not a JSON array: %w", err)
	}
	if entries == nil {
		return nil, errors.New("not a JSON array: null")
	}

	items := make([]domain.LineItem, 0, len(entries))
	for i, e := range entries {
		var it domain.LineItem
		if err := json.Unmarshal(e, &it); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := validator.Validate(it); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		items = append(items, it)
	}
	return domain.Hydrate(kind, items)
}
