package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	pkgkafka "github.com/NivraTech-Teams/Silk-Elegance/pkg/kafka"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/logger"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
)

// Kafka topics for storefront events.
const (
	TopicCartUpdated     = "storefront.cart.updated"
	TopicWishlistUpdated = "storefront.wishlist.updated"
	TopicCartCheckedOut  = "storefront.cart.checked_out"
)

// SourceStorefront identifies events produced by this service.
const SourceStorefront = "storefront-service"

// ErrBreakerOpen is returned while the breaker rejects publishes.
var ErrBreakerOpen = gobreaker.ErrOpenState

// ItemData is a line item inside an event payload.
type ItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// CollectionUpdatedData is the payload of cart.updated and wishlist.updated.
type CollectionUpdatedData struct {
	SessionID string     `json:"session_id"`
	Operation string     `json:"operation"`
	Outcome   string     `json:"outcome"`
	Items     []ItemData `json:"items"`
	ItemCount int        `json:"item_count"`
	Total     int64      `json:"total"`
}

// CheckedOutData is the payload of cart.checked_out.
type CheckedOutData struct {
	SessionID string     `json:"session_id"`
	ReceiptID string     `json:"receipt_id"`
	Items     []ItemData `json:"items"`
	ItemCount int        `json:"item_count"`
	Total     int64      `json:"total"`
}

// Publisher is the subset of *pkgkafka.Producer the event producer needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// BreakerConfig tunes the circuit breaker that guards publishing.
type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig trips after half of at least five publishes fail and
// probes again after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "storefront-events",
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "storefront_event_breaker_state",
		Help: "State of the event publishing circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Producer publishes storefront events through a circuit breaker, so a dead
// broker costs one fast rejection per mutation instead of a write timeout.
type Producer struct {
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    *slog.Logger
}

// NewProducer creates a Producer.
func NewProducer(publisher Publisher, cfg BreakerConfig, logger *slog.Logger) *Producer {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("event breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateValue(to))
		},
	}
	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &Producer{
		publisher: publisher,
		breaker:   gobreaker.NewCircuitBreaker[struct{}](settings),
		logger:    logger,
	}
}

// State returns the breaker state.
func (p *Producer) State() gobreaker.State {
	return p.breaker.State()
}

// PublishCollectionUpdated publishes the post-mutation state of c.
func (p *Producer) PublishCollectionUpdated(ctx context.Context, sessionID, operation string, outcome domain.Outcome, c *domain.Collection) error {
	topic := TopicCartUpdated
	if c.Kind() == domain.KindWishlist {
		topic = TopicWishlistUpdated
	}

	items := c.Items()
	data := CollectionUpdatedData{
		SessionID: sessionID,
		Operation: operation,
		Outcome:   string(outcome),
		Items:     itemData(items),
		ItemCount: c.TotalItemCount(),
		Total:     c.TotalPrice(),
	}
	return p.publish(ctx, topic, sessionID, string(c.Kind()), data)
}

// PublishCheckedOut publishes a completed checkout.
func (p *Producer) PublishCheckedOut(ctx context.Context, sessionID, receiptID string, items []domain.LineItem, total int64) error {
	var count int
	for _, it := range items {
		count += it.Quantity
	}
	data := CheckedOutData{
		SessionID: sessionID,
		ReceiptID: receiptID,
		Items:     itemData(items),
		ItemCount: count,
		Total:     total,
	}
	return p.publish(ctx, TopicCartCheckedOut, sessionID, string(domain.KindCart), data)
}

func (p *Producer) publish(ctx context.Context, topic, sessionID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, sessionID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.publisher.Publish(ctx, topic, evt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("publish %s: %w", topic, ErrBreakerOpen)
		}
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published storefront event",
		slog.String("topic", topic),
		slog.String("session_id", sessionID),
	)
	return nil
}

func itemData(items []domain.LineItem) []ItemData {
	out := make([]ItemData, len(items))
	for i, it := range items {
		out[i] = ItemData{ProductID: it.ProductID, Name: it.Name, Price: it.Price, Quantity: it.Quantity}
	}
	return out
}

// Noop discards every event. Used when Kafka is disabled.
type Noop struct{}

func (Noop) PublishCollectionUpdated(context.Context, string, string, domain.Outcome, *domain.Collection) error {
	return nil
}

func (Noop) PublishCheckedOut(context.Context, string, string, []domain.LineItem, int64) error {
	return nil
}
