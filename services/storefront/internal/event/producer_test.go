package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgkafka "github.com/NivraTech-Teams/Silk-Elegance/pkg/kafka"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/logger"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/catalog"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
)

type published struct {
	topic string
	event *pkgkafka.Event
}

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	sent []published
	hits int
}

func (f *fakePublisher) Publish(_ context.Context, topic string, e *pkgkafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, event: e})
	return nil
}

func testBreaker(name string) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.Name = name
	cfg.MinRequests = 2
	cfg.Timeout = time.Hour
	return cfg
}

func TestPublishCollectionUpdated_CartTopicAndPayload(t *testing.T) {
	pub := &fakePublisher{}
	p := NewProducer(pub, testBreaker("cart-payload"), logger.Discard())

	c := domain.NewCollection(domain.KindCart)
	banarasi, _ := catalog.Default().Lookup("1")
	c.Add(banarasi)
	c.Add(banarasi)

	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	require.NoError(t, p.PublishCollectionUpdated(ctx, "sess-1", "add", domain.OutcomeIncremented, c))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, TopicCartUpdated, pub.sent[0].topic)
	assert.Equal(t, "sess-1", pub.sent[0].event.AggregateID)
	assert.Equal(t, "corr-9", pub.sent[0].event.CorrelationID)

	var data CollectionUpdatedData
	require.NoError(t, pub.sent[0].event.UnmarshalData(&data))
	assert.Equal(t, "incremented", data.Outcome)
	assert.Equal(t, 2, data.ItemCount)
	assert.Equal(t, int64(17998), data.Total)
}

func TestPublishCollectionUpdated_WishlistTopic(t *testing.T) {
	pub := &fakePublisher{}
	p := NewProducer(pub, testBreaker("wishlist-topic"), logger.Discard())

	require.NoError(t, p.PublishCollectionUpdated(context.Background(), "s", "clear", domain.OutcomeCleared,
		domain.NewCollection(domain.KindWishlist)))

	require.Len(t, pub.sent, 1)
	assert.Equal(t, TopicWishlistUpdated, pub.sent[0].topic)
}

func TestPublishCheckedOut(t *testing.T) {
	pub := &fakePublisher{}
	p := NewProducer(pub, testBreaker("checkout"), logger.Discard())

	items := []domain.LineItem{{ProductID: "2", Price: 12499, Quantity: 2}}
	require.NoError(t, p.PublishCheckedOut(context.Background(), "s", "r-1", items, 24998))

	var data CheckedOutData
	require.NoError(t, pub.sent[0].event.UnmarshalData(&data))
	assert.Equal(t, TopicCartCheckedOut, pub.sent[0].topic)
	assert.Equal(t, "r-1", data.ReceiptID)
	assert.Equal(t, 2, data.ItemCount)
	assert.Equal(t, int64(24998), data.Total)
}

func TestProducer_BreakerOpensAfterFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("kafka: broker not available")}
	p := NewProducer(pub, testBreaker("trip"), logger.Discard())
	c := domain.NewCollection(domain.KindCart)

	for i := 0; i < 2; i++ {
		err := p.PublishCollectionUpdated(context.Background(), "s", "add", domain.OutcomeAdded, c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker not available")
	}
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.PublishCollectionUpdated(context.Background(), "s", "add", domain.OutcomeAdded, c)
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 2, pub.hits, "open breaker must not reach the publisher")
}

func TestNoop(t *testing.T) {
	var n Noop
	assert.NoError(t, n.PublishCollectionUpdated(context.Background(), "s", "add", domain.OutcomeAdded, domain.NewCollection(domain.KindCart)))
	assert.NoError(t, n.PublishCheckedOut(context.Background(), "s", "r", nil, 0))
}
