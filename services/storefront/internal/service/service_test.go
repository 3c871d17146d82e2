package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NivraTech-Teams/Silk-Elegance/pkg/errors"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/catalog"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/notify"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository/memory"
)

// --- Mock Store ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context, key string, kind domain.Kind) (*domain.Collection, error) {
	args := m.Called(ctx, key, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Collection), args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, key string, c *domain.Collection) error {
	args := m.Called(ctx, key, c)
	return args.Error(0)
}

// --- Flaky KV ---

// flakyKV fails the next failGets reads and every write to failSetKey.
// Reads honour context cancellation like the network backends do.
type flakyKV struct {
	*memory.Store

	mu         sync.Mutex
	failGets   int
	failSetKey string
	gets       map[string]int
}

func newFlakyKV(kv *memory.Store) *flakyKV {
	return &flakyKV{Store: kv, gets: make(map[string]int)}
}

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.gets[key]++
	if f.failGets > 0 {
		f.failGets--
		f.mu.Unlock()
		return nil, errors.New("connection reset by peer")
	}
	f.mu.Unlock()
	return f.Store.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := key == f.failSetKey
	f.mu.Unlock()
	if fail {
		return errors.New("connection reset by peer")
	}
	return f.Store.Set(ctx, key, value)
}

func (f *flakyKV) getCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets[key]
}

func (f *flakyKV) setFailSetKey(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSetKey = key
}

// --- Recording publisher ---

type published struct {
	sessionID string
	operation string
	outcome   domain.Outcome
	kind      domain.Kind
	count     int
}

type recordingEvents struct {
	mu        sync.Mutex
	updates   []published
	checkouts []int64
	err       error
}

func (r *recordingEvents) PublishCollectionUpdated(_ context.Context, sessionID, operation string, outcome domain.Outcome, c *domain.Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, published{sessionID, operation, outcome, c.Kind(), c.TotalItemCount()})
	return r.err
}

func (r *recordingEvents) PublishCheckedOut(_ context.Context, _, _ string, _ []domain.LineItem, total int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkouts = append(r.checkouts, total)
	return r.err
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fixture struct {
	kv       *memory.Store
	events   *recordingEvents
	sessions *Sessions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOver(t, func(kv *memory.Store) repository.KV { return kv })
}

// newFixtureOver builds a fixture whose sessions read and write through wrap(kv).
func newFixtureOver(t *testing.T, wrap func(*memory.Store) repository.KV) *fixture {
	t.Helper()
	kv := memory.New()
	events := &recordingEvents{}
	sessions := NewSessions(Deps{
		Store:   repository.NewAdapter(wrap(kv), newTestLogger()),
		Catalog: catalog.Default(),
		Events:  events,
		Logger:  newTestLogger(),
	}, time.Minute)
	t.Cleanup(sessions.Close)
	return &fixture{kv: kv, events: events, sessions: sessions}
}

func (f *fixture) session(t *testing.T, id string) *Session {
	t.Helper()
	sess, err := f.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	return sess
}

func messages(c *notify.Center) []string {
	var out []string
	for _, n := range c.Active() {
		out = append(out, n.Message)
	}
	return out
}

// --- Cart ---

func TestCart_AddTwiceIncrementsAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.session(t, "s1")

	res, err := sess.Cart.Add(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAdded, res.Outcome)

	res, err = sess.Cart.Add(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeIncremented, res.Outcome)
	assert.Equal(t, int64(17998), res.View.Total)
	assert.Equal(t, 2, res.View.Badge.Count)
	require.Len(t, res.View.Items, 1)
	assert.Equal(t, 2, res.View.Items[0].Quantity)

	raw, err := f.kv.Get(ctx, "s1:sareeCart")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","name":"Banarasi Silk Saree","price":8999,"image":"`+res.View.Items[0].Image+`","quantity":2}]`, string(raw))

	assert.Equal(t, []string{
		"Banarasi Silk Saree added to cart!",
		"Banarasi Silk Saree added to cart!",
	}, messages(sess.Notifications))
	assert.Len(t, f.events.updates, 2)
}

func TestCart_AddUnknownProductIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.session(t, "s1")

	res, err := sess.Cart.Add(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNotFound, res.Outcome)
	assert.True(t, res.View.Empty)
	assert.Empty(t, f.events.updates)
	assert.Empty(t, sess.Notifications.Active())

	_, err = f.kv.Get(ctx, "s1:sareeCart")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestCart_QuantityControls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart := f.session(t, "s1").Cart

	_, err := cart.Add(ctx, "3")
	require.NoError(t, err)

	res, err := cart.Increment(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, res.Outcome)
	assert.Equal(t, 2, res.View.Badge.Count)

	res, err = cart.SetQuantity(ctx, "3", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5*4999), res.View.Total)

	res, err = cart.SetQuantity(ctx, "3", 5)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnchanged, res.Outcome)

	res, err = cart.SetQuantity(ctx, "3", 1)
	require.NoError(t, err)
	res, err = cart.Decrement(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRemoved, res.Outcome)
	assert.True(t, res.View.Empty)
	assert.False(t, res.View.Badge.Visible)

	res, err = cart.Increment(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAbsent, res.Outcome)
}

func TestCart_RemoveAndClear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart := f.session(t, "s1").Cart

	for _, id := range []string{"1", "2", "3"} {
		_, err := cart.Add(ctx, id)
		require.NoError(t, err)
	}

	res, err := cart.Remove(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRemoved, res.Outcome)
	require.Len(t, res.View.Items, 2)
	assert.Equal(t, "1", res.View.Items[0].ProductID)
	assert.Equal(t, "3", res.View.Items[1].ProductID)

	res, err = cart.Remove(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAbsent, res.Outcome)

	res, err = cart.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, res.View.Empty)

	raw, err := f.kv.Get(ctx, "s1:sareeCart")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

func TestCart_Checkout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.session(t, "s1")

	_, err := sess.Cart.Checkout(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = sess.Cart.Add(ctx, "1")
	require.NoError(t, err)
	_, err = sess.Cart.Add(ctx, "6")
	require.NoError(t, err)

	receipt, err := sess.Cart.Checkout(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, int64(8999+3499), receipt.Total)
	assert.Equal(t, 2, receipt.ItemCount)
	assert.Len(t, receipt.Items, 2)

	assert.True(t, sess.Cart.View().Empty)
	assert.Equal(t, []int64{12498}, f.events.checkouts)
	assert.Contains(t, messages(sess.Notifications), "Thank you for your order! Total: ₹12,498")
}

func TestCart_SaveFailureRollsBack(t *testing.T) {
	store := new(mockStore)
	store.On("Load", mock.Anything, "s1:sareeCart", domain.KindCart).Return(domain.NewCollection(domain.KindCart), nil)
	store.On("Save", mock.Anything, "s1:sareeCart", mock.Anything).Return(errors.New("disk full"))

	events := &recordingEvents{}
	deps := Deps{Store: store, Catalog: catalog.Default(), Events: events, Logger: newTestLogger()}
	notes := notify.NewCenter(time.Minute)
	defer notes.Close()
	cart, err := newCart(context.Background(), deps, "s1", notes)
	require.NoError(t, err)

	_, err = cart.Add(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	assert.True(t, cart.View().Empty)
	assert.Empty(t, events.updates)
	assert.Empty(t, notes.Active())
	store.AssertExpectations(t)
}

func TestCart_PublishFailureKeepsChange(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	ctx := context.Background()
	cart := f.session(t, "s1").Cart

	res, err := cart.Add(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAdded, res.Outcome)
	assert.Equal(t, 1, cart.View().Badge.Count)
}

// --- Wishlist ---

func TestWishlist_ToggleAddsThenRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.session(t, "s1")

	res, err := sess.Wishlist.Toggle(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAdded, res.Outcome)
	assert.Equal(t, 1, res.View.Badge.Count)
	assert.Equal(t, map[string]bool{"3": true, "4": false}, sess.Wishlist.Marked([]string{"3", "4"}))

	raw, err := f.kv.Get(ctx, "s1:sareeWishlist")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"quantity":1`)

	res, err = sess.Wishlist.Toggle(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRemoved, res.Outcome)
	assert.True(t, res.View.Empty)
	assert.False(t, sess.Wishlist.Marked([]string{"3"})["3"])

	assert.Equal(t, []string{
		"Chanderi Cotton Saree added to wishlist!",
		"Chanderi Cotton Saree removed from wishlist!",
	}, messages(sess.Notifications))
}

func TestWishlist_AddIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wl := f.session(t, "s1").Wishlist

	_, err := wl.Add(ctx, "5")
	require.NoError(t, err)
	res, err := wl.Add(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnchanged, res.Outcome)
	assert.Equal(t, 1, res.View.Badge.Count)
	assert.Len(t, f.events.updates, 1)
}

func TestWishlist_ClearNotifiesOnlyWhenNonEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.session(t, "s1")

	_, err := sess.Wishlist.Clear(ctx)
	require.NoError(t, err)
	assert.Empty(t, sess.Notifications.Active())

	_, err = sess.Wishlist.Add(ctx, "1")
	require.NoError(t, err)
	_, err = sess.Wishlist.Clear(ctx)
	require.NoError(t, err)
	assert.Contains(t, messages(sess.Notifications), notify.WishlistCleared)
	assert.True(t, sess.Wishlist.View().Empty)
}

func TestWishlist_MoveToCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.session(t, "s1")

	res, err := sess.Wishlist.MoveToCart(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeAbsent, res.Outcome)
	assert.True(t, sess.Cart.View().Empty)

	_, err = sess.Wishlist.Add(ctx, "2")
	require.NoError(t, err)
	res, err = sess.Wishlist.MoveToCart(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeRemoved, res.Outcome)
	assert.True(t, res.View.Empty)

	cart := sess.Cart.View()
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "2", cart.Items[0].ProductID)
	assert.Contains(t, messages(sess.Notifications), notify.MovedToCart)
}

func TestWishlist_MoveAllToCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.session(t, "s1")

	_, err := sess.Cart.Add(ctx, "1")
	require.NoError(t, err)
	for _, id := range []string{"1", "7", "9"} {
		_, err := sess.Wishlist.Add(ctx, id)
		require.NoError(t, err)
	}

	res, err := sess.Wishlist.MoveAllToCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCleared, res.Outcome)
	assert.True(t, res.View.Empty)

	cart := sess.Cart.View()
	assert.Equal(t, 4, cart.Badge.Count)
	assert.Equal(t, int64(2*8999+9999+11999), cart.Total)
	assert.Contains(t, messages(sess.Notifications), notify.AllMovedToCart)

	res, err = sess.Wishlist.MoveAllToCart(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnchanged, res.Outcome)
}

// --- Sessions ---

func TestSessions_HydrateFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, "s2:sareeCart", []byte(`[{"id":"4","name":"Designer Georgette","price":6499,"image":"x.jpg","quantity":3}]`)))
	require.NoError(t, f.kv.Set(ctx, "s2:sareeWishlist", []byte(`not json`)))

	sess := f.session(t, "s2")
	assert.Equal(t, 3, sess.Cart.View().Badge.Count)
	assert.Equal(t, int64(19497), sess.Cart.View().Total)
	assert.True(t, sess.Wishlist.View().Empty)

	assert.Same(t, sess, f.session(t, "s2"))
	assert.Equal(t, 1, f.sessions.Len())
}

func TestSessions_AreIsolated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.session(t, "a").Cart.Add(ctx, "1")
	require.NoError(t, err)
	assert.True(t, f.session(t, "b").Cart.View().Empty)
}

func TestSessions_EvictReloadsFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	f.sessions.now = func() time.Time { return now }

	_, err := f.session(t, "s1").Cart.Add(ctx, "8")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	assert.Equal(t, 1, f.sessions.Evict(30*time.Minute))
	assert.Equal(t, 0, f.sessions.Len())

	sess := f.session(t, "s1")
	assert.Equal(t, int64(7499), sess.Cart.View().Total)
}

func TestCart_ConcurrentAdds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart := f.session(t, "s1").Cart

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cart.Add(ctx, "9")
		}()
	}
	wg.Wait()

	v := cart.View()
	require.Len(t, v.Items, 1)
	assert.Equal(t, 50, v.Items[0].Quantity)
}

func TestCart_SetQuantityAboveMaxIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart := f.session(t, "s1").Cart

	_, err := cart.Add(ctx, "5")
	require.NoError(t, err)

	_, err = cart.SetQuantity(ctx, "5", 1_000_000_000_000_000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, int64(15999), cart.View().Total)

	raw, err := f.kv.Get(ctx, "s1:sareeCart")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"quantity":1}`)
}

func TestCart_IncrementAndAddStopAtMaxQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cart := f.session(t, "s1").Cart

	_, err := cart.Add(ctx, "3")
	require.NoError(t, err)
	_, err = cart.SetQuantity(ctx, "3", domain.MaxQuantity)
	require.NoError(t, err)

	res, err := cart.Increment(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnchanged, res.Outcome)

	res, err = cart.Add(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUnchanged, res.Outcome)

	assert.Equal(t, domain.MaxQuantity, cart.View().Badge.Count)
	assert.Equal(t, int64(domain.MaxQuantity)*4999, cart.View().Total)
}

func TestWishlist_MoveToCartRestoresCartWhenWishlistSaveFails(t *testing.T) {
	var kv *flakyKV
	f := newFixtureOver(t, func(m *memory.Store) repository.KV {
		kv = newFlakyKV(m)
		return kv
	})
	ctx := context.Background()
	sess := f.session(t, "s1")

	_, err := sess.Wishlist.Add(ctx, "2")
	require.NoError(t, err)
	kv.setFailSetKey("s1:sareeWishlist")

	_, err = sess.Wishlist.MoveToCart(ctx, "2")
	require.Error(t, err)

	assert.True(t, sess.Cart.View().Empty)
	assert.Equal(t, 1, sess.Wishlist.View().Badge.Count)
	raw, err := f.kv.Get(ctx, "s1:sareeCart")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
	assert.NotContains(t, messages(sess.Notifications), notify.MovedToCart)
}

func TestWishlist_MoveAllToCartRestoresCartWhenWishlistSaveFails(t *testing.T) {
	var kv *flakyKV
	f := newFixtureOver(t, func(m *memory.Store) repository.KV {
		kv = newFlakyKV(m)
		return kv
	})
	ctx := context.Background()
	sess := f.session(t, "s1")

	_, err := sess.Cart.Add(ctx, "1")
	require.NoError(t, err)
	for _, id := range []string{"1", "7"} {
		_, err := sess.Wishlist.Add(ctx, id)
		require.NoError(t, err)
	}
	kv.setFailSetKey("s1:sareeWishlist")

	_, err = sess.Wishlist.MoveAllToCart(ctx)
	require.Error(t, err)

	cart := sess.Cart.View()
	assert.Equal(t, 1, cart.Badge.Count)
	assert.Equal(t, int64(8999), cart.Total)
	assert.Equal(t, 2, sess.Wishlist.View().Badge.Count)

	raw, err := f.kv.Get(ctx, "s1:sareeCart")
	require.NoError(t, err)
	var stored []domain.LineItem
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "1", stored[0].ProductID)
	assert.Equal(t, 1, stored[0].Quantity)
}

func TestSessions_LoadFailureIsNotCached(t *testing.T) {
	var kv *flakyKV
	f := newFixtureOver(t, func(m *memory.Store) repository.KV {
		kv = newFlakyKV(m)
		return kv
	})
	ctx := context.Background()
	require.NoError(t, f.kv.Set(ctx, "s1:sareeCart", []byte(
		`[{"id":"1","name":"Banarasi Silk Saree","price":8999,"image":"a.jpg","quantity":2},`+
			`{"id":"2","name":"Kanjivaram Silk","price":12499,"image":"b.jpg","quantity":1}]`)))
	kv.failGets = 1

	_, err := f.sessions.Get(ctx, "s1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
	assert.Equal(t, 0, f.sessions.Len())

	cart := f.session(t, "s1").Cart
	assert.Equal(t, 3, cart.View().Badge.Count)

	_, err = cart.Add(ctx, "3")
	require.NoError(t, err)

	raw, err := f.kv.Get(ctx, "s1:sareeCart")
	require.NoError(t, err)
	var stored []domain.LineItem
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 3)
	total := 0
	for _, li := range stored {
		total += li.Quantity
	}
	assert.Equal(t, 4, total)
}

func TestSessions_CanceledRequestStillHydrates(t *testing.T) {
	f := newFixtureOver(t, func(m *memory.Store) repository.KV { return newFlakyKV(m) })
	require.NoError(t, f.kv.Set(context.Background(), "s1:sareeWishlist", []byte(
		`[{"id":"4","name":"Designer Georgette","price":6499,"image":"x.jpg","quantity":1}]`)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Wishlist.View().Badge.Count)
}

func TestSessions_ConcurrentGetSharesOneLoad(t *testing.T) {
	var kv *flakyKV
	f := newFixtureOver(t, func(m *memory.Store) repository.KV {
		kv = newFlakyKV(m)
		return kv
	})

	const n = 20
	got := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := f.sessions.Get(context.Background(), "s1")
			if err == nil {
				got[i] = sess
			}
		}(i)
	}
	wg.Wait()

	for _, sess := range got {
		require.NotNil(t, sess)
		assert.Same(t, got[0], sess)
	}
	assert.Equal(t, 1, kv.getCount("s1:sareeCart"))
	assert.Equal(t, 1, f.sessions.Len())
}

func TestSessions_OtherSessionsServedWhileOneLoads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.session(t, "warm")

	release := make(chan struct{})
	blocked := &blockingKV{KV: memory.New(), release: release}
	f.sessions.deps.Store = repository.NewAdapter(blocked, newTestLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.sessions.Get(ctx, "cold")
	}()

	select {
	case <-blocked.entered():
	case <-time.After(time.Second):
		t.Fatal("load never started")
	}

	served := make(chan struct{})
	go func() {
		defer close(served)
		_, _ = f.sessions.Get(ctx, "warm")
		_ = f.sessions.Len()
	}()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("registry blocked by an in-flight load")
	}

	close(release)
	<-done
	assert.Equal(t, 2, f.sessions.Len())
}

// blockingKV holds every read until release is closed.
type blockingKV struct {
	repository.KV
	release chan struct{}

	once  sync.Once
	enter chan struct{}
	mu    sync.Mutex
}

func (b *blockingKV) entered() chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.enter == nil {
		b.enter = make(chan struct{})
	}
	return b.enter
}

func (b *blockingKV) Get(ctx context.Context, key string) ([]byte, error) {
	ch := b.entered()
	b.once.Do(func() { close(ch) })
	<-b.release
	return b.KV.Get(ctx, key)
}
