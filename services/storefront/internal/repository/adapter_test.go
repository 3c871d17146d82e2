package repository

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/NivraTech-Teams/Silk-Elegance/pkg/errors"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/logger"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/catalog"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/domain"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository/memory"
)

type failingKV struct {
	getErr error
	setErr error
}

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.getErr }
func (f failingKV) Set(context.Context, string, []byte) error   { return f.setErr }

func newAdapter(t *testing.T) (*Adapter, *memory.Store, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	store := memory.New()
	return NewAdapter(store, logger.NewWithWriter("storefront-test", "debug", &buf)), store, &buf
}

func mustLoad(t *testing.T, a *Adapter, key string, kind domain.Kind) *domain.Collection {
	t.Helper()
	c, err := a.Load(context.Background(), key, kind)
	require.NoError(t, err)
	return c
}

func TestKey(t *testing.T) {
	assert.Equal(t, "abc:sareeCart", Key("abc", domain.KindCart))
	assert.Equal(t, "abc:sareeWishlist", Key("abc", domain.KindWishlist))
}

func TestAdapter_RoundTrip(t *testing.T) {
	a, _, _ := newAdapter(t)
	ctx := context.Background()
	cat := catalog.Default()

	c := domain.NewCollection(domain.KindCart)
	for _, id := range []string{"7", "2", "7", "9"} {
		p, _ := cat.Lookup(id)
		c.Add(p)
	}

	require.NoError(t, a.Save(ctx, "s:sareeCart", c))
	loaded := mustLoad(t, a, "s:sareeCart", domain.KindCart)

	assert.Equal(t, c.Items(), loaded.Items())
	assert.Equal(t, c.TotalPrice(), loaded.TotalPrice())
}

func TestAdapter_SaveEmptyWritesArray(t *testing.T) {
	a, store, _ := newAdapter(t)
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, "s:sareeWishlist", domain.NewCollection(domain.KindWishlist)))

	raw, err := store.Get(ctx, "s:sareeWishlist")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestAdapter_PersistedLayout(t *testing.T) {
	a, store, _ := newAdapter(t)
	ctx := context.Background()
	p, _ := catalog.Default().Lookup("3")

	w := domain.NewCollection(domain.KindWishlist)
	w.Add(p)
	require.NoError(t, a.Save(ctx, "s:sareeWishlist", w))

	raw, _ := store.Get(ctx, "s:sareeWishlist")
	assert.JSONEq(t, `[{"id":"3","name":"Chanderi Cotton Saree","price":4999,"image":"`+p.Image+`","quantity":1}]`, string(raw))
}

func TestAdapter_LoadMissingKeyIsEmpty(t *testing.T) {
	a, _, buf := newAdapter(t)

	c := mustLoad(t, a, "new:sareeCart", domain.KindCart)

	assert.Zero(t, c.Len())
	assert.Equal(t, domain.KindCart, c.Kind())
	assert.Empty(t, buf.String(), "a missing key is not worth a log line")
}

func TestAdapter_LoadCorruptIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"object", `{"id":"1"}`},
		{"null", `null`},
		{"string", `"hello"`},
		{"array of numbers", `[1,2,3]`},
		{"entry without id", `[{"name":"x","quantity":1}]`},
		{"zero quantity", `[{"id":"1","quantity":0}]`},
		{"fractional price", `[{"id":"1","price":12.5,"quantity":1}]`},
		{"duplicate ids", `[{"id":"1","quantity":1},{"id":"1","quantity":2}]`},
		{"null entry", `[null]`},
		{"quantity above limit", `[{"id":"1","price":8999,"quantity":1000}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, store, buf := newAdapter(t)
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, "s:sareeCart", []byte(tt.raw)))

			c := mustLoad(t, a, "s:sareeCart", domain.KindCart)

			assert.Zero(t, c.Len())
			assert.Contains(t, buf.String(), "stored collection is corrupt")
			assert.Contains(t, buf.String(), `"level":"WARN"`)
		})
	}
}

func TestAdapter_CorruptionIsPerKey(t *testing.T) {
	a, store, _ := newAdapter(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s:sareeCart", []byte(`garbage`)))
	require.NoError(t, store.Set(ctx, "s:sareeWishlist", []byte(`[{"id":"5","name":"Bridal Silk Saree","price":15999,"image":"","quantity":1}]`)))

	assert.Zero(t, mustLoad(t, a, "s:sareeCart", domain.KindCart).Len())
	assert.True(t, mustLoad(t, a, "s:sareeWishlist", domain.KindWishlist).Contains("5"))
}

func TestAdapter_LoadBackendErrorIsReturned(t *testing.T) {
	var buf bytes.Buffer
	a := NewAdapter(failingKV{getErr: errors.New("connection refused")}, logger.NewWithWriter("t", "info", &buf))

	c, err := a.Load(context.Background(), "s:sareeCart", domain.KindCart)

	require.Error(t, err)
	assert.Nil(t, c)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func TestAdapter_LoadCanceledContextIsReturned(t *testing.T) {
	a := NewAdapter(failingKV{getErr: context.Canceled}, logger.Discard())

	_, err := a.Load(context.Background(), "s:sareeCart", domain.KindCart)

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAdapter_SaveBackendError(t *testing.T) {
	a := NewAdapter(failingKV{setErr: errors.New("disk full")}, logger.Discard())

	err := a.Save(context.Background(), "s:sareeCart", domain.NewCollection(domain.KindCart))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestDecode_WishlistQuantityNormalised(t *testing.T) {
	c, err := Decode([]byte(`[{"id":"2","quantity":3}]`), domain.KindWishlist)
	require.NoError(t, err)
	assert.Equal(t, 1, c.TotalItemCount())
}
