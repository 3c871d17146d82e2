package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NivraTech-Teams/Silk-Elegance/pkg/logger"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/config"
)

func TestOpenBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name     string
		cfg      config.Config
		wantPing bool
	}{
		{"memory", config.Config{StoreBackend: config.BackendMemory}, false},
		{"redis", config.Config{StoreBackend: config.BackendRedis, RedisAddr: mr.Addr()}, true},
		{"sqlite", config.Config{StoreBackend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "store.db")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			b, err := openBackend(ctx, &tt.cfg, logger.Discard())
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.close() })

			require.NoError(t, b.kv.Set(ctx, "s1:sareeCart", []byte(`[]`)))
			got, err := b.kv.Get(ctx, "s1:sareeCart")
			require.NoError(t, err)
			assert.JSONEq(t, `[]`, string(got))

			if tt.wantPing {
				require.NotNil(t, b.ping)
				assert.NoError(t, b.ping(ctx))
			} else {
				assert.Nil(t, b.ping)
			}
		})
	}
}

func TestOpenBackend_RedisUnreachable(t *testing.T) {
	cfg := &config.Config{StoreBackend: config.BackendRedis, RedisAddr: "127.0.0.1:1"}
	_, err := openBackend(context.Background(), cfg, logger.Discard())
	assert.Error(t, err)
}
