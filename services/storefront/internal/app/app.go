package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/NivraTech-Teams/Silk-Elegance/pkg/database"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/health"
	pkgkafka "github.com/NivraTech-Teams/Silk-Elegance/pkg/kafka"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/middleware"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/tracing"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/catalog"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/config"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/event"
	handler "github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/handler/http"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository/memory"
	pgrepo "github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository/postgres"
	redisrepo "github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository/redis"
	sqliterepo "github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/repository/sqlite"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/service"
)

const (
	// sessionIdleTimeout is how long an untouched session stays hydrated.
	sessionIdleTimeout = 30 * time.Minute
	janitorInterval    = 5 * time.Minute
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	sessions   *service.Sessions
	producer   *pkgkafka.Producer
	httpServer *http.Server

	shutdownTracer func(context.Context) error
	closers        []func() error
}

// backend is an opened key-value store with its lifecycle hooks.
type backend struct {
	kv    repository.KV
	ping  health.Checker
	close func() error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tcfg := tracing.DefaultConfig("storefront-service")
	tcfg.Environment = cfg.Environment
	tcfg.OTLPEndpoint = cfg.OTLPEndpoint
	tcfg.SampleRate = cfg.OTELSampleRate
	tcfg.Enabled = cfg.TracingEnabled
	shutdownTracer, err := tracing.InitTracer(ctx, tcfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	database.SetSlowOpLogging(cfg.SlowStoreOp, logger)

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return nil, err
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		shutdownTracer: shutdownTracer,
		closers:        []func() error{store.close},
	}

	healthHandler := health.NewHandler()
	if store.ping != nil {
		healthHandler.Register(cfg.StoreBackend, store.ping)
	}

	var events service.EventPublisher = event.Noop{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, event.DefaultBreakerConfig(), logger)
		healthHandler.Register("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	a.sessions = service.NewSessions(service.Deps{
		Store:   repository.NewAdapter(store.kv, logger),
		Catalog: catalog.Default(),
		Events:  events,
		Logger:  logger,
	}, cfg.NotifyTTL)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSOrigins
	cors.Environment = cfg.Environment

	router := handler.NewRouter(a.sessions, catalog.Default(), healthHandler, logger, handler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		CORS:           cors,
		PprofCIDRs:     cfg.PprofCIDRs,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (backend, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return backend{}, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Int("db", cfg.RedisDB),
		)
		store := redisrepo.New(rdb, cfg.StoreTTLDuration())
		return backend{kv: store, ping: store.Ping, close: rdb.Close}, nil

	case config.BackendSQLite:
		store, err := sqliterepo.Open(cfg.SQLitePath)
		if err != nil {
			return backend{}, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("opened SQLite store", slog.String("path", cfg.SQLitePath))
		return backend{kv: store, ping: store.Ping, close: store.Close}, nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPassword,
			DBName:   cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSLMode,
			MaxConns: 10,
		}, logger)
		if err != nil {
			return backend{}, fmt.Errorf("connect to postgres: %w", err)
		}
		store := pgrepo.New(pool)
		if err := store.Migrate(ctx, logger); err != nil {
			pool.Close()
			return backend{}, fmt.Errorf("migrate postgres store: %w", err)
		}
		return backend{kv: store, ping: store.Ping, close: func() error { pool.Close(); return nil }}, nil

	default:
		logger.Warn("using in-memory store, state is lost on restart")
		return backend{kv: memory.New(), close: func() error { return nil }}, nil
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("store_backend", a.cfg.StoreBackend),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go a.evictIdleSessions(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// evictIdleSessions drops idle sessions from memory until ctx is done.
func (a *App) evictIdleSessions(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.Evict(sessionIdleTimeout); n > 0 {
				a.logger.Debug("evicted idle sessions",
					slog.Int("evicted", n),
					slog.Int("remaining", a.sessions.Len()),
				)
			}
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.sessions.Close()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Error("store close error", slog.String("error", err.Error()))
		}
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
