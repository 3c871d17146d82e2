package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NivraTech-Teams/Silk-Elegance/pkg/health"
	"github.com/NivraTech-Teams/Silk-Elegance/pkg/middleware"
	"github.com/NivraTech-Teams/Silk-Elegance/services/storefront/internal/service"
)

const serviceName = "storefront"

// catalogCacheSeconds is how long clients may cache catalog responses.
const catalogCacheSeconds = 300

// RouterConfig carries the transport settings the router needs.
type RouterConfig struct {
	RequestTimeout time.Duration
	CORS           middleware.CORSConfig
	PprofCIDRs     []string
	// RateLimitRPS and RateLimitBurst bound session routes per client IP.
	// Zero RPS disables the limit.
	RateLimitRPS   int
	RateLimitBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	sessions *service.Sessions,
	products Catalog,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	catalogHandler := NewCatalogHandler(products, logger)
	cartHandler := NewCartHandler(sessions, logger)
	wishlistHandler := NewWishlistHandler(sessions, logger)
	sessionHandler := NewSessionHandler(sessions, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/catalog", func(r chi.Router) {
			r.Use(middleware.CacheControl(catalogCacheSeconds))
			r.Get("/products", catalogHandler.ListProducts)
			r.Get("/products/{productId}", catalogHandler.GetProduct)
			r.Get("/search", catalogHandler.Search)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
			r.Use(middleware.NoStore)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/checkout", cartHandler.Checkout)

				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{productId}", cartHandler.SetQuantity)
				r.Post("/items/{productId}/increment", cartHandler.Increment)
				r.Post("/items/{productId}/decrement", cartHandler.Decrement)
				r.Delete("/items/{productId}", cartHandler.RemoveItem)
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", wishlistHandler.GetWishlist)
				r.Delete("/", wishlistHandler.ClearWishlist)
				r.Get("/marked", wishlistHandler.Marked)
				r.Post("/move-all-to-cart", wishlistHandler.MoveAllToCart)

				r.Post("/items", wishlistHandler.AddItem)
				r.Post("/items/{productId}/toggle", wishlistHandler.Toggle)
				r.Post("/items/{productId}/move-to-cart", wishlistHandler.MoveToCart)
				r.Delete("/items/{productId}", wishlistHandler.RemoveItem)
			})

			r.Get("/notifications", sessionHandler.ListNotifications)
			r.Delete("/notifications/{id}", sessionHandler.DismissNotification)
			r.Get("/pages/{page}", sessionHandler.GetPage)
		})
	})

	return r
}
