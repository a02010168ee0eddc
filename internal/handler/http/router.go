package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront-reviews/internal/config"
	"github.com/utafrali/storefront-reviews/internal/service"
	"github.com/utafrali/storefront-reviews/pkg/health"
	"github.com/utafrali/storefront-reviews/pkg/middleware"
)

// widgetCacheMaxAge is the Cache-Control max-age for the public widget
// endpoints, in seconds. Short-lived: the rating cache behind it already
// absorbs the recomputation cost.
const widgetCacheMaxAge = 60

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	ratingService *service.RatingService,
	healthHandler *health.Handler,
	cfg *config.Config,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("storefront-reviews"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints, gated by IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	reviewHandler := NewReviewHandler(reviewService, cfg.SchemaOrgEnabled, logger)
	ratingHandler := NewRatingHandler(ratingService, reviewService, cfg.SchemaOrgEnabled, logger)
	pageHandler := NewPageHandler(ratingService, reviewService, cfg.SchemaOrgEnabled, cfg.LazyLoadEnabled, logger)

	// Public widget endpoints.
	r.Route("/api/v1/stores/{storeID}", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.With(middleware.CacheControl(widgetCacheMaxAge)).Get("/reviews", reviewHandler.ListReviews)
		r.With(middleware.CacheControl(widgetCacheMaxAge)).Get("/rating", ratingHandler.GetRating)
		r.With(middleware.CacheControl(widgetCacheMaxAge)).Get("/page", pageHandler.GetPage)

		r.Post("/reviews", reviewHandler.CreateReview)
		r.Delete("/rating/cache", ratingHandler.ClearCache)
	})

	// Review administration.
	r.Route("/api/v1/reviews/{reviewID}", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Patch("/status", reviewHandler.ModerateReview)
		r.Delete("/", reviewHandler.DeleteReview)
	})

	// Bulk cache invalidation.
	r.Delete("/api/v1/rating/cache", ratingHandler.ClearAllCaches)

	return r
}
