package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront-reviews/internal/domain"
	"github.com/utafrali/storefront-reviews/internal/schema"
	"github.com/utafrali/storefront-reviews/internal/service"
	apperrors "github.com/utafrali/storefront-reviews/pkg/errors"
	"github.com/utafrali/storefront-reviews/pkg/httputil"
)

// PageHandler renders the rating badge and the review listing as one page,
// sharing a single structured-data context so each JSON-LD block is emitted
// at most once however many widgets the page carries.
type PageHandler struct {
	ratings       *service.RatingService
	reviews       *service.ReviewService
	schemaEnabled bool
	lazyLoad      bool
	logger        *slog.Logger
}

// NewPageHandler creates a new combined page HTTP handler.
func NewPageHandler(ratings *service.RatingService, reviews *service.ReviewService, schemaEnabled, lazyLoad bool, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		ratings:       ratings,
		reviews:       reviews,
		schemaEnabled: schemaEnabled,
		lazyLoad:      lazyLoad,
		logger:        logger,
	}
}

// GetPage handles GET /api/v1/stores/{storeID}/page
// @Summary Combined review widgets
// @Description Renders the rating badge and the filtered review listing with
// @Description one shared structured-data context per request.
// @Tags page
// @Produce json
// @Param storeID path int true "Store view id (0 = default store)"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/stores/{storeID}/page [get]
func (h *PageHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	storeID, ok := parseStoreID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()

	storeID, err := h.reviews.ResolveStoreID(storeID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// One context for the whole page render.
	pc := schema.NewPageContext(h.schemaEnabled)

	// Badge widget.
	rating, err := h.ratings.StoreRating(ctx, storeID)
	if err != nil && !errors.Is(err, apperrors.ErrInvalidInput) {
		h.logger.ErrorContext(ctx, "store rating degraded to empty",
			slog.Int64("store_id", storeID),
			slog.String("error", err.Error()),
		)
		rating = nil
	}

	badge := map[string]any{
		"rating": rating,
	}
	if block := badgeSchema(pc, rating); block != nil {
		badge["schema"] = block
	}

	// Listing widget.
	reviews, err := h.reviews.ListReviews(ctx, storeID, r.URL.Query())
	if err != nil && !errors.Is(err, apperrors.ErrInvalidInput) {
		h.logger.ErrorContext(ctx, "review listing degraded to empty",
			slog.Int64("store_id", storeID),
			slog.String("error", err.Error()),
		)
		reviews = []domain.Review{}
	}

	count, err := h.reviews.CountReviews(ctx, storeID)
	if err != nil && !errors.Is(err, apperrors.ErrInvalidInput) {
		count = len(reviews)
	}

	listing := map[string]any{
		"reviews":     reviews,
		"total_count": count,
	}
	if itemList := reviewListSchema(pc, reviews); itemList != nil {
		listing["schema"] = itemList
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]any{
		"badge":     badge,
		"listing":   listing,
		"lazy_load": h.lazyLoad,
	}})
}
