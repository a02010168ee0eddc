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

// RatingHandler handles HTTP requests for the store rating badge and the
// admin cache operations.
type RatingHandler struct {
	ratings       *service.RatingService
	reviews       *service.ReviewService
	schemaEnabled bool
	logger        *slog.Logger
}

// NewRatingHandler creates a new rating HTTP handler.
func NewRatingHandler(ratings *service.RatingService, reviews *service.ReviewService, schemaEnabled bool, logger *slog.Logger) *RatingHandler {
	return &RatingHandler{
		ratings:       ratings,
		reviews:       reviews,
		schemaEnabled: schemaEnabled,
		logger:        logger,
	}
}

// GetRating handles GET /api/v1/stores/{storeID}/rating
// @Summary Store rating badge
// @Description Returns the aggregate store rating, served from cache when
// @Description possible. A store without a rating yields a null rating and
// @Description no structured data, still with HTTP 200.
// @Tags rating
// @Produce json
// @Param storeID path int true "Store view id (0 = default store)"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/stores/{storeID}/rating [get]
func (h *RatingHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	storeID, ok := parseStoreID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	pc := schema.NewPageContext(h.schemaEnabled)

	storeID, err := h.reviews.ResolveStoreID(storeID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	rating, err := h.ratings.StoreRating(ctx, storeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		// Display path: a broken badge must not break the page.
		h.logger.ErrorContext(ctx, "store rating degraded to empty",
			slog.Int64("store_id", storeID),
			slog.String("error", err.Error()),
		)
		rating = nil
	}

	payload := map[string]any{
		"rating": rating,
	}
	if block := badgeSchema(pc, rating); block != nil {
		payload["schema"] = block
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: payload})
}

// badgeSchema builds the AggregateRating block and marks it emitted. Returns
// nil when emission is not allowed or there is no rating to describe.
func badgeSchema(pc *schema.PageContext, rating *domain.StoreRating) *schema.AggregateRating {
	if !pc.ShouldGenerate(schema.KindBadge) {
		return nil
	}
	block := schema.NewAggregateRating(rating)
	if block == nil {
		return nil
	}
	pc.MarkBadgeGenerated()
	return block
}

// ClearCache handles DELETE /api/v1/stores/{storeID}/rating/cache
// @Summary Invalidate one store's cached rating
// @Tags rating
// @Param storeID path int true "Store view id"
// @Success 204
// @Router /api/v1/stores/{storeID}/rating/cache [delete]
func (h *RatingHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	storeID, ok := parseStoreID(w, r)
	if !ok {
		return
	}

	storeID, err := h.reviews.ResolveStoreID(storeID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.ratings.ClearCache(r.Context(), storeID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearAllCaches handles DELETE /api/v1/rating/cache
// @Summary Invalidate every store's cached rating
// @Tags rating
// @Success 204
// @Router /api/v1/rating/cache [delete]
func (h *RatingHandler) ClearAllCaches(w http.ResponseWriter, r *http.Request) {
	if err := h.ratings.ClearAllCaches(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
