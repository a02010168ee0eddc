package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront-reviews/internal/domain"
	"github.com/utafrali/storefront-reviews/internal/schema"
	"github.com/utafrali/storefront-reviews/internal/service"
	apperrors "github.com/utafrali/storefront-reviews/pkg/errors"
	"github.com/utafrali/storefront-reviews/pkg/httputil"
	"github.com/utafrali/storefront-reviews/pkg/validator"
)

// ReviewHandler handles HTTP requests for review listing and submission.
type ReviewHandler struct {
	reviews       *service.ReviewService
	schemaEnabled bool
	logger        *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews *service.ReviewService, schemaEnabled bool, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews:       reviews,
		schemaEnabled: schemaEnabled,
		logger:        logger,
	}
}

// parseStoreID reads the {storeID} path parameter. Zero is allowed and means
// "the default store"; non-numeric input is a client error.
func parseStoreID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "storeID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "invalid store id: " + raw},
		})
		return 0, false
	}
	return id, true
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for submitting a review.
type CreateReviewRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Nickname  string `json:"nickname" validate:"required,max=128"`
	Title     string `json:"title" validate:"max=255"`
	Body      string `json:"body" validate:"required,max=10000"`
	Ratings   []int  `json:"ratings" validate:"required,min=1,dive,min=1,max=5"`
}

// ModerateReviewRequest is the JSON request body for moderating a review.
type ModerateReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/stores/{storeID}/reviews
// @Summary List store reviews
// @Description Returns filtered approved reviews for a store. Invalid filter
// @Description values are ignored and the configured defaults apply instead.
// @Tags reviews
// @Produce json
// @Param storeID path int true "Store view id (0 = default store)"
// @Param min_rating query number false "Minimum average rating (1.0-5.0)"
// @Param min_chars query int false "Minimum body length (0-10000)"
// @Param page_size query int false "Listing cap (1-100)"
// @Param category_id query int false "Restrict to products of a category"
// @Param days_ago query int false "Recency window in days (1-3650)"
// @Param sort_order query string false "recent, rating or random"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/stores/{storeID}/reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	storeID, ok := parseStoreID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	pc := schema.NewPageContext(h.schemaEnabled)

	reviews, err := h.reviews.ListReviews(ctx, storeID, r.URL.Query())
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		// Display path: infrastructure failures degrade to an empty widget
		// instead of breaking the page.
		h.logger.ErrorContext(ctx, "review listing degraded to empty",
			slog.Int64("store_id", storeID),
			slog.String("error", err.Error()),
		)
		reviews = []domain.Review{}
	}

	count, err := h.reviews.CountReviews(ctx, storeID)
	if err != nil && !errors.Is(err, apperrors.ErrInvalidInput) {
		h.logger.ErrorContext(ctx, "review count degraded",
			slog.Int64("store_id", storeID),
			slog.String("error", err.Error()),
		)
		count = len(reviews)
	}

	payload := map[string]any{
		"reviews":     reviews,
		"total_count": count,
	}
	if itemList := reviewListSchema(pc, reviews); itemList != nil {
		payload["schema"] = itemList
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: payload})
}

// reviewListSchema builds the ItemList block for a listing and marks it
// emitted on the page context. Returns nil when the block may not be emitted
// or there is nothing to emit.
func reviewListSchema(pc *schema.PageContext, reviews []domain.Review) *schema.ItemList {
	if !pc.ShouldGenerate(schema.KindReviews) {
		return nil
	}
	for i := range reviews {
		pc.AddToCombined(schema.EntryFromReview(&reviews[i]))
	}
	list := schema.NewItemList(pc.Combined())
	if list == nil {
		return nil
	}
	pc.MarkReviewsGenerated()
	return list
}

// CreateReview handles POST /api/v1/stores/{storeID}/reviews
// @Summary Submit a review
// @Description Creates a review in pending status together with its ratings.
// @Tags reviews
// @Accept json
// @Produce json
// @Param storeID path int true "Store view id (0 = default store)"
// @Param request body CreateReviewRequest true "Review to submit"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/stores/{storeID}/reviews [post]
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	storeID, ok := parseStoreID(w, r)
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), &service.CreateReviewInput{
		StoreID:   storeID,
		ProductID: req.ProductID,
		Nickname:  req.Nickname,
		Title:     req.Title,
		Body:      req.Body,
		Ratings:   req.Ratings,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// ModerateReview handles PATCH /api/v1/reviews/{reviewID}/status
// @Summary Moderate a review
// @Description Moves a review to pending, approved or rejected status.
// @Tags reviews
// @Accept json
// @Produce json
// @Param reviewID path string true "Review UUID"
// @Param request body ModerateReviewRequest true "New status"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{reviewID}/status [patch]
func (h *ReviewHandler) ModerateReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "reviewID"))
	if !ok {
		return
	}

	var req ModerateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	review, err := h.reviews.ModerateReview(r.Context(), reviewID.String(), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// DeleteReview handles DELETE /api/v1/reviews/{reviewID}
// @Summary Delete a review
// @Tags reviews
// @Param reviewID path string true "Review UUID"
// @Success 204
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{reviewID} [delete]
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, chi.URLParam(r, "reviewID"))
	if !ok {
		return
	}

	if err := h.reviews.DeleteReview(r.Context(), reviewID.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
