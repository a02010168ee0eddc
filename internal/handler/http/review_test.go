package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-reviews/internal/domain"
	"github.com/utafrali/storefront-reviews/internal/event"
	"github.com/utafrali/storefront-reviews/internal/repository"
	"github.com/utafrali/storefront-reviews/internal/service"
	apperrors "github.com/utafrali/storefront-reviews/pkg/errors"
	"github.com/utafrali/storefront-reviews/pkg/httputil"
	pkgkafka "github.com/utafrali/storefront-reviews/pkg/kafka"
)

// --- Mock Repository ---

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) ApprovedByStore(ctx context.Context, storeID int64) ([]domain.Review, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepo) FilteredByStore(ctx context.Context, storeID int64, filter repository.ReviewFilter) ([]domain.Review, error) {
	args := m.Called(ctx, storeID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepo) CountApproved(ctx context.Context, storeID int64) (int, error) {
	args := m.Called(ctx, storeID)
	return args.Int(0), args.Error(1)
}

func (m *mockReviewRepo) Create(ctx context.Context, review *domain.Review, votePercents []int) error {
	args := m.Called(ctx, review, votePercents)
	return args.Error(0)
}

func (m *mockReviewRepo) UpdateStatus(ctx context.Context, reviewID, status string) (*domain.Review, error) {
	args := m.Called(ctx, reviewID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepo) Delete(ctx context.Context, reviewID string) (*domain.Review, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

// --- Mock Cache ---

type mockRatingCache struct {
	mock.Mock
}

func (m *mockRatingCache) Get(ctx context.Context, storeID int64) (*domain.StoreRating, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoreRating), args.Error(1)
}

func (m *mockRatingCache) Save(ctx context.Context, storeID int64, rating *domain.StoreRating) error {
	args := m.Called(ctx, storeID, rating)
	return args.Error(0)
}

func (m *mockRatingCache) Delete(ctx context.Context, storeID int64) error {
	args := m.Called(ctx, storeID)
	return args.Error(0)
}

func (m *mockRatingCache) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- Test Helpers ---

func widgetTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func widgetTestEventProducer() *event.Producer {
	logger := widgetTestLogger()
	// Create a Kafka producer that will fail silently in tests (no real broker).
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func widgetTestReviewService(repo *mockReviewRepo) *service.ReviewService {
	defaults := service.ReviewDefaults{PageSize: 10, StoreID: 1}
	return service.NewReviewService(repo, widgetTestEventProducer(), defaults, widgetTestLogger())
}

func widgetTestRatingService(repo *mockReviewRepo, cache *mockRatingCache) *service.RatingService {
	return service.NewRatingService(repo, cache, 1, widgetTestLogger())
}

// widgetRouter mounts the API routes the way the production router does,
// without the metrics and pprof plumbing.
func widgetRouter(repo *mockReviewRepo, cache *mockRatingCache, schemaEnabled, lazyLoad bool) *chi.Mux {
	reviews := widgetTestReviewService(repo)
	ratings := widgetTestRatingService(repo, cache)
	logger := widgetTestLogger()

	reviewHandler := NewReviewHandler(reviews, schemaEnabled, logger)
	ratingHandler := NewRatingHandler(ratings, reviews, schemaEnabled, logger)
	pageHandler := NewPageHandler(ratings, reviews, schemaEnabled, lazyLoad, logger)

	r := chi.NewRouter()
	r.Route("/api/v1/stores/{storeID}", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Get("/reviews", reviewHandler.ListReviews)
		r.Get("/rating", ratingHandler.GetRating)
		r.Get("/page", pageHandler.GetPage)
		r.Post("/reviews", reviewHandler.CreateReview)
		r.Delete("/rating/cache", ratingHandler.ClearCache)
	})
	r.Route("/api/v1/reviews/{reviewID}", func(r chi.Router) {
		r.Patch("/status", reviewHandler.ModerateReview)
		r.Delete("/", reviewHandler.DeleteReview)
	})
	r.Delete("/api/v1/rating/cache", ratingHandler.ClearAllCaches)
	return r
}

func decodeWidgetResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

func widgetData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	resp := decodeWidgetResponse(t, rec)
	require.Nil(t, resp.Error)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is not an object")
	return data
}

func approvedReview(id, nickname, body string, summary float64) domain.Review {
	return domain.Review{
		ID:            id,
		StoreID:       1,
		ProductID:     "prod-42",
		Status:        domain.ReviewStatusApproved,
		Nickname:      nickname,
		Title:         "Great",
		Body:          body,
		CreatedAt:     time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
		RatingSummary: &summary,
	}
}

// =============================================================================
// GET /api/v1/stores/{storeID}/reviews - ListReviews
// =============================================================================

func TestListReviews_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	reviews := []domain.Review{
		approvedReview("550e8400-e29b-41d4-a716-446655440001", "alice", "Fast shipping, great packaging.", 80),
		approvedReview("550e8400-e29b-41d4-a716-446655440002", "bob", "Exactly as described.", 100),
	}
	repo.On("FilteredByStore", mock.Anything, int64(1), mock.AnythingOfType("repository.ReviewFilter")).Return(reviews, nil)
	repo.On("CountApproved", mock.Anything, int64(1)).Return(7, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/1/reviews", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := widgetData(t, rec)
	assert.Len(t, data["reviews"], 2)
	assert.Equal(t, float64(7), data["total_count"])

	schemaBlock, ok := data["schema"].(map[string]any)
	require.True(t, ok, "schema block missing")
	assert.Equal(t, "ItemList", schemaBlock["@type"])
	assert.Len(t, schemaBlock["itemListElement"], 2)
	repo.AssertExpectations(t)
}

func TestListReviews_SchemaDisabled(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), false, false)

	reviews := []domain.Review{
		approvedReview("550e8400-e29b-41d4-a716-446655440001", "alice", "Fast shipping.", 80),
	}
	repo.On("FilteredByStore", mock.Anything, int64(1), mock.Anything).Return(reviews, nil)
	repo.On("CountApproved", mock.Anything, int64(1)).Return(1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/1/reviews", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := widgetData(t, rec)
	assert.NotContains(t, data, "schema")
}

func TestListReviews_FilterQueryForwarded(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	repo.On("FilteredByStore", mock.Anything, int64(1), mock.MatchedBy(func(f repository.ReviewFilter) bool {
		return f.MinRatingPercent == 80 && f.MinChars == 100 && f.Limit == 5 && f.Sort == domain.SortRecent
	})).Return([]domain.Review{}, nil)
	repo.On("CountApproved", mock.Anything, int64(1)).Return(0, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/stores/1/reviews?min_rating=4&min_chars=100&page_size=5&sort_order=recent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestListReviews_RepoErrorDegradesToEmpty(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	repo.On("FilteredByStore", mock.Anything, int64(1), mock.Anything).Return(nil, errors.New("connection refused"))
	repo.On("CountApproved", mock.Anything, int64(1)).Return(0, errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/1/reviews", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Display path: the widget renders empty instead of erroring.
	assert.Equal(t, http.StatusOK, rec.Code)
	data := widgetData(t, rec)
	assert.Empty(t, data["reviews"])
	assert.Equal(t, float64(0), data["total_count"])
	assert.NotContains(t, data, "schema")
}

func TestListReviews_ZeroStoreUsesDefault(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	repo.On("FilteredByStore", mock.Anything, int64(1), mock.Anything).Return([]domain.Review{}, nil)
	repo.On("CountApproved", mock.Anything, int64(1)).Return(0, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/0/reviews", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestListReviews_NegativeStoreID(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/-3/reviews", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeWidgetResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	repo.AssertNotCalled(t, "FilteredByStore", mock.Anything, mock.Anything, mock.Anything)
}

func TestListReviews_NonNumericStoreID(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stores/default/reviews", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeWidgetResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

// =============================================================================
// POST /api/v1/stores/{storeID}/reviews - CreateReview
// =============================================================================

func TestCreateReview_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review"), []int{80, 100}).Return(nil)

	body := CreateReviewRequest{
		ProductID: "prod-42",
		Nickname:  "alice",
		Title:     "Great",
		Body:      "Fast shipping, great packaging.",
		Ratings:   []int{4, 5},
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/1/reviews", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeWidgetResponse(t, rec)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Data)
	created := resp.Data.(map[string]any)
	assert.Equal(t, domain.ReviewStatusPending, created["status"])
	repo.AssertExpectations(t)
}

func TestCreateReview_InvalidJSON(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/1/reviews", bytes.NewReader([]byte(`{invalid`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeWidgetResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReview_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body CreateReviewRequest
	}{
		{
			name: "missing product id",
			body: CreateReviewRequest{Nickname: "alice", Body: "text", Ratings: []int{4}},
		},
		{
			name: "missing nickname",
			body: CreateReviewRequest{ProductID: "prod-42", Body: "text", Ratings: []int{4}},
		},
		{
			name: "missing body",
			body: CreateReviewRequest{ProductID: "prod-42", Nickname: "alice", Ratings: []int{4}},
		},
		{
			name: "no ratings",
			body: CreateReviewRequest{ProductID: "prod-42", Nickname: "alice", Body: "text"},
		},
		{
			name: "rating above scale",
			body: CreateReviewRequest{ProductID: "prod-42", Nickname: "alice", Body: "text", Ratings: []int{6}},
		},
		{
			name: "rating below scale",
			body: CreateReviewRequest{ProductID: "prod-42", Nickname: "alice", Body: "text", Ratings: []int{0}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockReviewRepo)
			router := widgetRouter(repo, new(mockRatingCache), true, false)

			b, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/1/reviews", bytes.NewReader(b))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeWidgetResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateReview_UnsupportedMediaType(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/1/reviews", bytes.NewReader([]byte(`body=text`)))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCreateReview_RepoError(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	body := CreateReviewRequest{
		ProductID: "prod-42",
		Nickname:  "alice",
		Body:      "Fast shipping.",
		Ratings:   []int{4},
	}
	b, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/1/reviews", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Submission is a write path, not a display path: errors surface.
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeWidgetResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}

// =============================================================================
// PATCH /api/v1/reviews/{reviewID}/status - ModerateReview
// =============================================================================

func TestModerateReview_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	id := "550e8400-e29b-41d4-a716-446655440001"
	approved := approvedReview(id, "alice", "Fast shipping.", 80)
	repo.On("UpdateStatus", mock.Anything, id, domain.ReviewStatusApproved).Return(&approved, nil)

	b, _ := json.Marshal(ModerateReviewRequest{Status: domain.ReviewStatusApproved})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reviews/"+id+"/status", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeWidgetResponse(t, rec)
	require.NotNil(t, resp.Data)
	updated := resp.Data.(map[string]any)
	assert.Equal(t, domain.ReviewStatusApproved, updated["status"])
	repo.AssertExpectations(t)
}

func TestModerateReview_UnknownStatus(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	b, _ := json.Marshal(ModerateReviewRequest{Status: "archived"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reviews/550e8400-e29b-41d4-a716-446655440001/status", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeWidgetResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestModerateReview_NotFound(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	id := "550e8400-e29b-41d4-a716-446655440009"
	repo.On("UpdateStatus", mock.Anything, id, domain.ReviewStatusRejected).Return(nil, apperrors.NotFound("review", id))

	b, _ := json.Marshal(ModerateReviewRequest{Status: domain.ReviewStatusRejected})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reviews/"+id+"/status", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModerateReview_InvalidUUID(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	b, _ := json.Marshal(ModerateReviewRequest{Status: domain.ReviewStatusApproved})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/reviews/not-a-uuid/status", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeWidgetResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

// =============================================================================
// DELETE /api/v1/reviews/{reviewID} - DeleteReview
// =============================================================================

func TestDeleteReview_Success(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	id := "550e8400-e29b-41d4-a716-446655440001"
	deleted := approvedReview(id, "alice", "Fast shipping.", 80)
	repo.On("Delete", mock.Anything, id).Return(&deleted, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/"+id, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	repo.AssertExpectations(t)
}

func TestDeleteReview_NotFound(t *testing.T) {
	repo := new(mockReviewRepo)
	router := widgetRouter(repo, new(mockRatingCache), true, false)

	id := "550e8400-e29b-41d4-a716-446655440009"
	repo.On("Delete", mock.Anything, id).Return(nil, apperrors.NotFound("review", id))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reviews/"+id, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
