package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront-reviews/internal/domain"
	"github.com/utafrali/storefront-reviews/internal/event"
	"github.com/utafrali/storefront-reviews/internal/filter"
	"github.com/utafrali/storefront-reviews/internal/repository"
	apperrors "github.com/utafrali/storefront-reviews/pkg/errors"
)

// ratingScaleToPercent converts a 5-point rating to the 0-100 percentage
// stored in vote aggregates.
const ratingScaleToPercent = 20

// ReviewDefaults are the merchant-configured fallbacks applied when a
// request omits a filter. Zero MinRating and MinChars mean "unconstrained".
type ReviewDefaults struct {
	MinRating float64
	MinChars  int
	PageSize  int
	StoreID   int64
}

// CreateReviewInput holds the parameters for submitting a review.
type CreateReviewInput struct {
	StoreID   int64
	ProductID string
	Nickname  string
	Title     string
	Body      string
	// Ratings are the per-criterion star values (1-5) attached to the review.
	Ratings []int
}

// ReviewService implements the business logic for review listings and
// submissions.
type ReviewService struct {
	repo     repository.ReviewRepository
	producer *event.Producer
	defaults ReviewDefaults
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(repo repository.ReviewRepository, producer *event.Producer, defaults ReviewDefaults, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		repo:     repo,
		producer: producer,
		defaults: defaults,
		logger:   logger,
	}
}

// ResolveStoreID normalizes a requested store id. Zero selects the default
// store; negative ids are rejected.
func (s *ReviewService) ResolveStoreID(storeID int64) (int64, error) {
	if storeID < 0 {
		return 0, apperrors.InvalidInput(fmt.Sprintf("store id must not be negative, got %d", storeID))
	}
	if storeID == 0 {
		return s.defaults.StoreID, nil
	}
	return storeID, nil
}

// ListReviews returns approved reviews for a store, filtered by the request
// query. Filters are parsed leniently: an invalid value is dropped and its
// configured default applies instead, so a bad parameter can never blank the
// widget.
func (s *ReviewService) ListReviews(ctx context.Context, storeID int64, query url.Values) ([]domain.Review, error) {
	storeID, err := s.ResolveStoreID(storeID)
	if err != nil {
		return nil, err
	}

	f := filter.ParseLenient(query, s.logger)

	reviews, err := s.repo.FilteredByStore(ctx, storeID, s.resolveFilter(f))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, nil
}

// CountReviews returns the unfiltered approved review count for a store.
func (s *ReviewService) CountReviews(ctx context.Context, storeID int64) (int, error) {
	storeID, err := s.ResolveStoreID(storeID)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.CountApproved(ctx, storeID)
	if err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}

	return count, nil
}

// resolveFilter merges a lenient filter set with the configured defaults and
// converts it to the repository's query specification.
func (s *ReviewService) resolveFilter(f filter.Filters) repository.ReviewFilter {
	spec := repository.ReviewFilter{
		MinChars: s.defaults.MinChars,
		Limit:    s.defaults.PageSize,
		Sort:     domain.SortRandom,
	}
	if s.defaults.MinRating > 0 {
		spec.MinRatingPercent = s.defaults.MinRating * ratingScaleToPercent
	}

	if f.MinRating != nil {
		spec.MinRatingPercent = *f.MinRating * ratingScaleToPercent
	}
	if f.MinChars != nil {
		spec.MinChars = *f.MinChars
	}
	if f.PageSize != nil {
		spec.Limit = *f.PageSize
	}
	if f.CategoryID != nil {
		spec.CategoryID = *f.CategoryID
	}
	if f.DaysAgo != nil {
		spec.DaysAgo = *f.DaysAgo
	}
	if f.Sort != nil {
		spec.Sort = *f.Sort
	}

	return spec
}

// CreateReview submits a new review in pending status. Moderation happens
// out of band; the review becomes visible once approved.
func (s *ReviewService) CreateReview(ctx context.Context, input *CreateReviewInput) (*domain.Review, error) {
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product_id is required")
	}
	if input.Nickname == "" {
		return nil, apperrors.InvalidInput("nickname is required")
	}
	if input.Body == "" {
		return nil, apperrors.InvalidInput("body is required")
	}
	if len(input.Ratings) == 0 {
		return nil, apperrors.InvalidInput("at least one rating is required")
	}
	for _, rating := range input.Ratings {
		if rating < 1 || rating > 5 {
			return nil, apperrors.InvalidInput("ratings must be between 1 and 5")
		}
	}

	storeID, err := s.ResolveStoreID(input.StoreID)
	if err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:        uuid.New().String(),
		StoreID:   storeID,
		ProductID: input.ProductID,
		Status:    domain.ReviewStatusPending,
		Nickname:  input.Nickname,
		Title:     input.Title,
		Body:      input.Body,
		CreatedAt: time.Now().UTC(),
	}

	votePercents := make([]int, len(input.Ratings))
	for i, rating := range input.Ratings {
		votePercents[i] = rating * ratingScaleToPercent
	}

	if err := s.repo.Create(ctx, review, votePercents); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.Int64("store_id", review.StoreID),
		slog.String("product_id", review.ProductID),
	)

	return review, nil
}

// ModerateReview moves a review to a new approval status.
func (s *ReviewService) ModerateReview(ctx context.Context, reviewID, status string) (*domain.Review, error) {
	switch status {
	case domain.ReviewStatusPending, domain.ReviewStatusApproved, domain.ReviewStatusRejected:
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown review status %q", status))
	}

	review, err := s.repo.UpdateStatus(ctx, reviewID, status)
	if err != nil {
		return nil, fmt.Errorf("moderate review: %w", err)
	}

	if err := s.producer.PublishReviewUpdated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.updated event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", review.ID),
		slog.String("status", status),
	)

	return review, nil
}

// DeleteReview removes a review permanently.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string) error {
	review, err := s.repo.Delete(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := s.producer.PublishReviewDeleted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.Int64("store_id", review.StoreID),
	)

	return nil
}
