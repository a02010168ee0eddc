package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront-reviews/internal/domain"
	"github.com/utafrali/storefront-reviews/internal/repository"
	apperrors "github.com/utafrali/storefront-reviews/pkg/errors"
)

// RatingService computes and caches the aggregate store rating.
type RatingService struct {
	repo       repository.ReviewRepository
	cache      repository.RatingCache
	minReviews int
	logger     *slog.Logger
}

// NewRatingService creates a new rating service. minReviews is the smallest
// review count for which a rating is published; below it the store has no
// rating rather than a misleading one.
func NewRatingService(repo repository.ReviewRepository, cache repository.RatingCache, minReviews int, logger *slog.Logger) *RatingService {
	return &RatingService{
		repo:       repo,
		cache:      cache,
		minReviews: minReviews,
		logger:     logger,
	}
}

// StoreRating returns the store's aggregate rating, serving from cache when
// possible. On a miss the rating is recomputed from the full approved review
// set and written back. Cache infrastructure failures degrade to a direct
// recomputation instead of failing the request; only repository errors
// propagate. A nil rating with nil error means the store has no rating yet.
func (s *RatingService) StoreRating(ctx context.Context, storeID int64) (*domain.StoreRating, error) {
	cached, err := s.cache.Get(ctx, storeID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "store rating cache read failed, recomputing",
			slog.Int64("store_id", storeID),
			slog.String("error", err.Error()),
		)
	}

	rating, err := s.CalculateStoreRating(ctx, storeID)
	if err != nil {
		return nil, err
	}

	// The empty state is not cached: a store with no rating yet gains one as
	// soon as reviews arrive, and caching nil would delay that by the TTL.
	if rating != nil {
		if err := s.cache.Save(ctx, storeID, rating); err != nil {
			s.logger.WarnContext(ctx, "store rating cache write failed",
				slog.Int64("store_id", storeID),
				slog.String("error", err.Error()),
			)
		}
	}

	return rating, nil
}

// CalculateStoreRating recomputes the store rating from every approved
// review, bypassing the cache. Reviews without a usable rating signal do not
// contribute; neither the count nor the mean is affected by them.
func (s *RatingService) CalculateStoreRating(ctx context.Context, storeID int64) (*domain.StoreRating, error) {
	reviews, err := s.repo.ApprovedByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("load approved reviews: %w", err)
	}

	var (
		total         int
		percentageSum float64
	)
	for i := range reviews {
		if pct, ok := reviews[i].Percentage(); ok {
			total++
			percentageSum += pct
		}
	}

	rating := domain.NewStoreRating(total, percentageSum, s.minReviews)

	s.logger.DebugContext(ctx, "store rating computed",
		slog.Int64("store_id", storeID),
		slog.Int("contributing_reviews", total),
		slog.Bool("has_rating", rating != nil),
	)

	return rating, nil
}

// ClearCache invalidates one store's cached rating.
func (s *RatingService) ClearCache(ctx context.Context, storeID int64) error {
	if err := s.cache.Delete(ctx, storeID); err != nil {
		return fmt.Errorf("clear store rating cache: %w", err)
	}

	s.logger.InfoContext(ctx, "store rating cache cleared", slog.Int64("store_id", storeID))
	return nil
}

// ClearAllCaches invalidates every store's cached rating.
func (s *RatingService) ClearAllCaches(ctx context.Context) error {
	if err := s.cache.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear store rating caches: %w", err)
	}

	s.logger.InfoContext(ctx, "all store rating caches cleared")
	return nil
}
