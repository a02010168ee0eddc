package repository

import (
	"context"

	"github.com/utafrali/storefront-reviews/internal/domain"
)

// ReviewFilter is the resolved query specification for a filtered review
// listing. It replaces the mutable query-builder object of typical ORM
// layers: the repository translates it into a single statement, so joins
// cannot be applied twice. Zero values mean "unconstrained".
type ReviewFilter struct {
	// MinChars keeps only reviews whose body has at least this many characters.
	MinChars int
	// DaysAgo keeps only reviews created within the last N days.
	DaysAgo int
	// CategoryID keeps only reviews of products in the given category.
	CategoryID int64
	// MinRatingPercent keeps only reviews whose aggregate rating percentage
	// is at least this value (0-100).
	MinRatingPercent float64
	// Sort selects the listing order; empty behaves as domain.SortRandom.
	Sort domain.SortOrder
	// Limit caps the number of returned rows. This is a hard cap, not
	// pagination: there is no offset.
	Limit int
}

// ReviewRepository defines review read and write operations.
type ReviewRepository interface {
	// ApprovedByStore returns every approved review for a store with vote
	// aggregates attached, unpaginated.
	ApprovedByStore(ctx context.Context, storeID int64) ([]domain.Review, error)

	// FilteredByStore returns approved reviews for a store matching the filter.
	FilteredByStore(ctx context.Context, storeID int64, filter ReviewFilter) ([]domain.Review, error)

	// CountApproved returns the unfiltered approved review count for a store.
	CountApproved(ctx context.Context, storeID int64) (int, error)

	// Create inserts a review together with its initial votes.
	Create(ctx context.Context, review *domain.Review, votePercents []int) error

	// UpdateStatus moves a review to a new approval status.
	UpdateStatus(ctx context.Context, reviewID, status string) (*domain.Review, error)

	// Delete removes a review and returns it for event publication.
	Delete(ctx context.Context, reviewID string) (*domain.Review, error)
}

// RatingCache stores computed store ratings keyed by store id.
type RatingCache interface {
	// Get returns the cached rating for a store, or apperrors.ErrNotFound on miss.
	Get(ctx context.Context, storeID int64) (*domain.StoreRating, error)

	// Save stores a rating under the store's key with the configured TTL.
	Save(ctx context.Context, storeID int64, rating *domain.StoreRating) error

	// Delete removes one store's cached rating.
	Delete(ctx context.Context, storeID int64) error

	// DeleteAll removes every cached rating in the module's tag space.
	DeleteAll(ctx context.Context) error
}
