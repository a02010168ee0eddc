package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront-reviews/internal/domain"
	"github.com/utafrali/storefront-reviews/internal/repository"
	"github.com/utafrali/storefront-reviews/pkg/database"
	apperrors "github.com/utafrali/storefront-reviews/pkg/errors"
)

// reviewColumns is the projection shared by all listing queries: the review
// row plus the vote aggregates from the rollup join.
const reviewColumns = `r.id, r.store_id, r.product_id, r.status, r.nickname, r.title, r.body, r.created_at,
	       v.rating_summary, v.rating_value, COALESCE(v.vote_sum, 0), COALESCE(v.vote_count, 0)`

// voteRollup aggregates review_votes per review. It is attached exactly once
// per statement, so the aggregate columns can never be joined twice.
const voteRollup = `
	LEFT JOIN (
		SELECT review_id,
		       AVG(percent)::float8 AS rating_summary,
		       AVG(value)::float8   AS rating_value,
		       SUM(percent)         AS vote_sum,
		       COUNT(*)             AS vote_count
		FROM review_votes
		GROUP BY review_id
	) v ON v.review_id = r.id`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// ApprovedByStore returns every approved review for a store, newest first,
// with vote aggregates attached. No pagination: rating aggregation needs the
// complete dataset, since sampling would bias the average.
func (r *ReviewRepository) ApprovedByStore(ctx context.Context, storeID int64) ([]domain.Review, error) {
	if err := checkStoreID(storeID); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews r%s
		WHERE r.store_id = $1 AND r.status = $2
		ORDER BY r.created_at DESC`,
		reviewColumns, voteRollup,
	)

	ctx, end := database.TraceQuery(ctx, "ApprovedByStore", query)
	rows, err := r.pool.Query(ctx, query, storeID, domain.ReviewStatusApproved)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("list approved reviews: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// FilteredByStore returns approved reviews for a store matching the given
// filter specification. Predicates are applied in a fixed order: body length,
// recency window, category membership, minimum aggregate rating, then sort
// and the page-size cap.
func (r *ReviewRepository) FilteredByStore(ctx context.Context, storeID int64, filter repository.ReviewFilter) ([]domain.Review, error) {
	if err := checkStoreID(storeID); err != nil {
		return nil, err
	}

	conditions := []string{"r.store_id = $1", "r.status = $2"}
	args := []any{storeID, domain.ReviewStatusApproved}
	argIndex := 3

	if filter.MinChars > 0 {
		conditions = append(conditions, fmt.Sprintf("char_length(r.body) >= $%d", argIndex))
		args = append(args, filter.MinChars)
		argIndex++
	}

	if filter.DaysAgo > 0 {
		conditions = append(conditions, fmt.Sprintf("r.created_at >= $%d", argIndex))
		args = append(args, time.Now().UTC().AddDate(0, 0, -filter.DaysAgo))
		argIndex++
	}

	// Category membership via EXISTS rather than a join: the products table
	// can never end up joined twice, whatever other predicates are present.
	if filter.CategoryID > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM products p WHERE p.id = r.product_id AND p.category_id = $%d)", argIndex))
		args = append(args, filter.CategoryID)
		argIndex++
	}

	// The rating threshold is a predicate over the pre-aggregated rollup
	// columns, so it must come after the rollup join (always present).
	if filter.MinRatingPercent > 0 {
		conditions = append(conditions, fmt.Sprintf("COALESCE(v.rating_summary, 0) >= $%d", argIndex))
		args = append(args, filter.MinRatingPercent)
		argIndex++
	}

	var orderBy string
	switch filter.Sort {
	case domain.SortRecent:
		orderBy = "r.created_at DESC"
	case domain.SortRating:
		orderBy = "v.rating_summary DESC NULLS LAST"
	default:
		orderBy = "random()"
	}

	limitClause := ""
	if filter.Limit > 0 {
		limitClause = fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM reviews r%s
		WHERE %s
		ORDER BY %s%s`,
		reviewColumns, voteRollup, strings.Join(conditions, " AND "), orderBy, limitClause,
	)

	ctx, end := database.TraceQuery(ctx, "FilteredByStore", query)
	rows, err := r.pool.Query(ctx, query, args...)
	end(err)
	if err != nil {
		return nil, fmt.Errorf("list filtered reviews: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// CountApproved returns the unfiltered approved review count for a store.
func (r *ReviewRepository) CountApproved(ctx context.Context, storeID int64) (int, error) {
	if err := checkStoreID(storeID); err != nil {
		return 0, err
	}

	query := `
		SELECT COUNT(*)
		FROM reviews
		WHERE store_id = $1 AND status = $2`

	var count int
	ctx, end := database.TraceQuery(ctx, "CountApproved", query)
	err := r.pool.QueryRow(ctx, query, storeID, domain.ReviewStatusApproved).Scan(&count)
	end(err)
	if err != nil {
		return 0, fmt.Errorf("count approved reviews: %w", err)
	}

	return count, nil
}

// Create inserts a review and its initial votes atomically. Each vote percent
// is on the 0-100 scale; the raw 0-5 value is derived from it.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review, votePercents []int) error {
	if err := checkStoreID(review.StoreID); err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	reviewQuery := `
		INSERT INTO reviews (id, store_id, product_id, status, nickname, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = tx.Exec(ctx, reviewQuery,
		review.ID,
		review.StoreID,
		review.ProductID,
		review.Status,
		review.Nickname,
		review.Title,
		review.Body,
		review.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "id", review.ID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	voteQuery := `
		INSERT INTO review_votes (review_id, percent, value, created_at)
		VALUES ($1, $2, $3, $4)`

	for _, percent := range votePercents {
		if _, err := tx.Exec(ctx, voteQuery, review.ID, percent, percent/20, review.CreatedAt); err != nil {
			return fmt.Errorf("insert review vote: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}

	return nil
}

// UpdateStatus moves a review to a new approval status and returns the
// updated row.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, reviewID, status string) (*domain.Review, error) {
	query := `
		UPDATE reviews
		SET status = $2
		WHERE id = $1
		RETURNING id, store_id, product_id, status, nickname, title, body, created_at`

	return r.scanMutatedReview(ctx, "UpdateStatus", query, reviewID, status)
}

// Delete removes a review (votes cascade) and returns the deleted row so the
// caller can publish the mutation event.
func (r *ReviewRepository) Delete(ctx context.Context, reviewID string) (*domain.Review, error) {
	query := `
		DELETE FROM reviews
		WHERE id = $1
		RETURNING id, store_id, product_id, status, nickname, title, body, created_at`

	return r.scanMutatedReview(ctx, "Delete", query, reviewID)
}

func (r *ReviewRepository) scanMutatedReview(ctx context.Context, operation, query string, args ...any) (*domain.Review, error) {
	var rv domain.Review

	ctx, end := database.TraceQuery(ctx, operation, query)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&rv.ID,
		&rv.StoreID,
		&rv.ProductID,
		&rv.Status,
		&rv.Nickname,
		&rv.Title,
		&rv.Body,
		&rv.CreatedAt,
	)
	end(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", fmt.Sprint(args[0]))
		}
		return nil, fmt.Errorf("%s review: %w", strings.ToLower(operation), err)
	}

	return &rv, nil
}

func scanReviews(rows pgx.Rows) ([]domain.Review, error) {
	var reviews []domain.Review

	for rows.Next() {
		var rv domain.Review

		if err := rows.Scan(
			&rv.ID,
			&rv.StoreID,
			&rv.ProductID,
			&rv.Status,
			&rv.Nickname,
			&rv.Title,
			&rv.Body,
			&rv.CreatedAt,
			&rv.RatingSummary,
			&rv.RatingValue,
			&rv.VoteSum,
			&rv.VoteCount,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}

		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

func checkStoreID(storeID int64) error {
	if storeID < 0 {
		return apperrors.InvalidInput(fmt.Sprintf("store id must not be negative, got %d", storeID))
	}
	return nil
}
