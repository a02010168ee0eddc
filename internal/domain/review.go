package domain

import (
	"time"
)

// Review statuses. Only approved reviews are visible on the storefront.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// Review represents a customer review of a product, scoped to a store view.
//
// Vote aggregates are attached by the repository when it joins the
// review_votes rollup: RatingSummary is the average vote percentage (0-100)
// and RatingValue the average raw vote (0-5). Both are nil for reviews that
// have no votes. VoteSum and VoteCount are the raw aggregates a percentage
// can be derived from when no summary is present.
type Review struct {
	ID        string    `json:"id"`
	StoreID   int64     `json:"store_id"`
	ProductID string    `json:"product_id"`
	Status    string    `json:"status"`
	Nickname  string    `json:"nickname"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`

	RatingSummary *float64 `json:"rating_summary,omitempty"`
	RatingValue   *float64 `json:"rating_value,omitempty"`
	VoteSum       int64    `json:"vote_sum"`
	VoteCount     int64    `json:"vote_count"`
}

// Percentage returns the review's quality score normalized to 0-100 and
// whether the review carries a usable signal at all.
//
// The precomputed summary aggregate wins when present and strictly positive;
// otherwise the percentage is derived from the raw vote sum and count. A
// percentage of exactly zero is "no signal", not a zero-rated review.
func (r *Review) Percentage() (float64, bool) {
	if r.RatingSummary != nil && *r.RatingSummary > 0 {
		return *r.RatingSummary, true
	}
	if r.VoteSum > 0 && r.VoteCount > 0 {
		return float64(r.VoteSum) / float64(r.VoteCount), true
	}
	return 0, false
}
