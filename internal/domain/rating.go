package domain

import "math"

// StoreRating is the aggregate review statistic for one store view.
// It is immutable once built; a nil *StoreRating means "no rating available",
// which is a valid empty state rather than an error.
type StoreRating struct {
	// Total is the number of reviews that contributed a percentage.
	Total int `json:"total"`
	// Percentage is the arithmetic mean of contributed percentages (0-100).
	Percentage float64 `json:"percentage"`
	// Note is the percentage rescaled to a 5-point scale, rounded to 2 decimals.
	Note float64 `json:"note"`
	// AverageRating is the percentage rescaled to a 5-point scale, unrounded.
	AverageRating float64 `json:"average_rating"`
}

// NewStoreRating builds a StoreRating from the contributing review count and
// the sum of contributed percentages. Returns nil when total is below minimum.
func NewStoreRating(total int, percentageSum float64, minimum int) *StoreRating {
	if minimum < 1 {
		minimum = 1
	}
	if total < minimum {
		return nil
	}

	percentage := percentageSum / float64(total)

	return &StoreRating{
		Total:         total,
		Percentage:    percentage,
		Note:          math.Round(percentage/100*5*100) / 100,
		AverageRating: percentage / 20,
	}
}
