package domain

import "strings"

// SortOrder controls how review listings are ordered.
type SortOrder string

const (
	// SortRecent orders by creation time, newest first.
	SortRecent SortOrder = "recent"
	// SortRating orders by aggregate rating percentage, highest first.
	SortRating SortOrder = "rating"
	// SortRandom is the default: a randomized order.
	SortRandom SortOrder = "random"
)

// ParseSortOrder normalizes a raw sort-order value. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseSortOrder(raw string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case SortRecent:
		return SortRecent, true
	case SortRating:
		return SortRating, true
	case SortRandom:
		return SortRandom, true
	}
	return "", false
}
