package schema

import (
	"fmt"
	"time"

	"github.com/utafrali/storefront-reviews/internal/domain"
)

const schemaContext = "https://schema.org"

// maxItemListReviews caps how many reviews appear in the ItemList block.
// Search engines sample a handful; shipping the full listing only bloats
// the page.
const maxItemListReviews = 5

// AggregateRating is the schema.org AggregateRating JSON-LD block.
type AggregateRating struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	RatingValue string `json:"ratingValue"`
	BestRating  string `json:"bestRating"`
	WorstRating string `json:"worstRating"`
	RatingCount int    `json:"ratingCount"`
}

// NewAggregateRating builds the AggregateRating block for a store rating.
// Returns nil for a nil rating: no rating, no markup.
func NewAggregateRating(rating *domain.StoreRating) *AggregateRating {
	if rating == nil {
		return nil
	}
	return &AggregateRating{
		Context:     schemaContext,
		Type:        "AggregateRating",
		RatingValue: fmt.Sprintf("%.2f", rating.AverageRating),
		BestRating:  "5",
		WorstRating: "1",
		RatingCount: rating.Total,
	}
}

// Person is the schema.org author of a review.
type Person struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// Rating is the schema.org per-review rating.
type Rating struct {
	Type        string `json:"@type"`
	RatingValue string `json:"ratingValue"`
	BestRating  string `json:"bestRating"`
	WorstRating string `json:"worstRating"`
}

// ReviewItem is the schema.org Review object inside an ItemList element.
type ReviewItem struct {
	Type          string  `json:"@type"`
	Author        Person  `json:"author"`
	DatePublished string  `json:"datePublished"`
	ReviewBody    string  `json:"reviewBody"`
	ReviewRating  *Rating `json:"reviewRating,omitempty"`
}

// ListItem wraps a ReviewItem with its 1-based position.
type ListItem struct {
	Type     string     `json:"@type"`
	Position int        `json:"position"`
	Item     ReviewItem `json:"item"`
}

// ItemList is the schema.org ItemList JSON-LD block for a review listing.
type ItemList struct {
	Context         string     `json:"@context"`
	Type            string     `json:"@type"`
	ItemListElement []ListItem `json:"itemListElement"`
}

// NewItemList builds the ItemList block from entries, keeping at most the
// first five. Returns nil for an empty entry set.
func NewItemList(entries []ReviewEntry) *ItemList {
	if len(entries) == 0 {
		return nil
	}
	if len(entries) > maxItemListReviews {
		entries = entries[:maxItemListReviews]
	}

	items := make([]ListItem, len(entries))
	for i, entry := range entries {
		item := ReviewItem{
			Type:          "Review",
			Author:        Person{Type: "Person", Name: entry.Author},
			DatePublished: entry.Date.UTC().Format(time.DateOnly),
			ReviewBody:    entry.Body,
		}
		if entry.Rating > 0 {
			item.ReviewRating = &Rating{
				Type:        "Rating",
				RatingValue: fmt.Sprintf("%.2f", entry.Rating),
				BestRating:  "5",
				WorstRating: "1",
			}
		}
		items[i] = ListItem{Type: "ListItem", Position: i + 1, Item: item}
	}

	return &ItemList{
		Context:         schemaContext,
		Type:            "ItemList",
		ItemListElement: items,
	}
}

// EntryFromReview converts a domain review to a structured-data entry. The
// rating is the review's percentage rescaled to the 5-point scale; reviews
// without a signal carry a zero rating and render without a reviewRating.
func EntryFromReview(review *domain.Review) ReviewEntry {
	entry := ReviewEntry{
		Author: review.Nickname,
		Date:   review.CreatedAt,
		Body:   review.Body,
	}
	if pct, ok := review.Percentage(); ok {
		entry.Rating = pct / 20
	}
	return entry
}
