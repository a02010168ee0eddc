// Package schema generates schema.org structured data for review widgets
// and enforces the once-per-page emission rules.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Kind identifies a structured-data block that is emitted at most once per page.
type Kind int

const (
	// KindBadge is the AggregateRating block attached to the rating badge.
	KindBadge Kind = iota
	// KindReviews is the ItemList block attached to the review listing.
	KindReviews
)

// ReviewEntry is one review as it appears in structured data.
type ReviewEntry struct {
	Author string
	Date   time.Time
	Body   string
	Rating float64
}

// fingerprint identifies a review by its visible content. Two entries with
// the same author, date and body are the same review regardless of where on
// the page they were collected.
func (e ReviewEntry) fingerprint() string {
	h := sha256.New()
	h.Write([]byte(e.Author))
	h.Write([]byte{'|'})
	h.Write([]byte(e.Date.UTC().Format(time.RFC3339)))
	h.Write([]byte{'|'})
	h.Write([]byte(e.Body))
	return hex.EncodeToString(h.Sum(nil))
}

// PageContext tracks structured-data emission for a single page render.
// It is request-confined: create one per request, never share between
// goroutines.
type PageContext struct {
	enabled          bool
	badgeGenerated   bool
	reviewsGenerated bool

	seen     map[string]struct{}
	combined []ReviewEntry
}

// NewPageContext creates an emission tracker for one page render. When
// enabled is false every ShouldGenerate call reports false and widgets render
// without structured data.
func NewPageContext(enabled bool) *PageContext {
	return &PageContext{
		enabled: enabled,
		seen:    make(map[string]struct{}),
	}
}

// Enabled reports whether structured data is globally enabled for this page.
func (p *PageContext) Enabled() bool {
	return p.enabled
}

// ShouldGenerate reports whether the given block may still be emitted on
// this page. The badge and reviews flags are independent.
func (p *PageContext) ShouldGenerate(kind Kind) bool {
	if !p.enabled {
		return false
	}
	switch kind {
	case KindBadge:
		return !p.badgeGenerated
	case KindReviews:
		return !p.reviewsGenerated
	default:
		return false
	}
}

// MarkBadgeGenerated records that the AggregateRating block was emitted.
// Marking is explicit: ShouldGenerate never flips a flag by itself.
func (p *PageContext) MarkBadgeGenerated() {
	p.badgeGenerated = true
}

// MarkReviewsGenerated records that the ItemList block was emitted.
func (p *PageContext) MarkReviewsGenerated() {
	p.reviewsGenerated = true
}

// AddToCombined registers a review for the page's combined structured-data
// list. Returns false when an entry with the same author, date and body was
// already added. Insertion order is preserved.
func (p *PageContext) AddToCombined(entry ReviewEntry) bool {
	fp := entry.fingerprint()
	if _, dup := p.seen[fp]; dup {
		return false
	}
	p.seen[fp] = struct{}{}
	p.combined = append(p.combined, entry)
	return true
}

// Combined returns the deduplicated review entries in first-insertion order.
func (p *PageContext) Combined() []ReviewEntry {
	return p.combined
}
