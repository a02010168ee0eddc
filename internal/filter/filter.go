// Package filter validates and normalizes the merchant-facing review listing
// filters. Every filter is optional: absent or empty input means
// "unconstrained", never zero.
//
// Two validation modes exist. The strict per-field functions (and the
// Validate dispatcher) return a descriptive error naming the field, the
// offending value and its legal bounds. ParseLenient validates a whole set
// and silently drops each invalid field instead of aborting, favoring
// availability of the widget over strict correctness of its filters.
package filter

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront-reviews/internal/domain"
	apperrors "github.com/utafrali/storefront-reviews/pkg/errors"
)

// Filter field names as they appear in query strings and admin config.
const (
	FieldMinRating  = "min_rating"
	FieldMinChars   = "min_chars"
	FieldPageSize   = "page_size"
	FieldCategoryID = "category_id"
	FieldDaysAgo    = "days_ago"
	FieldSort       = "sort_order"
)

// Legal bounds for each filter field.
const (
	MinRatingLow  = 1.0
	MinRatingHigh = 5.0
	MinCharsLow   = 0
	MinCharsHigh  = 10000
	PageSizeLow   = 1
	PageSizeHigh  = 100
	CategoryIDLow = 1
	DaysAgoLow    = 1
	DaysAgoHigh   = 3650
)

// FieldError reports an invalid filter value together with its legal bounds.
// It unwraps to apperrors.ErrInvalidInput so callers can classify it.
type FieldError struct {
	Field  string
	Value  string
	Bounds string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid filter %s=%q: must be %s", e.Field, e.Value, e.Bounds)
}

func (e *FieldError) Unwrap() error { return apperrors.ErrInvalidInput }

// UnknownFieldError reports a filter field name the module does not recognize.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown filter %q", e.Field)
}

func (e *UnknownFieldError) Unwrap() error { return apperrors.ErrInvalidInput }

// Filters is a validated, partially-populated filter set. A nil field means
// the corresponding filter is unconstrained.
type Filters struct {
	MinRating  *float64
	MinChars   *int
	PageSize   *int
	CategoryID *int64
	DaysAgo    *int
	Sort       *domain.SortOrder
}

// MinRating validates the minimum average rating filter (1.0 to 5.0 on the
// five-point scale). Empty input is unset.
func MinRating(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	// The negated form rejects NaN, which compares false against any bound.
	if err != nil || !(v >= MinRatingLow && v <= MinRatingHigh) {
		return nil, &FieldError{Field: FieldMinRating, Value: raw, Bounds: fmt.Sprintf("a number between %.1f and %.1f", MinRatingLow, MinRatingHigh)}
	}
	return &v, nil
}

// MinChars validates the minimum review body length filter (0 to 10000).
func MinChars(raw string) (*int, error) {
	return intField(FieldMinChars, raw, MinCharsLow, MinCharsHigh)
}

// PageSize validates the listing size cap (1 to 100).
func PageSize(raw string) (*int, error) {
	return intField(FieldPageSize, raw, PageSizeLow, PageSizeHigh)
}

// CategoryID validates the product category restriction (>= 1).
func CategoryID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < CategoryIDLow {
		return nil, &FieldError{Field: FieldCategoryID, Value: raw, Bounds: fmt.Sprintf("an integer >= %d", CategoryIDLow)}
	}
	return &v, nil
}

// DaysAgo validates the recency window in days (1 to 3650).
func DaysAgo(raw string) (*int, error) {
	return intField(FieldDaysAgo, raw, DaysAgoLow, DaysAgoHigh)
}

// Sort validates the sort order (recent, rating or random; case-insensitive).
func Sort(raw string) (*domain.SortOrder, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	order, ok := domain.ParseSortOrder(raw)
	if !ok {
		return nil, &FieldError{Field: FieldSort, Value: raw, Bounds: "one of recent, rating, random"}
	}
	return &order, nil
}

func intField(field, raw string, low, high int) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < low || v > high {
		return nil, &FieldError{Field: field, Value: raw, Bounds: fmt.Sprintf("an integer between %d and %d", low, high)}
	}
	return &v, nil
}

// Validate checks a single named filter field in strict mode. The parsed
// value is discarded; callers that need it use the typed functions. Unknown
// field names are an error.
func Validate(field, raw string) error {
	switch field {
	case FieldMinRating:
		_, err := MinRating(raw)
		return err
	case FieldMinChars:
		_, err := MinChars(raw)
		return err
	case FieldPageSize:
		_, err := PageSize(raw)
		return err
	case FieldCategoryID:
		_, err := CategoryID(raw)
		return err
	case FieldDaysAgo:
		_, err := DaysAgo(raw)
		return err
	case FieldSort:
		_, err := Sort(raw)
		return err
	default:
		return &UnknownFieldError{Field: field}
	}
}

// ParseLenient validates every known filter present in values independently.
// A field that fails validation is dropped from the result rather than
// aborting the batch; the drop is debug-logged. Callers must tolerate
// partial filter sets.
func ParseLenient(values url.Values, logger *slog.Logger) Filters {
	var f Filters

	if v, err := MinRating(values.Get(FieldMinRating)); err == nil {
		f.MinRating = v
	} else {
		logDrop(logger, err)
	}
	if v, err := MinChars(values.Get(FieldMinChars)); err == nil {
		f.MinChars = v
	} else {
		logDrop(logger, err)
	}
	if v, err := PageSize(values.Get(FieldPageSize)); err == nil {
		f.PageSize = v
	} else {
		logDrop(logger, err)
	}
	if v, err := CategoryID(values.Get(FieldCategoryID)); err == nil {
		f.CategoryID = v
	} else {
		logDrop(logger, err)
	}
	if v, err := DaysAgo(values.Get(FieldDaysAgo)); err == nil {
		f.DaysAgo = v
	} else {
		logDrop(logger, err)
	}
	if v, err := Sort(values.Get(FieldSort)); err == nil {
		f.Sort = v
	} else {
		logDrop(logger, err)
	}

	return f
}

func logDrop(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Debug("dropping invalid filter", slog.String("error", err.Error()))
}
