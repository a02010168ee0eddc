package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/storefront-reviews/pkg/kafka"
)

// RatingInvalidator defines the interface required by the event consumer.
type RatingInvalidator interface {
	ClearCache(ctx context.Context, storeID int64) error
}

// reviewEventData is the common shape of review mutation payloads; only the
// store id matters for cache invalidation.
type reviewEventData struct {
	ID      string `json:"id"`
	StoreID int64  `json:"store_id"`
}

// Consumer processes review mutation events by invalidating the affected
// store's cached rating. Clearing an already absent key is a no-op, so the
// handler is safe to re-run on redelivery.
type Consumer struct {
	logger  *slog.Logger
	service RatingInvalidator
}

// NewConsumer creates a new event consumer for the review service.
func NewConsumer(service RatingInvalidator, logger *slog.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

// HandleReviewMutation processes review.created, review.updated and
// review.deleted events. All three invalidate the same cache entry.
func (c *Consumer) HandleReviewMutation(ctx context.Context, event *pkgkafka.Event) error {
	var data reviewEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "processing review mutation event",
		slog.String("event_type", event.EventType),
		slog.String("review_id", data.ID),
		slog.Int64("store_id", data.StoreID),
	)

	if err := c.service.ClearCache(ctx, data.StoreID); err != nil {
		return fmt.Errorf("clear store rating cache for store %d: %w", data.StoreID, err)
	}

	c.logger.InfoContext(ctx, "store rating cache cleared",
		slog.Int64("store_id", data.StoreID),
	)

	return nil
}
