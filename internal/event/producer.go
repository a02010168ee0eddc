package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront-reviews/internal/domain"
	pkgkafka "github.com/utafrali/storefront-reviews/pkg/kafka"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCreated = "storefront.review.created"
	TopicReviewUpdated = "storefront.review.updated"
	TopicReviewDeleted = "storefront.review.deleted"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from this service.
const SourceReviewService = "storefront-reviews"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID        string `json:"id"`
	StoreID   int64  `json:"store_id"`
	ProductID string `json:"product_id"`
	Status    string `json:"status"`
}

// ReviewUpdatedData is the payload for a review.updated event.
type ReviewUpdatedData struct {
	ID        string `json:"id"`
	StoreID   int64  `json:"store_id"`
	ProductID string `json:"product_id"`
	Status    string `json:"status"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID      string `json:"id"`
	StoreID int64  `json:"store_id"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:        review.ID,
		StoreID:   review.StoreID,
		ProductID: review.ProductID,
		Status:    review.Status,
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.Int64("store_id", review.StoreID),
	)

	return nil
}

// PublishReviewUpdated publishes a review.updated event.
func (p *Producer) PublishReviewUpdated(ctx context.Context, review *domain.Review) error {
	data := ReviewUpdatedData{
		ID:        review.ID,
		StoreID:   review.StoreID,
		ProductID: review.ProductID,
		Status:    review.Status,
	}

	event, err := pkgkafka.NewEvent(TopicReviewUpdated, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewUpdated, event); err != nil {
		return fmt.Errorf("publish review.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.updated event",
		slog.String("review_id", review.ID),
		slog.Int64("store_id", review.StoreID),
		slog.String("status", review.Status),
	)

	return nil
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, review *domain.Review) error {
	data := ReviewDeletedData{
		ID:      review.ID,
		StoreID: review.StoreID,
	}

	event, err := pkgkafka.NewEvent(TopicReviewDeleted, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewDeleted, event); err != nil {
		return fmt.Errorf("publish review.deleted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.deleted event",
		slog.String("review_id", review.ID),
		slog.Int64("store_id", review.StoreID),
	)

	return nil
}
