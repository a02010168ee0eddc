package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront-reviews/internal/domain"
	apperrors "github.com/utafrali/storefront-reviews/pkg/errors"
)

const (
	keyPrefix = "store_rating:"

	// indexKey tracks every cached rating key so DeleteAll can clear them
	// without scanning the whole keyspace.
	indexKey = "store_rating:index"
)

// RatingCache implements repository.RatingCache using Redis.
type RatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRatingCache creates a new Redis-backed store rating cache.
func NewRatingCache(client *redis.Client, ttl time.Duration) *RatingCache {
	return &RatingCache{
		client: client,
		ttl:    ttl,
	}
}

func ratingKey(storeID int64) string {
	return keyPrefix + strconv.FormatInt(storeID, 10)
}

// Get retrieves a store's cached rating. A cache miss is reported as
// apperrors.ErrNotFound so callers can distinguish it from Redis failures.
func (r *RatingCache) Get(ctx context.Context, storeID int64) (*domain.StoreRating, error) {
	key := ratingKey(storeID)

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("store rating", strconv.FormatInt(storeID, 10))
		}
		return nil, fmt.Errorf("redis get store rating: %w", err)
	}

	var rating domain.StoreRating
	if err := json.Unmarshal(data, &rating); err != nil {
		return nil, fmt.Errorf("unmarshal store rating: %w", err)
	}

	return &rating, nil
}

// Save persists a store's rating with the configured TTL and records the key
// in the invalidation index.
func (r *RatingCache) Save(ctx context.Context, storeID int64, rating *domain.StoreRating) error {
	key := ratingKey(storeID)

	data, err := json.Marshal(rating)
	if err != nil {
		return fmt.Errorf("marshal store rating: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set store rating: %w", err)
	}

	if err := r.client.SAdd(ctx, indexKey, key).Err(); err != nil {
		return fmt.Errorf("redis index store rating: %w", err)
	}

	return nil
}

// Delete removes one store's cached rating.
func (r *RatingCache) Delete(ctx context.Context, storeID int64) error {
	key := ratingKey(storeID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del store rating: %w", err)
	}

	if err := r.client.SRem(ctx, indexKey, key).Err(); err != nil {
		return fmt.Errorf("redis unindex store rating: %w", err)
	}

	return nil
}

// DeleteAll removes every cached store rating recorded in the index.
func (r *RatingCache) DeleteAll(ctx context.Context) error {
	keys, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis list store rating keys: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del store ratings: %w", err)
		}
	}

	if err := r.client.Del(ctx, indexKey).Err(); err != nil {
		return fmt.Errorf("redis del store rating index: %w", err)
	}

	return nil
}
