package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/checkout-core/internal/checkout/domain"
	"github.com/utafrali/checkout-core/internal/checkout/repository"
)

const keyPrefix = "shipping_listing:"

// cacheEntry wraps the listing so that "not listed" can be cached as well.
type cacheEntry struct {
	Listing *domain.ShippingMethodChannelListing `json:"listing"`
}

// CachedShippingListingStore is a read-through Redis cache in front of a
// ShippingListingRepository. Redis failures fall back to the inner store.
type CachedShippingListingStore struct {
	client *redis.Client
	inner  repository.ShippingListingRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedShippingListingStore creates a new Redis-backed listing cache.
func NewCachedShippingListingStore(client *redis.Client, inner repository.ShippingListingRepository, ttl time.Duration, logger *slog.Logger) *CachedShippingListingStore {
	return &CachedShippingListingStore{
		client: client,
		inner:  inner,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(shippingMethodID, channelID string) string {
	return keyPrefix + shippingMethodID + ":" + channelID
}

// FirstShippingListing returns the cached listing, loading and caching it
// from the inner store on a miss. Absent listings are cached as well.
func (s *CachedShippingListingStore) FirstShippingListing(ctx context.Context, shippingMethodID, channelID string) (*domain.ShippingMethodChannelListing, error) {
	key := cacheKey(shippingMethodID, channelID)

	data, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry cacheEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			return entry.Listing, nil
		}
		s.logger.WarnContext(ctx, "discarding malformed shipping listing cache entry", slog.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		s.logger.ErrorContext(ctx, "redis get shipping listing failed, falling back to store",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	listing, err := s.inner.FirstShippingListing(ctx, shippingMethodID, channelID)
	if err != nil {
		return nil, err
	}

	if err := s.set(ctx, key, listing); err != nil {
		s.logger.ErrorContext(ctx, "failed to cache shipping listing",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return listing, nil
}

func (s *CachedShippingListingStore) set(ctx context.Context, key string, listing *domain.ShippingMethodChannelListing) error {
	data, err := json.Marshal(cacheEntry{Listing: listing})
	if err != nil {
		return fmt.Errorf("marshal shipping listing: %w", err)
	}
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set shipping listing: %w", err)
	}
	return nil
}
