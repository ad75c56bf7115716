// Package awarding stores the awarding subsystem's next-check hints in Redis
// and serves them to the next-check aggregator.
package awarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
)

const keyPrefix = "awarding:next_check:"

// ErrMissingAuctionID is returned when a hint cannot be keyed.
var ErrMissingAuctionID = errors.New("awarding: auction id required")

// RedisHints keeps one hint per auction. Hints expire after ttl so a dead
// awarding process cannot pin a stale deadline forever.
type RedisHints struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisHints constructs the store. A zero ttl keeps hints until replaced.
func NewRedisHints(client redis.UniversalClient, ttl time.Duration) *RedisHints {
	return &RedisHints{client: client, ttl: ttl}
}

func key(auctionID string) string {
	return keyPrefix + auctionID
}

// Publish records the awarding next check of an auction. A nil at clears it.
func (h *RedisHints) Publish(ctx context.Context, auctionID string, at *time.Time) error {
	if auctionID == "" {
		return ErrMissingAuctionID
	}
	if at == nil {
		if err := h.client.Del(ctx, key(auctionID)).Err(); err != nil {
			return fmt.Errorf("awarding: clear hint: %w", err)
		}
		return nil
	}
	if err := h.client.Set(ctx, key(auctionID), at.Format(time.RFC3339Nano), h.ttl).Err(); err != nil {
		return fmt.Errorf("awarding: publish hint: %w", err)
	}
	return nil
}

// NextAwardingCheck returns the stored hint for a, or nil when none exists.
func (h *RedisHints) NextAwardingCheck(ctx context.Context, a *auction.Auction) (*time.Time, error) {
	if h == nil || h.client == nil || a == nil || a.ID == "" {
		return nil, nil
	}
	raw, err := h.client.Get(ctx, key(a.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("awarding: load hint: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("awarding: decode hint %q: %w", raw, err)
	}
	return &at, nil
}
