// Package schedule persists computed next-check results so that schedulers
// and operators can see when each auction is due.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/nextcheck"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/platform/httpx"
)

const (
	entryPrefix = "auction:"
	entrySuffix = ":schedule"
	dueKey      = "auction:next_check:due"
)

// ErrNotFound is returned when no entry exists for an auction.
var ErrNotFound = fmt.Errorf("schedule: %w", httpx.ErrNotFound)

// Entry is the stored outcome of one next-check evaluation.
type Entry struct {
	AuctionID        string
	NextCheck        string
	ShouldStartAfter string
	Source           nextcheck.Source
	EvaluatedAt      time.Time
	// DeliveredAt is set once the due event of NextCheck was published.
	DeliveredAt time.Time
}

// RedisStore keeps one hash per auction plus a sorted set of due instants.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore constructs the store.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func entryKey(auctionID string) string {
	return entryPrefix + auctionID + entrySuffix
}

// EntryFrom converts a computed view into a storable entry.
func EntryFrom(auctionID string, c nextcheck.Computed, evaluatedAt time.Time) Entry {
	e := Entry{AuctionID: auctionID, NextCheck: c.NextCheck, Source: c.Source, EvaluatedAt: evaluatedAt}
	if c.AuctionPeriod != nil {
		e.ShouldStartAfter = c.AuctionPeriod.ShouldStartAfter
	}
	return e
}

// Save replaces the entry of an auction. An empty NextCheck removes the
// auction from the due index.
func (s *RedisStore) Save(ctx context.Context, e Entry) error {
	if e.AuctionID == "" {
		return errors.New("schedule: auction id required")
	}
	var due *time.Time
	if e.NextCheck != "" {
		at, err := time.Parse(time.RFC3339Nano, e.NextCheck)
		if err != nil {
			return fmt.Errorf("schedule: next check %q: %w", e.NextCheck, err)
		}
		due = &at
	}

	key := entryKey(e.AuctionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"next_check", e.NextCheck,
			"should_start_after", e.ShouldStartAfter,
			"source", string(e.Source),
			"evaluated_at", e.EvaluatedAt.UTC().Format(time.RFC3339Nano),
		)
		if due != nil {
			pipe.ZAdd(ctx, dueKey, redis.Z{Score: float64(due.Unix()), Member: e.AuctionID})
		} else {
			pipe.ZRem(ctx, dueKey, e.AuctionID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule: save %s: %w", e.AuctionID, err)
	}
	return nil
}

// Load returns the stored entry of an auction.
func (s *RedisStore) Load(ctx context.Context, auctionID string) (Entry, error) {
	fields, err := s.client.HGetAll(ctx, entryKey(auctionID)).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("schedule: load %s: %w", auctionID, err)
	}
	if len(fields) == 0 {
		return Entry{}, ErrNotFound
	}
	e := Entry{
		AuctionID:        auctionID,
		NextCheck:        fields["next_check"],
		ShouldStartAfter: fields["should_start_after"],
		Source:           nextcheck.Source(fields["source"]),
	}
	if raw := fields["evaluated_at"]; raw != "" {
		if e.EvaluatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return Entry{}, fmt.Errorf("schedule: evaluated_at %q: %w", raw, err)
		}
	}
	if raw := fields["delivered_at"]; raw != "" {
		if e.DeliveredAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return Entry{}, fmt.Errorf("schedule: delivered_at %q: %w", raw, err)
		}
	}
	return e, nil
}

// Due lists auctions whose next check is at or before until, earliest first.
func (s *RedisStore) Due(ctx context.Context, until time.Time, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	ids, err := s.client.ZRangeByScore(ctx, dueKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(until.Unix(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("schedule: due: %w", err)
	}
	return ids, nil
}

// MarkDelivered records that the due event for nextCheck went out and takes
// the auction off the due index. It reports false, leaving the entry alone,
// when the stored next check no longer equals nextCheck.
func (s *RedisStore) MarkDelivered(ctx context.Context, auctionID, nextCheck string, at time.Time) (bool, error) {
	key := entryKey(auctionID)
	marked := false
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "next_check").Result()
		if errors.Is(err, redis.Nil) || (err == nil && current != nextCheck) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "delivered_at", at.UTC().Format(time.RFC3339Nano))
			pipe.ZRem(ctx, dueKey, auctionID)
			return nil
		})
		if err == nil {
			marked = true
		}
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		// A concurrent Save replaced the entry.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("schedule: mark delivered %s: %w", auctionID, err)
	}
	return marked, nil
}

// Delete drops every trace of an auction.
func (s *RedisStore) Delete(ctx context.Context, auctionID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, entryKey(auctionID))
		pipe.ZRem(ctx, dueKey, auctionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule: delete %s: %w", auctionID, err)
	}
	return nil
}
