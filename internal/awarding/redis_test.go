package awarding

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/nextcheck"
)

var _ nextcheck.AwardingNextCheck = (*RedisHints)(nil)

func newTestHints(t *testing.T, ttl time.Duration) (*RedisHints, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisHints(client, ttl), mr
}

func TestPublishAndLoadHint(t *testing.T) {
	hints, mr := newTestHints(t, time.Hour)
	ctx := context.Background()
	a := &auction.Auction{ID: "a1"}

	got, err := hints.NextAwardingCheck(ctx, a)
	require.NoError(t, err)
	assert.Nil(t, got)

	at := time.Date(2021, 3, 2, 12, 0, 0, 0, time.FixedZone("EET", 2*60*60))
	require.NoError(t, hints.Publish(ctx, "a1", &at))
	assert.Equal(t, time.Hour, mr.TTL("awarding:next_check:a1"))

	got, err = hints.NextAwardingCheck(ctx, a)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(at))

	require.NoError(t, hints.Publish(ctx, "a1", nil))
	assert.False(t, mr.Exists("awarding:next_check:a1"))
}

func TestHintExpires(t *testing.T) {
	hints, mr := newTestHints(t, time.Minute)
	ctx := context.Background()
	at := time.Date(2021, 3, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, hints.Publish(ctx, "a1", &at))

	mr.FastForward(2 * time.Minute)
	got, err := hints.NextAwardingCheck(ctx, &auction.Auction{ID: "a1"})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHintErrors(t *testing.T) {
	hints, mr := newTestHints(t, 0)
	ctx := context.Background()

	assert.ErrorIs(t, hints.Publish(ctx, "", nil), ErrMissingAuctionID)

	require.NoError(t, mr.Set("awarding:next_check:a1", "tomorrow"))
	_, err := hints.NextAwardingCheck(ctx, &auction.Auction{ID: "a1"})
	require.Error(t, err)

	got, err := hints.NextAwardingCheck(ctx, &auction.Auction{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAggregatorIgnoresUnavailableHints(t *testing.T) {
	hints, mr := newTestHints(t, 0)
	ctx := context.Background()
	a := &auction.Auction{
		ID:           "a1",
		Status:       auction.StatusTendering,
		TenderPeriod: &auction.Period{EndDate: auction.TimePtr(time.Date(2021, 3, 10, 10, 0, 0, 0, time.UTC))},
	}
	hint := time.Date(2021, 3, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, hints.Publish(ctx, a.ID, &hint))

	calc := businessdate.NewCalculator(businessdate.Config{Location: time.UTC})
	agg := nextcheck.NewAggregator(calc, nextcheck.DefaultPolicy(time.UTC), hints, nil)
	now := time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)

	got, err := agg.NextCheck(ctx, a, now)
	require.NoError(t, err)
	assert.True(t, got.Equal(hint))

	mr.Close()
	got, err = agg.NextCheck(ctx, a, now)
	require.NoError(t, err)
	assert.True(t, got.Equal(*a.TenderPeriod.EndDate))
}
