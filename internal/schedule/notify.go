package schedule

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is where due notifications are published.
const DefaultChannel = "auction.check_due"

// DueEvent tells subscribers that an auction reached its next check and must
// be re-evaluated by its owner.
type DueEvent struct {
	AuctionID string `json:"auction_id"`
	NextCheck string `json:"next_check"`
}

// RedisNotifier publishes due events on a Redis channel.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisNotifier constructs a notifier; an empty channel uses DefaultChannel.
func NewRedisNotifier(client redis.UniversalClient, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

// NotifyDue publishes a DueEvent and reports how many subscribers got it.
func (n *RedisNotifier) NotifyDue(ctx context.Context, ev DueEvent) (int64, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}
	receivers, err := n.client.Publish(ctx, n.channel, body).Result()
	if err != nil {
		return 0, fmt.Errorf("schedule: publish %s: %w", ev.AuctionID, err)
	}
	return receivers, nil
}
