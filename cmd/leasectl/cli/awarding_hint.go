package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/app"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/awarding"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/platform/cache"
)

type awardingHintResult struct {
	AuctionID string `json:"auctionId"`
	NextCheck string `json:"next_check,omitempty"`
	Cleared   bool   `json:"cleared,omitempty"`
}

func runAwardingHint(ctx context.Context, args []string, env Env) int {
	const name = "awarding-hint"
	fs := newFlagSet(name, env.Stderr)
	var (
		auctionID string
		at        string
		remove    bool
		redisAddr string
		ttl       time.Duration
	)
	fs.StringVar(&auctionID, "auction-id", "", "auction to publish the hint for")
	fs.StringVar(&at, "at", "", "next awarding check, RFC 3339")
	fs.BoolVar(&remove, "clear", false, "remove the hint")
	fs.StringVar(&redisAddr, "redis", "", "Redis address (default: REDIS_ADDR)")
	fs.DurationVar(&ttl, "ttl", 0, "hint lifetime (default: AWARDING_HINT_TTL)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	if auctionID == "" {
		return fail(env.Stderr, name, errors.New("--auction-id is required"))
	}
	if remove == (at != "") {
		return fail(env.Stderr, name, errors.New("exactly one of --at or --clear is required"))
	}
	var next *time.Time
	if at != "" {
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return fail(env.Stderr, name, fmt.Errorf("invalid --at %q: %w", at, err))
		}
		next = &parsed
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		return fail(env.Stderr, name, err)
	}
	if !fs.Changed("ttl") {
		ttl = cfg.AwardingHintTTL
	}
	client := env.Redis
	if client == nil {
		if redisAddr == "" {
			redisAddr = cfg.RedisAddr
		}
		rc, err := cache.New(ctx, redisAddr)
		if err != nil {
			return fail(env.Stderr, name, err)
		}
		defer rc.Close()
		client = rc
	}

	if err := awarding.NewRedisHints(client, ttl).Publish(ctx, auctionID, next); err != nil {
		return fail(env.Stderr, name, err)
	}
	out := awardingHintResult{AuctionID: auctionID, Cleared: next == nil}
	if next != nil {
		out.NextCheck = next.Format(time.RFC3339Nano)
	}
	if err := writeJSON(env.Stdout, out); err != nil {
		return fail(env.Stderr, name, err)
	}
	return ExitOK
}
