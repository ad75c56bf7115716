package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/app"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/nextcheck"
)

type nextCheckResult struct {
	nextcheck.Computed
	Source nextcheck.Source `json:"source"`
}

func runNextCheck(ctx context.Context, args []string, env Env) int {
	const name = "next-check"
	fs := newFlagSet(name, env.Stderr)
	var cal calendarFlags
	cal.register(fs)
	var awardingHint string
	fs.StringVar(&awardingHint, "awarding-hint", "", "next check reported by awarding, RFC 3339")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, calc, err := cal.setup(fs)
	if err != nil {
		return fail(env.Stderr, name, err)
	}
	now, err := cal.evaluationTime()
	if err != nil {
		return fail(env.Stderr, name, err)
	}
	var hint nextcheck.AwardingNextCheck
	if awardingHint != "" {
		at, err := time.Parse(time.RFC3339Nano, awardingHint)
		if err != nil {
			return fail(env.Stderr, name, fmt.Errorf("invalid --awarding-hint %q: %w", awardingHint, err))
		}
		hint = nextcheck.AwardingFunc(func(context.Context, *auction.Auction) (*time.Time, error) {
			return &at, nil
		})
	}
	a, err := readAuction(fs.Args(), env.Stdin)
	if err != nil {
		return fail(env.Stderr, name, err)
	}

	logger := app.NewLoggerTo(env.Stderr, cfg)
	aggregator := nextcheck.NewAggregator(calc, cfg.NextCheckPolicy(calc.Location()), hint, logger)
	computed, err := aggregator.Compute(ctx, a, now)
	if err != nil {
		return fail(env.Stderr, name, err)
	}
	if err := writeJSON(env.Stdout, nextCheckResult{Computed: computed, Source: computed.Source}); err != nil {
		return fail(env.Stderr, name, err)
	}
	return ExitOK
}
