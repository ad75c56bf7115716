// Package nextcheck derives the next instant at which an auction must be
// re-evaluated, and the restart hint of its auction period.
package nextcheck

import (
	"context"
	"log/slog"
	"time"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
)

// AwardingNextCheck is the awarding subsystem's contribution to next check.
type AwardingNextCheck interface {
	NextAwardingCheck(ctx context.Context, a *auction.Auction) (*time.Time, error)
}

// AwardingFunc adapts a function to AwardingNextCheck.
type AwardingFunc func(ctx context.Context, a *auction.Auction) (*time.Time, error)

// NextAwardingCheck calls f.
func (f AwardingFunc) NextAwardingCheck(ctx context.Context, a *auction.Auction) (*time.Time, error) {
	return f(ctx, a)
}

// Source names the origin of a next-check candidate.
type Source string

const (
	SourceNone      Source = "none"
	SourceTendering Source = "tendering"
	SourceAuction   Source = "auction"
	SourceLot       Source = "lot"
	SourceAwarding  Source = "awarding"
	SourceComplaint Source = "complaint"
)

// Policy holds the constants of the next-check computation.
type Policy struct {
	ComplaintStandStill            time.Duration
	ComplaintStandStillWorkingDays bool
	// RoundStartAfterFrom enables midnight rounding of shouldStartAfter for
	// auctions whose enquiry period started after it.
	RoundStartAfterFrom time.Time
}

// DefaultPolicy returns the production policy anchored to loc.
func DefaultPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{
		ComplaintStandStill: 3 * 24 * time.Hour,
		RoundStartAfterFrom: time.Date(2016, 6, 1, 0, 0, 0, 0, loc),
	}
}

// Result is the outcome of a next-check evaluation.
type Result struct {
	Next       *time.Time
	Source     Source
	Candidates int
}

type candidate struct {
	at     time.Time
	source Source
}

// Aggregator computes next-check instants. It holds no per-auction state and
// is safe for concurrent use as long as each call gets its own snapshot.
type Aggregator struct {
	calc     *businessdate.Calculator
	policy   Policy
	awarding AwardingNextCheck
	logger   *slog.Logger
}

// NewAggregator constructs an Aggregator. awarding may be nil.
func NewAggregator(calc *businessdate.Calculator, policy Policy, awarding AwardingNextCheck, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{calc: calc, policy: policy, awarding: awarding, logger: logger}
}

// NextCheck returns the earliest pending deadline of a, or nil.
func (g *Aggregator) NextCheck(ctx context.Context, a *auction.Auction, now time.Time) (*time.Time, error) {
	res, err := g.Evaluate(ctx, a, now)
	if err != nil {
		return nil, err
	}
	return res.Next, nil
}

// Evaluate collects all candidates and reports the earliest one with its source.
func (g *Aggregator) Evaluate(ctx context.Context, a *auction.Auction, now time.Time) (Result, error) {
	res := Result{Source: SourceNone}
	if a == nil {
		return res, nil
	}
	loc := g.calc.Location()
	var checks []candidate
	add := func(t time.Time, source Source) {
		checks = append(checks, candidate{at: t.In(loc), source: source})
	}

	switch {
	case a.Status == auction.StatusTendering && a.TenderPeriod != nil && a.TenderPeriod.EndDate != nil:
		add(*a.TenderPeriod.EndDate, SourceTendering)
	case len(a.Lots) == 0 && a.Status == auction.StatusAuction:
		if at, ok := g.auctionDeadline(&a.AuctionPeriod, a.NumberOfBids, now); ok {
			add(at, SourceAuction)
		}
	case len(a.Lots) > 0 && a.Status == auction.StatusAuction:
		for _, lot := range a.Lots {
			if lot.Status != auction.LotStatusActive {
				continue
			}
			if at, ok := g.auctionDeadline(lot.AuctionPeriod, lot.NumberOfBids, now); ok {
				add(at, SourceLot)
			}
		}
	}

	if hint := g.awardingHint(ctx, a); hint != nil {
		add(*hint, SourceAwarding)
	}

	if a.Status.IsActive() {
		complaints := append([]auction.Complaint(nil), a.Complaints...)
		for _, award := range a.Awards {
			complaints = append(complaints, award.Complaints...)
		}
		for _, complaint := range complaints {
			at, ok, err := g.complaintDeadline(complaint, a)
			if err != nil {
				return Result{}, err
			}
			if ok {
				add(at, SourceComplaint)
			}
		}
	}

	res.Candidates = len(checks)
	for _, c := range checks {
		if res.Next == nil || c.at.Before(*res.Next) {
			res.Next = auction.TimePtr(c.at)
			res.Source = c.source
		}
	}
	return res, nil
}

// auctionDeadline applies the start/end rule shared by single and multi-lot auctions.
func (g *Aggregator) auctionDeadline(p *auction.AuctionPeriod, bids int, now time.Time) (time.Time, bool) {
	if p == nil || p.StartDate == nil || p.EndDate != nil {
		return time.Time{}, false
	}
	if now.Before(*p.StartDate) {
		return *p.StartDate, true
	}
	end := auction.CalcAuctionEndTime(bids, *p.StartDate, g.calc.Location())
	if now.Before(end) {
		return end, true
	}
	return time.Time{}, false
}

func (g *Aggregator) awardingHint(ctx context.Context, a *auction.Auction) *time.Time {
	if g.awarding == nil {
		return nil
	}
	hint, err := g.awarding.NextAwardingCheck(ctx, a)
	if err != nil {
		g.logger.Warn("awarding next check unavailable", slog.String("auction_id", a.ID), slog.Any("error", err))
		return nil
	}
	return hint
}

func (g *Aggregator) complaintDeadline(c auction.Complaint, a *auction.Auction) (time.Time, bool, error) {
	var from *time.Time
	switch c.Status {
	case auction.ComplaintStatusClaim:
		from = c.DateSubmitted
	case auction.ComplaintStatusAnswered:
		from = c.DateAnswered
	}
	if from == nil {
		return time.Time{}, false, nil
	}
	opts := []businessdate.Option{businessdate.For(a)}
	if g.policy.ComplaintStandStillWorkingDays {
		opts = append(opts, businessdate.WorkingDays())
	}
	at, err := g.calc.Calculate(*from, g.policy.ComplaintStandStill, opts...)
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// FormatNextCheck renders t as an RFC 3339 instant in loc, or "" for nil.
func FormatNextCheck(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	if loc != nil {
		return t.In(loc).Format(time.RFC3339Nano)
	}
	return t.Format(time.RFC3339Nano)
}
