package nextcheck

import (
	"context"
	"strings"
	"time"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
)

// ShouldStartAfter returns the earliest instant the auction period p of a
// may be (re)started, or nil when no hint applies.
func (g *Aggregator) ShouldStartAfter(p *auction.AuctionPeriod, a *auction.Auction, now time.Time) *time.Time {
	if p == nil || a == nil || p.EndDate != nil {
		return nil
	}
	if len(a.Lots) > 0 || (a.Status != auction.StatusTendering && a.Status != auction.StatusAuction) {
		return nil
	}
	loc := g.calc.Location()
	var startAfter time.Time
	if end, ok := g.pastAuctionEnd(p, a.NumberOfBids, now); ok {
		startAfter = end
	} else if a.EnquiryPeriod != nil && a.EnquiryPeriod.EndDate != nil {
		startAfter = *a.EnquiryPeriod.EndDate
	} else {
		return nil
	}
	startAfter = g.roundStartAfter(startAfter.In(loc), a, now)
	return &startAfter
}

func (g *Aggregator) pastAuctionEnd(p *auction.AuctionPeriod, bids int, now time.Time) (time.Time, bool) {
	if p.StartDate == nil {
		return time.Time{}, false
	}
	end := auction.CalcAuctionEndTime(bids, *p.StartDate, g.calc.Location())
	return end, now.After(end)
}

// roundStartAfter moves startAfter to the following midnight for auctions
// opened after the rounding policy took effect, except quick sandbox runs.
func (g *Aggregator) roundStartAfter(startAfter time.Time, a *auction.Auction, now time.Time) time.Time {
	reference := now
	if a.EnquiryPeriod != nil && a.EnquiryPeriod.StartDate != nil {
		reference = *a.EnquiryPeriod.StartDate
	}
	quick := g.calc.Config().Sandbox && strings.Contains(a.SubmissionMethodDetails, "quick")
	if !reference.After(g.policy.RoundStartAfterFrom) || quick {
		return startAfter
	}
	midnight := businessdate.Midnight(startAfter)
	if !startAfter.Before(midnight) {
		startAfter = midnight.AddDate(0, 0, 1)
	}
	return startAfter
}

// Computed is the serialisable view of the derived scheduling fields.
type Computed struct {
	NextCheck     string          `json:"next_check,omitempty"`
	AuctionPeriod *ComputedPeriod `json:"auctionPeriod,omitempty"`
	Source        Source          `json:"-"`
}

// ComputedPeriod carries the derived fields of an auction period.
type ComputedPeriod struct {
	ShouldStartAfter string `json:"shouldStartAfter,omitempty"`
}

// Compute evaluates next check and shouldStartAfter for a.
func (g *Aggregator) Compute(ctx context.Context, a *auction.Auction, now time.Time) (Computed, error) {
	res, err := g.Evaluate(ctx, a, now)
	if err != nil {
		return Computed{}, err
	}
	loc := g.calc.Location()
	out := Computed{NextCheck: FormatNextCheck(res.Next, loc), Source: res.Source}
	if a != nil {
		if startAfter := g.ShouldStartAfter(&a.AuctionPeriod, a, now); startAfter != nil {
			out.AuctionPeriod = &ComputedPeriod{ShouldStartAfter: FormatNextCheck(startAfter, loc)}
		}
	}
	return out, nil
}
