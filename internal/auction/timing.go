package auction

import (
	"time"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
)

// Auction round durations used to estimate when an auction finishes.
const (
	BidderTime            = 6 * time.Minute
	ServiceTime           = 9 * time.Minute
	AuctionStandStillTime = 15 * time.Minute
	EndTimeRounding       = 15 * time.Minute
)

// CalcAuctionEndTime estimates the end of an auction that starts at start
// with the given number of bids. The result is rounded up to the next
// EndTimeRounding boundary counted from local midnight in loc.
func CalcAuctionEndTime(bids int, start time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = start.Location()
	}
	end := start.Add(time.Duration(bids)*BidderTime + ServiceTime + AuctionStandStillTime).In(loc)
	end = end.Add(-time.Duration(end.Nanosecond()))
	elapsed := end.Sub(businessdate.Midnight(end))
	rounded := (elapsed + EndTimeRounding - time.Second) / EndTimeRounding * EndTimeRounding
	return end.Add(rounded - elapsed)
}
