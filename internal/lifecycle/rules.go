package lifecycle

import (
	"time"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
)

const day = 24 * time.Hour

// Rules holds the timing constants applied when an auction is created.
type Rules struct {
	// MinimalPeriodFromRectificationEnd separates rectification end from tender
	// end. Generated periods count it in working days, submitted ones in
	// calendar days.
	MinimalPeriodFromRectificationEnd time.Duration
	// MinimalExpositionPeriod is the shortest allowed tender period.
	MinimalExpositionPeriod       time.Duration
	MinimalExpositionRequiredFrom time.Time
	DGFIDRequiredFrom             time.Time
	// TenderEndBeforeAuction is the working-day gap between tender end and auction start.
	TenderEndBeforeAuction time.Duration
	CutoverHour            int
	Currency               string
}

// DefaultRules returns the production rules anchored to loc.
func DefaultRules(loc *time.Location) Rules {
	if loc == nil {
		loc = time.UTC
	}
	return Rules{
		MinimalPeriodFromRectificationEnd: 5 * day,
		MinimalExpositionPeriod:           7 * day,
		MinimalExpositionRequiredFrom:     time.Date(2017, 11, 17, 0, 0, 0, 0, loc),
		DGFIDRequiredFrom:                 time.Date(2017, 1, 1, 0, 0, 0, 0, loc),
		TenderEndBeforeAuction:            4 * day,
		CutoverHour:                       20,
		Currency:                          "UAH",
	}
}

// LeaseClassification is appended to every item of a lease auction.
var LeaseClassification = auction.Classification{
	Scheme:      "CPVS",
	ID:          "PA01-7",
	Description: "Оренда",
}

// Item classification schemes accepted for lease auctions.
var itemClassificationSchemes = []string{"CAV-PS", "CPV"}

const (
	msgRequired          = "This field is required."
	msgNotAvailable      = "Option not available in this procurementMethodType"
	msgCurrency          = "currency should be only UAH"
	msgTaxHolidaysValue  = "currency of taxHolidays value should be identical to currency of value of auction"
	msgTenderTooShort    = "tenderPeriod should be greater than 6 days"
	msgRectificationEnd  = "rectificationPeriod.endDate should come at least 5 working days earlier than tenderPeriod.endDate"
	msgPauseBetween      = "the pause between tenderPeriod.endDate and auctionPeriod.startDate should be either 3 or 0 days"
	msgClassificationFmt = "Value must be one of %s."
)
