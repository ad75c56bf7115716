// Package lifecycle derives the periods of a lease auction at creation time.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
)

// Initializer computes and cross-checks the periods of a new auction.
type Initializer struct {
	calc     *businessdate.Calculator
	rules    Rules
	validate *validator.Validate
}

// NewInitializer constructs an Initializer.
func NewInitializer(calc *businessdate.Calculator, rules Rules) *Initializer {
	return &Initializer{calc: calc, rules: rules, validate: newValidator()}
}

// Create validates a and derives its tender, enquiry and rectification
// periods from the desired auctionPeriod.startDate. It returns
// auction.ValidationErrors when the request is rejected, in which case the
// periods are left untouched.
func (i *Initializer) Create(a *auction.Auction, now time.Time) error {
	if errs := i.Validate(a, now); len(errs) > 0 {
		return errs
	}
	return i.Initialize(a, now)
}

// Initialize mutates a in place without running the field validators.
func (i *Initializer) Initialize(a *auction.Auction, now time.Time) error {
	if a == nil || a.AuctionPeriod.StartDate == nil {
		return fmt.Errorf("%w: auctionPeriod.startDate is required", auction.ErrInvalidInput)
	}
	loc := i.calc.Location()
	desired := *a.AuctionPeriod.StartDate

	start := businessdate.Localize(desired, loc)
	cutover := businessdate.SetSpecificHour(start, i.rules.CutoverHour).AddDate(0, 0, -1)
	pause := start.Sub(cutover)
	endDate, err := i.calc.Calculate(start, -pause, businessdate.For(a))
	if err != nil {
		return err
	}
	tenderEnd, err := i.calc.Calculate(desired, -i.rules.TenderEndBeforeAuction,
		businessdate.WorkingDays(), businessdate.SpecificHour(i.rules.CutoverHour), businessdate.For(a))
	if err != nil {
		return err
	}

	if a.TenderPeriod != nil && a.TenderPeriod.EndDate != nil {
		if !businessdate.SameDate(*a.TenderPeriod.EndDate, tenderEnd, loc) {
			var errs auction.ValidationErrors
			errs.Add(auction.LocationBody, auction.NameData, msgPauseBetween)
			return errs
		}
		a.TenderPeriod.StartDate = auction.TimePtr(now)
		a.TenderPeriod.EndDate = auction.TimePtr(tenderEnd)
	} else {
		a.TenderPeriod = &auction.Period{
			StartDate: auction.TimePtr(now),
			EndDate:   auction.TimePtr(endDate),
		}
	}

	if a.EnquiryPeriod == nil {
		a.EnquiryPeriod = &auction.Period{}
	}
	a.EnquiryPeriod.StartDate = auction.TimePtr(now)
	a.EnquiryPeriod.EndDate = auction.TimePtr(endDate)

	if a.RectificationPeriod == nil {
		period, err := i.GenerateRectificationPeriod(a, now)
		if err != nil {
			return err
		}
		a.RectificationPeriod = period
	}
	a.RectificationPeriod.StartDate = auction.TimePtr(now)

	a.Date = auction.TimePtr(now)
	a.AuctionPeriod.StartDate = nil
	a.AuctionPeriod.EndDate = nil
	for n := range a.Lots {
		a.Lots[n].Date = auction.TimePtr(now)
	}
	for n := range a.Items {
		EnsureLeaseClassification(&a.Items[n])
	}
	fillLeaseTermIDs(a.ContractTerms)
	return nil
}

// GenerateRectificationPeriod returns the rectification period of a with
// its end derived from tenderPeriod.endDate. The start date is left to the
// caller.
func (i *Initializer) GenerateRectificationPeriod(a *auction.Auction, now time.Time) (*auction.RectificationPeriod, error) {
	if a == nil || a.TenderPeriod == nil || a.TenderPeriod.EndDate == nil {
		return nil, fmt.Errorf("%w: tenderPeriod.endDate is required", auction.ErrInvalidInput)
	}
	period := a.RectificationPeriod
	if period == nil {
		period = &auction.RectificationPeriod{}
	}
	if period.EndDate == nil {
		end, err := i.rectificationEnd(a)
		if err != nil {
			return nil, err
		}
		if !end.After(now) {
			end = now
		}
		period.EndDate = auction.TimePtr(end)
	}
	period.InvalidationDate = nil
	return period, nil
}

func (i *Initializer) rectificationEnd(a *auction.Auction) (time.Time, error) {
	end, err := i.calc.Calculate(*a.TenderPeriod.EndDate, -i.rules.MinimalPeriodFromRectificationEnd,
		businessdate.WorkingDays(), businessdate.For(a))
	if err != nil {
		return time.Time{}, err
	}
	return businessdate.Localize(end, i.calc.Location()), nil
}

// EnsureLeaseClassification appends LeaseClassification to item unless it
// is already present. It reports whether the item changed.
func EnsureLeaseClassification(item *auction.Item) bool {
	for _, c := range item.AdditionalClassifications {
		if c.Scheme == LeaseClassification.Scheme && c.ID == LeaseClassification.ID {
			return false
		}
	}
	item.AdditionalClassifications = append(item.AdditionalClassifications, LeaseClassification)
	return true
}

func fillLeaseTermIDs(terms *auction.ContractTerms) {
	if terms == nil {
		return
	}
	for n := range terms.LeaseTerms.TaxHolidays {
		if terms.LeaseTerms.TaxHolidays[n].ID == "" {
			terms.LeaseTerms.TaxHolidays[n].ID = newHexID()
		}
	}
	for n := range terms.LeaseTerms.EscalationClauses {
		if terms.LeaseTerms.EscalationClauses[n].ID == "" {
			terms.LeaseTerms.EscalationClauses[n].ID = newHexID()
		}
	}
}

func newHexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
