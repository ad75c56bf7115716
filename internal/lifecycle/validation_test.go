package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
)

func fieldNames(errs auction.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Name] = e.Description
	}
	return out
}

func TestValidateAcceptsWellFormedAuction(t *testing.T) {
	initializer := newTestInitializer(t)
	errs := initializer.Validate(newLeaseAuction(at(2021, 3, 15, 10, 0)), at(2021, 3, 1, 9, 0))
	assert.Empty(t, errs)
}

func TestValidateAccumulatesErrors(t *testing.T) {
	initializer := newTestInitializer(t)
	a := newLeaseAuction(at(2021, 3, 15, 10, 0))
	a.Status = "active.unknown"
	a.LotIdentifier = ""
	a.Value.Currency = "USD"
	a.Lots = []auction.Lot{{ID: "l1"}}
	a.Features = []auction.Feature{{Code: "f1"}}
	a.Items = append(a.Items, auction.Item{Classification: auction.Classification{Scheme: "CPVS", ID: "PA01-7"}})
	a.ContractTerms.Type = "sale"
	a.AuctionPeriod.StartDate = nil

	errs := initializer.Validate(a, at(2021, 3, 1, 9, 0))
	require.NotEmpty(t, errs)
	names := fieldNames(errs)

	assert.Contains(t, names, "status")
	assert.Equal(t, msgRequired, names["lotIdentifier"])
	assert.Equal(t, msgCurrency, names["value"])
	assert.Equal(t, msgNotAvailable, names["lots"])
	assert.Equal(t, msgNotAvailable, names["features"])
	assert.Equal(t, "Value must be one of CAV-PS, CPV.", names["items[1].classification.scheme"])
	assert.Equal(t, "Value must be lease.", names["contractTerms.type"])
	assert.Equal(t, msgRequired, names["auctionPeriod.startDate"])
	assert.Equal(t, msgTaxHolidaysValue, names["contractTerms.leaseTerms.taxHolidays[0].value"])
}

func TestValidateRequiresStructuralFields(t *testing.T) {
	initializer := newTestInitializer(t)
	a := &auction.Auction{
		LotIdentifier: "LOT-001",
		AuctionPeriod: auction.AuctionPeriod{Period: auction.Period{StartDate: auction.TimePtr(at(2021, 3, 15, 10, 0))}},
	}
	names := fieldNames(initializer.Validate(a, at(2021, 3, 1, 9, 0)))
	assert.Equal(t, msgRequired, names["items"])
	assert.Equal(t, msgRequired, names["value"])
	assert.Equal(t, msgRequired, names["contractTerms"])
}

func TestValidateSkipsLotIdentifierForOldAuctions(t *testing.T) {
	initializer := newTestInitializer(t)
	a := newLeaseAuction(at(2016, 3, 15, 10, 0))
	a.LotIdentifier = ""
	a.Date = auction.TimePtr(at(2016, 3, 1, 9, 0))
	assert.Empty(t, initializer.Validate(a, at(2021, 3, 1, 9, 0)))
}

func TestValidateAllowsRevisedAuctionWithoutStartDate(t *testing.T) {
	initializer := newTestInitializer(t)
	a := newLeaseAuction(at(2021, 3, 15, 10, 0))
	a.AuctionPeriod.StartDate = nil
	a.Revisions = 3
	assert.Empty(t, initializer.Validate(a, at(2021, 3, 1, 9, 0)))
}

func TestValidateTenderPeriod(t *testing.T) {
	initializer := newTestInitializer(t)
	now := at(2021, 3, 1, 9, 0)
	a := newLeaseAuction(at(2021, 3, 15, 10, 0))

	a.TenderPeriod = &auction.Period{StartDate: auction.TimePtr(now), EndDate: auction.TimePtr(at(2021, 3, 5, 9, 0))}
	assert.EqualError(t, initializer.ValidateTenderPeriod(a, now), msgTenderTooShort)

	a.TenderPeriod.EndDate = auction.TimePtr(at(2021, 3, 8, 9, 0))
	assert.NoError(t, initializer.ValidateTenderPeriod(a, now))

	a.TenderPeriod.EndDate = auction.TimePtr(at(2021, 3, 5, 9, 0))
	a.Date = auction.TimePtr(at(2017, 6, 1, 0, 0))
	assert.NoError(t, initializer.ValidateTenderPeriod(a, now), "exposition rule not yet in force")

	a.TenderPeriod = &auction.Period{EndDate: auction.TimePtr(at(2021, 3, 5, 9, 0))}
	assert.NoError(t, initializer.ValidateTenderPeriod(a, now))
}

func TestValidateRectificationPeriod(t *testing.T) {
	initializer := newTestInitializer(t)
	now := at(2021, 3, 1, 9, 0)
	a := newLeaseAuction(at(2021, 3, 15, 10, 0))
	a.TenderPeriod = &auction.Period{StartDate: auction.TimePtr(now), EndDate: auction.TimePtr(at(2021, 3, 9, 20, 0))}

	a.RectificationPeriod = &auction.RectificationPeriod{Period: auction.Period{
		StartDate: auction.TimePtr(now),
		EndDate:   auction.TimePtr(at(2021, 3, 5, 0, 0)),
	}}
	assert.EqualError(t, initializer.ValidateRectificationPeriod(a), msgRectificationEnd)

	a.RectificationPeriod.EndDate = auction.TimePtr(at(2021, 3, 2, 12, 0))
	assert.NoError(t, initializer.ValidateRectificationPeriod(a))

	a.RectificationPeriod.StartDate = nil
	a.RectificationPeriod.EndDate = auction.TimePtr(at(2021, 3, 9, 0, 0))
	assert.NoError(t, initializer.ValidateRectificationPeriod(a))
}

func TestValidateRectificationPeriodCountsCalendarDays(t *testing.T) {
	initializer := newTestInitializer(t)
	now := at(2021, 3, 1, 9, 0)
	a := newLeaseAuction(at(2021, 3, 20, 10, 0))
	a.TenderPeriod = &auction.Period{StartDate: auction.TimePtr(now), EndDate: auction.TimePtr(at(2021, 3, 15, 20, 0))}
	a.RectificationPeriod = &auction.RectificationPeriod{Period: auction.Period{StartDate: auction.TimePtr(now)}}

	// Six calendar days but only four working days before the tender end.
	a.RectificationPeriod.EndDate = auction.TimePtr(at(2021, 3, 9, 20, 0))
	assert.NoError(t, initializer.ValidateRectificationPeriod(a))

	a.RectificationPeriod.EndDate = auction.TimePtr(at(2021, 3, 10, 20, 0))
	assert.NoError(t, initializer.ValidateRectificationPeriod(a))

	a.RectificationPeriod.EndDate = auction.TimePtr(at(2021, 3, 10, 20, 1))
	assert.EqualError(t, initializer.ValidateRectificationPeriod(a), msgRectificationEnd)

	// The generator still counts working days.
	generated, err := initializer.GenerateRectificationPeriod(&auction.Auction{TenderPeriod: a.TenderPeriod}, now)
	require.NoError(t, err)
	assert.True(t, generated.EndDate.Equal(at(2021, 3, 8, 20, 0)), "got %s", generated.EndDate)
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules(nil)
	assert.Equal(t, 20, rules.CutoverHour)
	assert.Equal(t, 4*24*time.Hour, rules.TenderEndBeforeAuction)
	assert.Equal(t, time.UTC, rules.DGFIDRequiredFrom.Location())
}
