package auction

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kyiv = time.FixedZone("EET", 2*60*60)

func TestCalcAuctionEndTime(t *testing.T) {
	tests := []struct {
		name  string
		bids  int
		start time.Time
		want  time.Time
	}{
		{"no bids", 0, time.Date(2021, 3, 10, 11, 0, 0, 0, kyiv), time.Date(2021, 3, 10, 11, 30, 0, 0, kyiv)},
		{"exact boundary", 1, time.Date(2021, 3, 10, 11, 0, 0, 0, kyiv), time.Date(2021, 3, 10, 11, 30, 0, 0, kyiv)},
		{"rounds up", 2, time.Date(2021, 3, 10, 11, 0, 0, 0, kyiv), time.Date(2021, 3, 10, 11, 45, 0, 0, kyiv)},
		{"drops sub-second part", 1, time.Date(2021, 3, 10, 11, 0, 30, 500, kyiv), time.Date(2021, 3, 10, 11, 45, 0, 0, kyiv)},
		{"normalises zone", 2, time.Date(2021, 3, 10, 9, 0, 0, 0, time.UTC), time.Date(2021, 3, 10, 11, 45, 0, 0, kyiv)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CalcAuctionEndTime(tc.bids, tc.start, kyiv)
			assert.True(t, got.Equal(tc.want), "got %s want %s", got, tc.want)
			assert.Equal(t, kyiv, got.Location())
		})
	}
}

func TestStatusIsActive(t *testing.T) {
	assert.True(t, StatusTendering.IsActive())
	assert.True(t, StatusAwarded.IsActive())
	assert.False(t, StatusDraft.IsActive())
	assert.False(t, StatusComplete.IsActive())
}

func TestStatusIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusComplete, StatusCancelled, StatusUnsuccessful} {
		assert.True(t, s.IsTerminal(), s)
	}
	for _, s := range []Status{StatusDraft, StatusTendering, StatusAwarded} {
		assert.False(t, s.IsTerminal(), s)
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	require.NoError(t, errs.Err())

	errs.Add(LocationBody, NameData, "the pause is wrong")
	errs.AddField("value", "currency should be only UAH")

	err := errs.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, http.StatusUnprocessableEntity, errs.Status())
	assert.Equal(t, "auction: data: the pause is wrong; value: currency should be only UAH", err.Error())

	var got ValidationErrors
	require.True(t, errors.As(err, &got))
	assert.Len(t, got, 2)
}

func TestAuctionDecodeKeepsOptionalPeriods(t *testing.T) {
	raw := []byte(`{
		"status": "active.tendering",
		"procurementMethodDetails": "quick, accelerator=1440",
		"tenderPeriod": {"endDate": "2021-03-10T10:00:00+02:00"},
		"auctionPeriod": {"startDate": "2021-03-15T10:00:00+02:00"},
		"items": [{"classification": {"scheme": "CAV-PS", "id": "04000000-8"}}]
	}`)
	var a Auction
	require.NoError(t, json.Unmarshal(raw, &a))
	assert.Nil(t, a.EnquiryPeriod)
	require.NotNil(t, a.TenderPeriod)
	assert.Nil(t, a.TenderPeriod.StartDate)
	require.NotNil(t, a.TenderPeriod.EndDate)
	assert.Equal(t, "quick, accelerator=1440", a.AcceleratorDetails())
	assert.True(t, a.AuctionPeriod.StartDate.Equal(time.Date(2021, 3, 15, 10, 0, 0, 0, kyiv)))

	fallback := time.Date(2022, 1, 1, 0, 0, 0, 0, kyiv)
	assert.Equal(t, fallback, a.CreationDate(fallback))
}
