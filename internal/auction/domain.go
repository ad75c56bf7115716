package auction

import (
	"strings"
	"time"
)

// Status enumerates auction lifecycle states.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusTendering     Status = "active.tendering"
	StatusAuction       Status = "active.auction"
	StatusQualification Status = "active.qualification"
	StatusAwarded       Status = "active.awarded"
	StatusComplete      Status = "complete"
	StatusCancelled     Status = "cancelled"
	StatusUnsuccessful  Status = "unsuccessful"
)

// IsActive reports whether the status belongs to the active.* family.
func (s Status) IsActive() bool {
	return strings.HasPrefix(string(s), "active")
}

// IsTerminal reports whether the auction can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusCancelled || s == StatusUnsuccessful
}

// Complaint statuses that hold a stand-still deadline.
const (
	ComplaintStatusClaim    = "claim"
	ComplaintStatusAnswered = "answered"
)

// LotStatusActive marks a lot still taking part in the auction.
const LotStatusActive = "active"

// Period is a start/end window. Either bound may be absent.
type Period struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// AuctionPeriod is the window of the auction itself.
type AuctionPeriod struct {
	Period
}

// RectificationPeriod is the window during which the main fields may be edited.
type RectificationPeriod struct {
	Period
	InvalidationDate *time.Time `json:"invalidationDate,omitempty"`
}

// Lot is an independently scheduled sub-auction.
type Lot struct {
	ID            string         `json:"id"`
	Status        string         `json:"status,omitempty"`
	Date          *time.Time     `json:"date,omitempty"`
	AuctionPeriod *AuctionPeriod `json:"auctionPeriod,omitempty"`
	NumberOfBids  int            `json:"numberOfBids,omitempty"`
}

// Complaint is read for its stand-still deadline only.
type Complaint struct {
	ID            string     `json:"id,omitempty"`
	Status        string     `json:"status"`
	DateSubmitted *time.Time `json:"dateSubmitted,omitempty"`
	DateAnswered  *time.Time `json:"dateAnswered,omitempty"`
}

// Award carries its own complaints.
type Award struct {
	ID         string      `json:"id,omitempty"`
	Status     string      `json:"status,omitempty"`
	Complaints []Complaint `json:"complaints,omitempty"`
}

// Classification is a scheme/code pair attached to an item.
type Classification struct {
	Scheme      string `json:"scheme" validate:"required"`
	ID          string `json:"id" validate:"required"`
	Description string `json:"description,omitempty"`
}

// Item is a leased property.
type Item struct {
	ID                        string           `json:"id,omitempty"`
	Description               string           `json:"description,omitempty"`
	Classification            Classification   `json:"classification"`
	AdditionalClassifications []Classification `json:"additionalClassifications,omitempty" validate:"dive"`
}

// Value is a monetary amount. Amount keeps the decimal representation.
type Value struct {
	Amount                string `json:"amount" validate:"required,numeric"`
	Currency              string `json:"currency" validate:"required,len=3"`
	ValueAddedTaxIncluded bool   `json:"valueAddedTaxIncluded"`
}

// TaxHolidays describes a rent-free interval of the lease.
type TaxHolidays struct {
	ID                  string `json:"id,omitempty"`
	TaxHolidaysDuration string `json:"taxHolidaysDuration" validate:"required"`
	Conditions          string `json:"conditions" validate:"required"`
	Value               Value  `json:"value"`
}

// EscalationClauses describes periodic rent increases.
type EscalationClauses struct {
	ID                       string `json:"id,omitempty"`
	EscalationPeriodicity    string `json:"escalationPeriodicity" validate:"required"`
	EscalationStepPercentage string `json:"escalationStepPercentage,omitempty"`
	Conditions               string `json:"conditions" validate:"required"`
}

// LeaseTerms groups the lease contract conditions.
type LeaseTerms struct {
	LeaseDuration     string              `json:"leaseDuration" validate:"required"`
	TaxHolidays       []TaxHolidays       `json:"taxHolidays,omitempty" validate:"dive"`
	EscalationClauses []EscalationClauses `json:"escalationClauses,omitempty" validate:"dive"`
}

// ContractTerms describes the contract offered to the winner.
type ContractTerms struct {
	Type       string     `json:"type" validate:"required,eq=lease"`
	LeaseTerms LeaseTerms `json:"leaseTerms"`
}

// Feature is accepted on input only to be rejected by validation.
type Feature struct {
	Code  string `json:"code,omitempty"`
	Title string `json:"title,omitempty"`
}

// Auction is the subset of a lease auction that drives its timeline.
type Auction struct {
	ID                       string               `json:"id,omitempty"`
	Status                   Status               `json:"status" validate:"omitempty,oneof=draft active.tendering active.auction active.qualification active.awarded complete cancelled unsuccessful"`
	Date                     *time.Time           `json:"date,omitempty"`
	EnquiryPeriod            *Period              `json:"enquiryPeriod,omitempty"`
	TenderPeriod             *Period              `json:"tenderPeriod,omitempty"`
	RectificationPeriod      *RectificationPeriod `json:"rectificationPeriod,omitempty"`
	AuctionPeriod            AuctionPeriod        `json:"auctionPeriod"`
	Lots                     []Lot                `json:"lots,omitempty"`
	NumberOfBids             int                  `json:"numberOfBids,omitempty" validate:"gte=0"`
	Complaints               []Complaint          `json:"complaints,omitempty"`
	Awards                   []Award              `json:"awards,omitempty"`
	Items                    []Item               `json:"items" validate:"required,min=1,dive"`
	Features                 []Feature            `json:"features,omitempty"`
	Value                    *Value               `json:"value" validate:"required"`
	LotIdentifier            string               `json:"lotIdentifier,omitempty"`
	ProcurementMethodDetails string               `json:"procurementMethodDetails,omitempty"`
	SubmissionMethodDetails  string               `json:"submissionMethodDetails,omitempty"`
	MinNumberOfQualifiedBids int                  `json:"minNumberOfQualifiedBids,omitempty" validate:"omitempty,oneof=1 2"`
	TenderAttempts           int                  `json:"tenderAttempts,omitempty" validate:"omitempty,min=1,max=10"`
	ContractTerms            *ContractTerms       `json:"contractTerms" validate:"required"`
	Revisions                int                  `json:"revisions,omitempty"`
}

// AcceleratorDetails exposes procurementMethodDetails to the date calculator.
func (a *Auction) AcceleratorDetails() string {
	if a == nil {
		return ""
	}
	return a.ProcurementMethodDetails
}

// CreationDate returns the date the auction was created, or fallback when
// it has not been stored yet.
func (a *Auction) CreationDate(fallback time.Time) time.Time {
	if a != nil && a.Date != nil {
		return *a.Date
	}
	return fallback
}

// TimePtr returns a pointer to a copy of t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
