package lifecycle

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/auction"
	"github.com/openprocurement/openprocurement.auctions.lease/internal/businessdate"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a creation request and reports every problem found.
func (i *Initializer) Validate(a *auction.Auction, now time.Time) auction.ValidationErrors {
	var errs auction.ValidationErrors
	if a == nil {
		errs.Add(auction.LocationBody, auction.NameData, msgRequired)
		return errs
	}
	errs.Merge(i.validateStruct(a))

	if a.Revisions == 0 && a.AuctionPeriod.StartDate == nil {
		errs.AddField("auctionPeriod.startDate", msgRequired)
	}
	if a.Value != nil && a.Value.Currency != "" && a.Value.Currency != i.rules.Currency {
		errs.AddField("value", msgCurrency)
	}
	if a.ContractTerms != nil && a.Value != nil {
		for n, holidays := range a.ContractTerms.LeaseTerms.TaxHolidays {
			if holidays.Value.Currency != a.Value.Currency {
				errs.AddField(fmt.Sprintf("contractTerms.leaseTerms.taxHolidays[%d].value", n), msgTaxHolidaysValue)
			}
		}
	}
	if strings.TrimSpace(a.LotIdentifier) == "" && a.CreationDate(now).After(i.rules.DGFIDRequiredFrom) {
		errs.AddField("lotIdentifier", msgRequired)
	}
	if len(a.Lots) > 0 {
		errs.AddField("lots", msgNotAvailable)
	}
	if len(a.Features) > 0 {
		errs.AddField("features", msgNotAvailable)
	}
	for n, item := range a.Items {
		scheme := item.Classification.Scheme
		if scheme != "" && !containsScheme(itemClassificationSchemes, scheme) {
			errs.AddField(fmt.Sprintf("items[%d].classification.scheme", n),
				fmt.Sprintf(msgClassificationFmt, strings.Join(itemClassificationSchemes, ", ")))
		}
	}
	if err := i.ValidateTenderPeriod(a, now); err != nil {
		errs.AddField("tenderPeriod", err.Error())
	}
	if err := i.ValidateRectificationPeriod(a); err != nil {
		errs.AddField("rectificationPeriod", err.Error())
	}
	return errs
}

func (i *Initializer) validateStruct(a *auction.Auction) auction.ValidationErrors {
	var errs auction.ValidationErrors
	err := i.validate.Struct(a)
	if err == nil {
		return errs
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add(auction.LocationBody, auction.NameData, err.Error())
		return errs
	}
	for _, fe := range fieldErrs {
		errs.AddField(fieldPath(fe.Namespace()), describeFieldError(fe))
	}
	return errs
}

func fieldPath(namespace string) string {
	if idx := strings.IndexByte(namespace, '.'); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "oneof":
		return fmt.Sprintf("Value must be one of %s.", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eq":
		return fmt.Sprintf("Value must be %s.", fe.Param())
	case "min":
		return fmt.Sprintf("Please provide at least %s item(s).", fe.Param())
	case "max":
		return fmt.Sprintf("Value should be less than or equal to %s.", fe.Param())
	case "numeric":
		return "Number '" + fmt.Sprint(fe.Value()) + "' failed to convert to a decimal."
	default:
		return fmt.Sprintf("Invalid value (%s).", fe.Tag())
	}
}

func containsScheme(schemes []string, scheme string) bool {
	for _, s := range schemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// ValidateTenderPeriod enforces the minimal exposition period for auctions
// created after MinimalExpositionRequiredFrom.
func (i *Initializer) ValidateTenderPeriod(a *auction.Auction, now time.Time) error {
	period := a.TenderPeriod
	if period == nil || period.StartDate == nil || period.EndDate == nil {
		return nil
	}
	if a.CreationDate(now).Before(i.rules.MinimalExpositionRequiredFrom) {
		return nil
	}
	earliestEnd, err := i.calc.Calculate(*period.StartDate, i.rules.MinimalExpositionPeriod, businessdate.For(a))
	if err != nil {
		return err
	}
	if earliestEnd.After(*period.EndDate) {
		return errors.New(msgTenderTooShort)
	}
	return nil
}

// ValidateRectificationPeriod requires the rectification period to end
// MinimalPeriodFromRectificationEnd working days before the tender period.
func (i *Initializer) ValidateRectificationPeriod(a *auction.Auction) error {
	period := a.RectificationPeriod
	if period == nil || period.StartDate == nil || period.EndDate == nil {
		return nil
	}
	if a.TenderPeriod == nil || a.TenderPeriod.EndDate == nil {
		return nil
	}
	// Calendar days here; only the generator counts working days.
	latestEnd, err := i.calc.Calculate(*a.TenderPeriod.EndDate, -i.rules.MinimalPeriodFromRectificationEnd, businessdate.For(a))
	if err != nil {
		return err
	}
	latestEnd = businessdate.Localize(latestEnd, i.calc.Location())
	if period.EndDate.After(latestEnd) {
		return errors.New(msgRectificationEnd)
	}
	return nil
}
