package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/validate"
)

// PaymentCondition describes how an invoice amount is split over time:
// an advance share, a share on delivery and a share some days after.
// The three percentages must sum to exactly 100.
type PaymentCondition struct {
	AuditFields
	Code                 string
	Name                 string
	DaysToPay            int64
	AdvancePercentage    decimal.Decimal
	OnDeliveryPercentage decimal.Decimal
	AfterDeliveryPercent decimal.Decimal
	DaysAfterDelivery    int64
	IsActive             bool
}

// Normalize uppercases the code and trims the name.
func (p *PaymentCondition) Normalize() error {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	p.Name = strings.TrimSpace(p.Name)
	return nil
}

// Validate requires code and name, non-negative day counts and the
// percentage split invariant.
func (p *PaymentCondition) Validate() error {
	if _, err := validate.Required("code", p.Code); err != nil {
		return err
	}
	if _, err := validate.Required("name", p.Name); err != nil {
		return err
	}
	if err := folio.NewAggregateError(
		validate.NonNegativeInt("days_to_pay", p.DaysToPay),
		validate.NonNegativeInt("days_after_delivery", p.DaysAfterDelivery),
		validate.Range("advance_percentage", p.AdvancePercentage, decimal.Zero, hundred),
		validate.Range("on_delivery_percentage", p.OnDeliveryPercentage, decimal.Zero, hundred),
		validate.Range("after_delivery_percentage", p.AfterDeliveryPercent, decimal.Zero, hundred),
	); err != nil {
		return err
	}
	return p.ValidatePercentages()
}

// ValidatePercentages enforces that the three shares sum to exactly 100.
func (p *PaymentCondition) ValidatePercentages() error {
	sum := p.AdvancePercentage.Add(p.OnDeliveryPercentage).Add(p.AfterDeliveryPercent)
	if !sum.Equal(hundred) {
		return folio.NewValidationError("percentages",
			fmt.Errorf("advance + on delivery + after delivery must sum to 100, got %s", sum))
	}
	return nil
}

// Installment is one slice of an invoice amount under a payment
// condition's split.
type Installment struct {
	Label   string
	Percent decimal.Decimal
	Amount  decimal.Decimal
	DueDate time.Time
}

// Schedule splits total into the condition's installments. The advance
// share is due on the invoice date, the on-delivery share on the
// delivery date, and the after-delivery share DaysAfterDelivery days
// later; with no delivery date those two anchor on the invoice date
// instead. Zero shares are skipped. Amounts are rounded to cents, the
// last installment absorbing the rounding so the slices sum back to
// total.
func (p *PaymentCondition) Schedule(total decimal.Decimal, invoiceDate time.Time, deliveryDate *time.Time) []Installment {
	delivered := DateOnly(invoiceDate)
	if deliveryDate != nil {
		delivered = DateOnly(*deliveryDate)
	}
	parts := []Installment{
		{Label: "advance", Percent: p.AdvancePercentage, DueDate: DateOnly(invoiceDate)},
		{Label: "on delivery", Percent: p.OnDeliveryPercentage, DueDate: delivered},
		{Label: "after delivery", Percent: p.AfterDeliveryPercent, DueDate: delivered.AddDate(0, 0, int(p.DaysAfterDelivery))},
	}
	out := make([]Installment, 0, len(parts))
	for _, part := range parts {
		if part.Percent.IsZero() {
			continue
		}
		part.Amount = total.Mul(part.Percent).Div(hundred).Round(2)
		out = append(out, part)
	}
	if len(out) == 0 {
		return out
	}
	var allocated decimal.Decimal
	for _, part := range out[:len(out)-1] {
		allocated = allocated.Add(part.Amount)
	}
	out[len(out)-1].Amount = total.Sub(allocated)
	return out
}
