package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/validate"
)

// DocumentFamily names one of the five commercial document kinds. The
// family keys the sequence buckets and the status catalog.
type DocumentFamily string

// Document families.
const (
	FamilyQuote         DocumentFamily = "quote"
	FamilyOrder         DocumentFamily = "order"
	FamilyDelivery      DocumentFamily = "delivery"
	FamilySIIInvoice    DocumentFamily = "sii_invoice"
	FamilyExportInvoice DocumentFamily = "export_invoice"
)

// ParseDocumentFamily normalizes s to the canonical lowercase family and
// rejects unknown values.
func ParseDocumentFamily(s string) (DocumentFamily, error) {
	switch f := DocumentFamily(strings.ToLower(strings.TrimSpace(s))); f {
	case FamilyQuote, FamilyOrder, FamilyDelivery, FamilySIIInvoice, FamilyExportInvoice:
		return f, nil
	default:
		return "", folio.NewValidationError("family", errors.New("unknown document family "+s))
	}
}

// Status short codes per family. The status catalog is the source of
// truth at runtime; these are the seeded codes the services reference.
const (
	QuoteDraft    = "DRAFT"
	QuoteSent     = "SENT"
	QuoteAccepted = "ACCEPTED"
	QuoteRejected = "REJECTED"
	QuoteExpired  = "EXPIRED"

	OrderPending    = "PENDING"
	OrderInProgress = "IN_PROGRESS"
	OrderCompleted  = "COMPLETED"
	OrderCancelled  = "CANCELLED"

	DeliveryPending   = "PENDING"
	DeliveryInTransit = "IN_TRANSIT"
	DeliveryDelivered = "DELIVERED"
	DeliveryCancelled = "CANCELLED"

	PaymentPending = "PENDING"
	PaymentPartial = "PARTIAL"
	PaymentPaid    = "PAID"
	PaymentOverdue = "OVERDUE"
)

// DefaultStatuses lists the seeded status codes per family in workflow
// order. The slice index doubles as the sort key.
var DefaultStatuses = map[DocumentFamily][]string{
	FamilyQuote:         {QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected, QuoteExpired},
	FamilyOrder:         {OrderPending, OrderInProgress, OrderCompleted, OrderCancelled},
	FamilyDelivery:      {DeliveryPending, DeliveryInTransit, DeliveryDelivered, DeliveryCancelled},
	FamilySIIInvoice:    {PaymentPending, PaymentPartial, PaymentPaid, PaymentOverdue},
	FamilyExportInvoice: {PaymentPending, PaymentPartial, PaymentPaid, PaymentOverdue},
}

// OrderType distinguishes sales orders from purchase orders.
type OrderType string

// Order types.
const (
	OrderSales    OrderType = "SALES"
	OrderPurchase OrderType = "PURCHASE"
)

// ParseOrderType normalizes s to the canonical uppercase code and rejects
// unknown values.
func ParseOrderType(s string) (OrderType, error) {
	switch t := OrderType(strings.ToUpper(strings.TrimSpace(s))); t {
	case OrderSales, OrderPurchase:
		return t, nil
	default:
		return "", folio.NewValidationError("order_type", errors.New("unknown order type "+s))
	}
}

// DocumentTotals is the monetary block every commercial document carries.
// Subtotal, TaxAmount and Total are derived; TaxPercentage is input.
type DocumentTotals struct {
	Subtotal      decimal.Decimal
	TaxPercentage decimal.Decimal
	TaxAmount     decimal.Decimal
	Total         decimal.Decimal
}

// Recalculate rebuilds the derived amounts from the given line subtotals:
// subtotal = Σ lines, tax_amount = subtotal × tax% / 100, total =
// subtotal + tax_amount. Amounts are in the document currency; no FX
// conversion happens here.
func (t *DocumentTotals) Recalculate(lineSubtotals ...decimal.Decimal) {
	sub := decimal.Zero
	for _, s := range lineSubtotals {
		sub = sub.Add(s)
	}
	t.Subtotal = sub
	t.TaxAmount = sub.Mul(t.TaxPercentage).Div(hundred).Round(2)
	t.Total = sub.Add(t.TaxAmount)
}

func (t *DocumentTotals) validateTotals() error {
	return folio.NewAggregateError(
		validate.NonNegative("subtotal", t.Subtotal),
		validate.Range("tax_percentage", t.TaxPercentage, decimal.Zero, hundred),
		validate.NonNegative("tax_amount", t.TaxAmount),
		validate.NonNegative("total", t.Total),
	)
}

// LineSubtotal computes quantity × unitPrice × (1 − discount/100) rounded
// to two decimal places.
func LineSubtotal(quantity, unitPrice, discount decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discount.Div(hundred))
	return quantity.Mul(unitPrice).Mul(factor).Round(2)
}

// Quote is a commercial offer. Lines is populated by the finders and kept
// in Sequence order; it is not itself a column.
type Quote struct {
	AuditFields
	SoftDeleteField
	Number             string
	CompanyID          int64
	ContactID          int64 // 0 means unset
	StaffID            int64
	CurrencyID         int64
	PaymentConditionID int64 // 0 means unset
	Status             string
	QuoteDate          time.Time
	ValidUntil         *time.Time
	Notes              string
	DocumentTotals
	Lines []*QuoteLine
}

// Normalize uppercases number and status and applies the draft default.
func (q *Quote) Normalize() error {
	q.Number = strings.ToUpper(strings.TrimSpace(q.Number))
	q.Status = strings.ToUpper(strings.TrimSpace(q.Status))
	if q.Status == "" {
		q.Status = QuoteDraft
	}
	q.Notes = strings.TrimSpace(q.Notes)
	return nil
}

// Validate enforces presence of number, company, staff and currency, the
// date window and the totals bounds. Status existence in the catalog is
// the service's concern.
func (q *Quote) Validate() error {
	if _, err := validate.Required("quote_number", q.Number); err != nil {
		return err
	}
	if err := folio.NewAggregateError(
		validate.PositiveID("company_id", q.CompanyID),
		validate.PositiveID("staff_id", q.StaffID),
		validate.PositiveID("currency_id", q.CurrencyID),
	); err != nil {
		return err
	}
	if q.QuoteDate.IsZero() {
		return folio.NewValidationError("quote_date", errors.New("is required"))
	}
	if q.ValidUntil != nil && DateOnly(*q.ValidUntil).Before(DateOnly(q.QuoteDate)) {
		return folio.NewValidationError("valid_until", errors.New("must not precede the quote date"))
	}
	return q.validateTotals()
}

// Recalculate rebuilds every line subtotal and then the document totals.
func (q *Quote) Recalculate() {
	subs := make([]decimal.Decimal, len(q.Lines))
	for i, l := range q.Lines {
		l.Recalculate()
		subs[i] = l.Subtotal
	}
	q.DocumentTotals.Recalculate(subs...)
}

// QuoteLine is one priced position of a quote. Sequence is the
// order-preserving key within the quote, starting at 1.
type QuoteLine struct {
	AuditFields
	QuoteID   int64
	ProductID int64
	Sequence  int
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // percent
	Subtotal  decimal.Decimal // derived
}

// Recalculate refreshes the cached subtotal.
func (l *QuoteLine) Recalculate() {
	l.Subtotal = LineSubtotal(l.Quantity, l.UnitPrice, l.Discount)
}

// Validate checks the product reference, the positive quantity and the
// discount window.
func (l *QuoteLine) Validate() error {
	return folio.NewAggregateError(
		validate.PositiveID("quote_id", l.QuoteID),
		validate.PositiveID("product_id", l.ProductID),
		validate.NonNegativeInt("sequence", int64(l.Sequence)),
		validate.Positive("quantity", l.Quantity),
		validate.NonNegative("unit_price", l.UnitPrice),
		validate.Range("discount", l.Discount, decimal.Zero, hundred),
	)
}

// Order is a confirmed sales or purchase order, optionally originating
// from a quote.
type Order struct {
	AuditFields
	SoftDeleteField
	Number             string
	Type               OrderType
	IsExport           bool
	QuoteID            int64 // 0 means not created from a quote
	CompanyID          int64
	ContactID          int64
	StaffID            int64
	CurrencyID         int64
	IncotermID         int64
	PaymentConditionID int64
	Status             string
	OrderDate          time.Time
	PromisedDate       *time.Time
	CompletedDate      *time.Time
	Notes              string
	DocumentTotals
	Lines []*OrderLine
}

// Normalize uppercases number, status and type and applies the pending
// and sales defaults.
func (o *Order) Normalize() error {
	o.Number = strings.ToUpper(strings.TrimSpace(o.Number))
	o.Status = strings.ToUpper(strings.TrimSpace(o.Status))
	if o.Status == "" {
		o.Status = OrderPending
	}
	if o.Type == "" {
		o.Type = OrderSales
	}
	t, err := ParseOrderType(string(o.Type))
	if err != nil {
		return err
	}
	o.Type = t
	o.Notes = strings.TrimSpace(o.Notes)
	return nil
}

// Validate mirrors Quote.Validate with the promised-date window.
func (o *Order) Validate() error {
	if _, err := validate.Required("order_number", o.Number); err != nil {
		return err
	}
	if err := folio.NewAggregateError(
		validate.PositiveID("company_id", o.CompanyID),
		validate.PositiveID("staff_id", o.StaffID),
		validate.PositiveID("currency_id", o.CurrencyID),
	); err != nil {
		return err
	}
	if o.OrderDate.IsZero() {
		return folio.NewValidationError("order_date", errors.New("is required"))
	}
	if o.PromisedDate != nil && DateOnly(*o.PromisedDate).Before(DateOnly(o.OrderDate)) {
		return folio.NewValidationError("promised_date", errors.New("must not precede the order date"))
	}
	return o.validateTotals()
}

// Recalculate rebuilds every line subtotal and then the document totals.
func (o *Order) Recalculate() {
	subs := make([]decimal.Decimal, len(o.Lines))
	for i, l := range o.Lines {
		l.Recalculate()
		subs[i] = l.Subtotal
	}
	o.DocumentTotals.Recalculate(subs...)
}

// IsOverdue reports whether the promised date has passed without
// completion. Orders without a promised date are never overdue.
func (o *Order) IsOverdue(today time.Time) bool {
	if o.CompletedDate != nil || o.PromisedDate == nil {
		return false
	}
	return DateOnly(*o.PromisedDate).Before(DateOnly(today))
}

// Complete moves the order to COMPLETED and stamps the completion date.
func (o *Order) Complete(today time.Time) {
	o.Status = OrderCompleted
	d := DateOnly(today)
	o.CompletedDate = &d
}

// OrderLine is one priced position of an order.
type OrderLine struct {
	AuditFields
	OrderID   int64
	ProductID int64
	Sequence  int
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Subtotal  decimal.Decimal
}

// Recalculate refreshes the cached subtotal.
func (l *OrderLine) Recalculate() {
	l.Subtotal = LineSubtotal(l.Quantity, l.UnitPrice, l.Discount)
}

// Validate checks the product reference, the positive quantity and the
// discount window.
func (l *OrderLine) Validate() error {
	return folio.NewAggregateError(
		validate.PositiveID("order_id", l.OrderID),
		validate.PositiveID("product_id", l.ProductID),
		validate.NonNegativeInt("sequence", int64(l.Sequence)),
		validate.Positive("quantity", l.Quantity),
		validate.NonNegative("unit_price", l.UnitPrice),
		validate.Range("discount", l.Discount, decimal.Zero, hundred),
	)
}

// DeliveryOrder tracks the physical shipment of an order. Totals and
// currency are copied from the order at creation time.
type DeliveryOrder struct {
	AuditFields
	SoftDeleteField
	Number             string
	OrderID            int64
	CompanyID          int64
	StaffID            int64
	CurrencyID         int64
	Status             string
	DeliveryDate       *time.Time // planned
	ActualDeliveryDate *time.Time
	DeliveryAddress    string
	SignatureName      string
	SignatureID        string // receiver's national id, free-form
	SignatureAt        *time.Time
	Notes              string
	DocumentTotals
}

// Normalize uppercases number and status and applies the pending default.
func (d *DeliveryOrder) Normalize() error {
	d.Number = strings.ToUpper(strings.TrimSpace(d.Number))
	d.Status = strings.ToUpper(strings.TrimSpace(d.Status))
	if d.Status == "" {
		d.Status = DeliveryPending
	}
	d.DeliveryAddress = strings.TrimSpace(d.DeliveryAddress)
	d.SignatureName = strings.TrimSpace(d.SignatureName)
	d.SignatureID = strings.TrimSpace(d.SignatureID)
	d.Notes = strings.TrimSpace(d.Notes)
	return nil
}

// Validate requires the number, the owning order and company, and valid
// totals.
func (d *DeliveryOrder) Validate() error {
	if _, err := validate.Required("delivery_number", d.Number); err != nil {
		return err
	}
	if err := folio.NewAggregateError(
		validate.PositiveID("order_id", d.OrderID),
		validate.PositiveID("company_id", d.CompanyID),
		validate.PositiveID("staff_id", d.StaffID),
		validate.PositiveID("currency_id", d.CurrencyID),
	); err != nil {
		return err
	}
	return d.validateTotals()
}

// IsDelivered reports whether the delivery reached its destination.
func (d *DeliveryOrder) IsDelivered() bool { return d.Status == DeliveryDelivered }

// IsLate reports lateness against the planned date: past due while
// undelivered, or delivered after the planned date. Deliveries without a
// planned date are never late.
func (d *DeliveryOrder) IsLate(today time.Time) bool {
	if d.DeliveryDate == nil {
		return false
	}
	due := DateOnly(*d.DeliveryDate)
	if d.IsDelivered() {
		return d.ActualDeliveryDate != nil && DateOnly(*d.ActualDeliveryDate).After(due)
	}
	return due.Before(DateOnly(today))
}

// DaysLate returns whole days past the planned date, zero when on time.
// For delivered orders the actual delivery date bounds the count.
func (d *DeliveryOrder) DaysLate(today time.Time) int {
	if !d.IsLate(today) {
		return 0
	}
	end := DateOnly(today)
	if d.IsDelivered() {
		end = DateOnly(*d.ActualDeliveryDate)
	}
	return int(end.Sub(DateOnly(*d.DeliveryDate)).Hours() / 24)
}

// MarkDelivered records proof of delivery: status, actual date, signature
// fields and appended notes. now supplies both the date and the signature
// instant.
func (d *DeliveryOrder) MarkDelivered(signatureName, signatureID, notes string, now time.Time) {
	d.Status = DeliveryDelivered
	day := DateOnly(now)
	d.ActualDeliveryDate = &day
	at := now
	d.SignatureAt = &at
	d.SignatureName = strings.TrimSpace(signatureName)
	d.SignatureID = strings.TrimSpace(signatureID)
	if n := strings.TrimSpace(notes); n != "" {
		if d.Notes != "" {
			d.Notes += "\n"
		}
		d.Notes += n
	}
}

// SIIInvoice is a domestic invoice reported to the Chilean tax authority.
// Legal encoding is out of scope; the core keeps number uniqueness,
// totals and payment tracking.
type SIIInvoice struct {
	AuditFields
	SoftDeleteField
	Number             string
	CompanyID          int64
	StaffID            int64
	CurrencyID         int64
	PaymentConditionID int64
	InvoiceDate        time.Time
	DueDate            *time.Time
	PaymentStatus      string
	Notes              string
	DocumentTotals
}

// Normalize uppercases number and payment status and applies the pending
// default.
func (i *SIIInvoice) Normalize() error {
	i.Number = strings.ToUpper(strings.TrimSpace(i.Number))
	i.PaymentStatus = strings.ToUpper(strings.TrimSpace(i.PaymentStatus))
	if i.PaymentStatus == "" {
		i.PaymentStatus = PaymentPending
	}
	i.Notes = strings.TrimSpace(i.Notes)
	return nil
}

// Validate requires number, company, staff, currency, invoice date and
// valid totals.
func (i *SIIInvoice) Validate() error {
	if _, err := validate.Required("invoice_number", i.Number); err != nil {
		return err
	}
	if err := folio.NewAggregateError(
		validate.PositiveID("company_id", i.CompanyID),
		validate.PositiveID("staff_id", i.StaffID),
		validate.PositiveID("currency_id", i.CurrencyID),
	); err != nil {
		return err
	}
	if i.InvoiceDate.IsZero() {
		return folio.NewValidationError("invoice_date", errors.New("is required"))
	}
	return i.validateTotals()
}

// ExportInvoice is the foreign-trade sibling of SIIInvoice, adding the
// destination country and incoterm.
type ExportInvoice struct {
	AuditFields
	SoftDeleteField
	Number               string
	CompanyID            int64
	StaffID              int64
	CurrencyID           int64
	PaymentConditionID   int64
	DestinationCountryID int64
	IncotermID           int64
	InvoiceDate          time.Time
	DueDate              *time.Time
	PaymentStatus        string
	Notes                string
	DocumentTotals
}

// Normalize uppercases number and payment status and applies the pending
// default.
func (i *ExportInvoice) Normalize() error {
	i.Number = strings.ToUpper(strings.TrimSpace(i.Number))
	i.PaymentStatus = strings.ToUpper(strings.TrimSpace(i.PaymentStatus))
	if i.PaymentStatus == "" {
		i.PaymentStatus = PaymentPending
	}
	i.Notes = strings.TrimSpace(i.Notes)
	return nil
}

// Validate adds the destination country requirement to the common invoice
// checks.
func (i *ExportInvoice) Validate() error {
	if _, err := validate.Required("invoice_number", i.Number); err != nil {
		return err
	}
	if err := folio.NewAggregateError(
		validate.PositiveID("company_id", i.CompanyID),
		validate.PositiveID("staff_id", i.StaffID),
		validate.PositiveID("currency_id", i.CurrencyID),
		validate.PositiveID("destination_country_id", i.DestinationCountryID),
	); err != nil {
		return err
	}
	if i.InvoiceDate.IsZero() {
		return folio.NewValidationError("invoice_date", errors.New("is required"))
	}
	return i.validateTotals()
}
