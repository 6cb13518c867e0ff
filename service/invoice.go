package service

import (
	"context"
	"strings"
	"time"

	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

// SIIInvoiceService issues domestic (SII) invoices and tracks their
// payment status.
type SIIInvoiceService struct {
	s *Services
}

// ExportInvoiceService issues export invoices and tracks their payment
// status.
type ExportInvoiceService struct {
	s *Services
}

// dueDate resolves a nil due date from the payment condition's term,
// counted in days from the invoice date. Without a condition the due
// date stays open.
func dueDate(ctx context.Context, sess *store.Session, conditionID int64, invoiceDate time.Time) (*time.Time, error) {
	if conditionID == 0 {
		return nil, nil
	}
	pc, err := sess.PaymentConditions.Get(ctx, conditionID)
	if err != nil {
		return nil, err
	}
	due := domain.DateOnly(invoiceDate).AddDate(0, 0, int(pc.DaysToPay))
	return &due, nil
}

// Create persists a domestic invoice. An empty number is allocated from
// the sequence generator, an empty invoice date defaults to today and a
// nil due date is derived from the payment condition's term.
func (s *SIIInvoiceService) Create(ctx context.Context, sess *store.Session, inv *domain.SIIInvoice) (*domain.SIIInvoice, error) {
	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = sess.Audit().Today()
	}
	number, err := s.s.number(ctx, sess, domain.FamilySIIInvoice, inv.CompanyID, inv.Number, inv.InvoiceDate)
	if err != nil {
		return nil, err
	}
	inv.Number = number
	if err := inv.Normalize(); err != nil {
		return nil, err
	}
	if err := s.s.checkStatus(ctx, sess, domain.FamilySIIInvoice, inv.PaymentStatus); err != nil {
		return nil, err
	}
	if inv.DueDate == nil {
		due, err := dueDate(ctx, sess, inv.PaymentConditionID, inv.InvoiceDate)
		if err != nil {
			return nil, err
		}
		inv.DueDate = due
	}
	if err := sess.SIIInvoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.s.log.Info("sii invoice created",
		"number", inv.Number, "company_id", inv.CompanyID, "total", inv.Total, "due_date", inv.DueDate)
	return inv, nil
}

// Get returns the invoice.
func (s *SIIInvoiceService) Get(ctx context.Context, sess *store.Session, id int64) (*domain.SIIInvoice, error) {
	return sess.SIIInvoices.Get(ctx, id)
}

// ByNumber returns the invoice with the number.
func (s *SIIInvoiceService) ByNumber(ctx context.Context, sess *store.Session, number string) (*domain.SIIInvoice, error) {
	return sess.SIIInvoices.ByNumber(ctx, number)
}

// ChangePaymentStatus moves the invoice to the given catalog payment
// status.
func (s *SIIInvoiceService) ChangePaymentStatus(ctx context.Context, sess *store.Session, id int64, status string) (*domain.SIIInvoice, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if err := s.s.checkStatus(ctx, sess, domain.FamilySIIInvoice, status); err != nil {
		return nil, err
	}
	inv, err := sess.SIIInvoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.PaymentStatus = status
	if err := sess.SIIInvoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	s.s.log.Info("sii invoice payment status changed", "number", inv.Number, "status", status)
	return inv, nil
}

// MarkPaid settles the invoice.
func (s *SIIInvoiceService) MarkPaid(ctx context.Context, sess *store.Session, id int64) (*domain.SIIInvoice, error) {
	return s.ChangePaymentStatus(ctx, sess, id, domain.PaymentPaid)
}

// PastDue lists unpaid invoices whose due date has passed as of the
// given day.
func (s *SIIInvoiceService) PastDue(ctx context.Context, sess *store.Session, today time.Time) ([]*domain.SIIInvoice, error) {
	return sess.SIIInvoices.PastDue(ctx, today)
}

// Delete hides the invoice from reads.
func (s *SIIInvoiceService) Delete(ctx context.Context, sess *store.Session, id int64) error {
	return sess.SIIInvoices.SoftDelete(ctx, id)
}

// Create persists an export invoice under the same defaulting rules as
// the domestic one. The destination country is mandatory.
func (s *ExportInvoiceService) Create(ctx context.Context, sess *store.Session, inv *domain.ExportInvoice) (*domain.ExportInvoice, error) {
	if inv.InvoiceDate.IsZero() {
		inv.InvoiceDate = sess.Audit().Today()
	}
	number, err := s.s.number(ctx, sess, domain.FamilyExportInvoice, inv.CompanyID, inv.Number, inv.InvoiceDate)
	if err != nil {
		return nil, err
	}
	inv.Number = number
	if err := inv.Normalize(); err != nil {
		return nil, err
	}
	if err := s.s.checkStatus(ctx, sess, domain.FamilyExportInvoice, inv.PaymentStatus); err != nil {
		return nil, err
	}
	if inv.DueDate == nil {
		due, err := dueDate(ctx, sess, inv.PaymentConditionID, inv.InvoiceDate)
		if err != nil {
			return nil, err
		}
		inv.DueDate = due
	}
	if err := sess.ExportInvoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.s.log.Info("export invoice created",
		"number", inv.Number, "company_id", inv.CompanyID, "destination_country_id", inv.DestinationCountryID, "total", inv.Total)
	return inv, nil
}

// Get returns the invoice.
func (s *ExportInvoiceService) Get(ctx context.Context, sess *store.Session, id int64) (*domain.ExportInvoice, error) {
	return sess.ExportInvoices.Get(ctx, id)
}

// ByNumber returns the invoice with the number.
func (s *ExportInvoiceService) ByNumber(ctx context.Context, sess *store.Session, number string) (*domain.ExportInvoice, error) {
	return sess.ExportInvoices.ByNumber(ctx, number)
}

// ChangePaymentStatus moves the invoice to the given catalog payment
// status.
func (s *ExportInvoiceService) ChangePaymentStatus(ctx context.Context, sess *store.Session, id int64, status string) (*domain.ExportInvoice, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if err := s.s.checkStatus(ctx, sess, domain.FamilyExportInvoice, status); err != nil {
		return nil, err
	}
	inv, err := sess.ExportInvoices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.PaymentStatus = status
	if err := sess.ExportInvoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	s.s.log.Info("export invoice payment status changed", "number", inv.Number, "status", status)
	return inv, nil
}

// MarkPaid settles the invoice.
func (s *ExportInvoiceService) MarkPaid(ctx context.Context, sess *store.Session, id int64) (*domain.ExportInvoice, error) {
	return s.ChangePaymentStatus(ctx, sess, id, domain.PaymentPaid)
}

// PastDue lists unpaid invoices whose due date has passed as of the
// given day.
func (s *ExportInvoiceService) PastDue(ctx context.Context, sess *store.Session, today time.Time) ([]*domain.ExportInvoice, error) {
	return sess.ExportInvoices.PastDue(ctx, today)
}

// Delete hides the invoice from reads.
func (s *ExportInvoiceService) Delete(ctx context.Context, sess *store.Session, id int64) error {
	return sess.ExportInvoices.SoftDelete(ctx, id)
}
