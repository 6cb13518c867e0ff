package service

import (
	"context"
	"strings"
	"time"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

// OrderService drives the order lifecycle, including promotion from an
// accepted quote and the completion transition.
type OrderService struct {
	s *Services
}

// Create persists an order with its lines. Numbering, dating, status and
// line-sequence defaults follow the same rules as quotes.
func (s *OrderService) Create(ctx context.Context, sess *store.Session, o *domain.Order) (*domain.Order, error) {
	if o.OrderDate.IsZero() {
		o.OrderDate = sess.Audit().Today()
	}
	number, err := s.s.number(ctx, sess, domain.FamilyOrder, o.CompanyID, o.Number, o.OrderDate)
	if err != nil {
		return nil, err
	}
	o.Number = number
	if err := o.Normalize(); err != nil {
		return nil, err
	}
	if err := s.s.checkStatus(ctx, sess, domain.FamilyOrder, o.Status); err != nil {
		return nil, err
	}
	for i, l := range o.Lines {
		if l.Sequence == 0 {
			l.Sequence = i + 1
		}
	}
	o.Recalculate()
	if err := sess.Orders.Create(ctx, o); err != nil {
		return nil, err
	}
	for _, l := range o.Lines {
		l.OrderID = o.ID
	}
	if len(o.Lines) > 0 {
		if err := sess.OrderLines.CreateMany(ctx, o.Lines); err != nil {
			return nil, err
		}
	}
	s.s.log.Info("order created",
		"number", o.Number, "company_id", o.CompanyID, "lines", len(o.Lines), "total", o.Total)
	return o, nil
}

// CreateFromQuote promotes a quote into a sales order. The order copies
// the quote's commercial terms and lines, gets its own number, is dated
// today and is owned by the acting principal. The quote itself is left
// untouched; callers mark it ACCEPTED separately if their flow requires
// it.
func (s *OrderService) CreateFromQuote(ctx context.Context, sess *store.Session, quoteID int64) (*domain.Order, error) {
	q, err := sess.Quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := sess.Quotes.LoadLines(ctx, q); err != nil {
		return nil, err
	}
	o := &domain.Order{
		QuoteID:            q.ID,
		CompanyID:          q.CompanyID,
		ContactID:          q.ContactID,
		StaffID:            sess.Audit().PrincipalID(),
		CurrencyID:         q.CurrencyID,
		PaymentConditionID: q.PaymentConditionID,
		Notes:              q.Notes,
	}
	o.TaxPercentage = q.TaxPercentage
	for _, ql := range q.Lines {
		o.Lines = append(o.Lines, &domain.OrderLine{
			ProductID: ql.ProductID,
			Sequence:  ql.Sequence,
			Quantity:  ql.Quantity,
			UnitPrice: ql.UnitPrice,
			Discount:  ql.Discount,
		})
	}
	o, err = s.Create(ctx, sess, o)
	if err != nil {
		return nil, err
	}
	s.s.log.Info("order created from quote", "number", o.Number, "quote", q.Number)
	return o, nil
}

// Get returns the order with its lines.
func (s *OrderService) Get(ctx context.Context, sess *store.Session, id int64) (*domain.Order, error) {
	o, err := sess.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.Orders.LoadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ByNumber returns the order with the number, lines included.
func (s *OrderService) ByNumber(ctx context.Context, sess *store.Session, number string) (*domain.Order, error) {
	o, err := sess.Orders.ByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := sess.Orders.LoadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// AddLine appends a line to the order and returns the order with its
// totals rebuilt.
func (s *OrderService) AddLine(ctx context.Context, sess *store.Session, orderID int64, line *domain.OrderLine) (*domain.Order, error) {
	o, err := sess.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	line.OrderID = o.ID
	if line.Sequence == 0 {
		lines, err := sess.OrderLines.ForParent(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		line.Sequence = nextSequence(lines, func(l *domain.OrderLine) int { return l.Sequence })
	}
	line.Recalculate()
	if err := sess.OrderLines.Create(ctx, line); err != nil {
		return nil, err
	}
	return s.refresh(ctx, sess, o)
}

// UpdateLine rewrites a line and returns the order with its totals
// rebuilt.
func (s *OrderService) UpdateLine(ctx context.Context, sess *store.Session, line *domain.OrderLine) (*domain.Order, error) {
	line.Recalculate()
	if err := sess.OrderLines.Update(ctx, line); err != nil {
		return nil, err
	}
	o, err := sess.Orders.Get(ctx, line.OrderID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, sess, o)
}

// RemoveLine deletes a line and returns the order with its totals
// rebuilt.
func (s *OrderService) RemoveLine(ctx context.Context, sess *store.Session, orderID, lineID int64) (*domain.Order, error) {
	line, err := sess.OrderLines.Get(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.OrderID != orderID {
		return nil, folio.NewNotFoundErrorWithID("order line", lineID)
	}
	if err := sess.OrderLines.Delete(ctx, lineID); err != nil {
		return nil, err
	}
	o, err := sess.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, sess, o)
}

// ChangeStatus moves the order to the given catalog status. Completion
// should go through Complete so the completed date is stamped.
func (s *OrderService) ChangeStatus(ctx context.Context, sess *store.Session, id int64, status string) (*domain.Order, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if err := s.s.checkStatus(ctx, sess, domain.FamilyOrder, status); err != nil {
		return nil, err
	}
	o, err := sess.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Status = status
	if err := sess.Orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.s.log.Info("order status changed", "number", o.Number, "status", status)
	return o, nil
}

// Complete marks the order COMPLETED as of today.
func (s *OrderService) Complete(ctx context.Context, sess *store.Session, id int64) (*domain.Order, error) {
	o, err := sess.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Complete(sess.Audit().Today())
	if err := sess.Orders.Update(ctx, o); err != nil {
		return nil, err
	}
	s.s.log.Info("order completed", "number", o.Number, "completed_date", o.CompletedDate)
	return o, nil
}

// Overdue lists open orders whose promised date has passed as of the
// given day.
func (s *OrderService) Overdue(ctx context.Context, sess *store.Session, today time.Time) ([]*domain.Order, error) {
	return sess.Orders.Overdue(ctx, today)
}

// Delete hides the order from reads.
func (s *OrderService) Delete(ctx context.Context, sess *store.Session, id int64) error {
	return sess.Orders.SoftDelete(ctx, id)
}

func (s *OrderService) refresh(ctx context.Context, sess *store.Session, o *domain.Order) (*domain.Order, error) {
	if err := sess.Orders.LoadLines(ctx, o); err != nil {
		return nil, err
	}
	o.Recalculate()
	if err := sess.Orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
