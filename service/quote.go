package service

import (
	"context"
	"strings"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

// QuoteService drives the quote lifecycle: creation with number
// assignment, line editing with totals kept consistent, status changes
// validated against the catalog and the expiration sweep.
type QuoteService struct {
	s *Services
}

// Create persists a quote with its lines. An empty number is allocated
// from the sequence generator; an empty quote date defaults to today and
// an empty status to DRAFT. Line sequences are assigned in input order
// when unset, and every subtotal and the document totals are recomputed
// before the write.
func (s *QuoteService) Create(ctx context.Context, sess *store.Session, q *domain.Quote) (*domain.Quote, error) {
	if q.QuoteDate.IsZero() {
		q.QuoteDate = sess.Audit().Today()
	}
	number, err := s.s.number(ctx, sess, domain.FamilyQuote, q.CompanyID, q.Number, q.QuoteDate)
	if err != nil {
		return nil, err
	}
	q.Number = number
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	if err := s.s.checkStatus(ctx, sess, domain.FamilyQuote, q.Status); err != nil {
		return nil, err
	}
	for i, l := range q.Lines {
		if l.Sequence == 0 {
			l.Sequence = i + 1
		}
	}
	q.Recalculate()
	if err := sess.Quotes.Create(ctx, q); err != nil {
		return nil, err
	}
	for _, l := range q.Lines {
		l.QuoteID = q.ID
	}
	if len(q.Lines) > 0 {
		if err := sess.QuoteLines.CreateMany(ctx, q.Lines); err != nil {
			return nil, err
		}
	}
	s.s.log.Info("quote created",
		"number", q.Number, "company_id", q.CompanyID, "lines", len(q.Lines), "total", q.Total)
	return q, nil
}

// Get returns the quote with its lines.
func (s *QuoteService) Get(ctx context.Context, sess *store.Session, id int64) (*domain.Quote, error) {
	q, err := sess.Quotes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := sess.Quotes.LoadLines(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ByNumber returns the quote with the number, lines included.
func (s *QuoteService) ByNumber(ctx context.Context, sess *store.Session, number string) (*domain.Quote, error) {
	q, err := sess.Quotes.ByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := sess.Quotes.LoadLines(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// AddLine appends a line to the quote and returns the quote with its
// totals rebuilt. An unset sequence continues after the current last
// line.
func (s *QuoteService) AddLine(ctx context.Context, sess *store.Session, quoteID int64, line *domain.QuoteLine) (*domain.Quote, error) {
	q, err := sess.Quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	line.QuoteID = q.ID
	if line.Sequence == 0 {
		lines, err := sess.QuoteLines.ForParent(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		line.Sequence = nextSequence(lines, func(l *domain.QuoteLine) int { return l.Sequence })
	}
	line.Recalculate()
	if err := sess.QuoteLines.Create(ctx, line); err != nil {
		return nil, err
	}
	return s.refresh(ctx, sess, q)
}

// UpdateLine rewrites a line and returns the quote with its totals
// rebuilt.
func (s *QuoteService) UpdateLine(ctx context.Context, sess *store.Session, line *domain.QuoteLine) (*domain.Quote, error) {
	line.Recalculate()
	if err := sess.QuoteLines.Update(ctx, line); err != nil {
		return nil, err
	}
	q, err := sess.Quotes.Get(ctx, line.QuoteID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, sess, q)
}

// RemoveLine deletes a line and returns the quote with its totals
// rebuilt. A line hanging off another quote reads as NotFound.
func (s *QuoteService) RemoveLine(ctx context.Context, sess *store.Session, quoteID, lineID int64) (*domain.Quote, error) {
	line, err := sess.QuoteLines.Get(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.QuoteID != quoteID {
		return nil, folio.NewNotFoundErrorWithID("quote line", lineID)
	}
	if err := sess.QuoteLines.Delete(ctx, lineID); err != nil {
		return nil, err
	}
	q, err := sess.Quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, sess, q)
}

// ChangeStatus moves the quote to the given catalog status.
func (s *QuoteService) ChangeStatus(ctx context.Context, sess *store.Session, id int64, status string) (*domain.Quote, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if err := s.s.checkStatus(ctx, sess, domain.FamilyQuote, status); err != nil {
		return nil, err
	}
	q, err := sess.Quotes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	q.Status = status
	if err := sess.Quotes.Update(ctx, q); err != nil {
		return nil, err
	}
	s.s.log.Info("quote status changed", "number", q.Number, "status", status)
	return q, nil
}

// ExpireStale moves SENT quotes whose validity window has closed to
// EXPIRED and returns how many it touched. Quotes without a valid_until
// never expire.
func (s *QuoteService) ExpireStale(ctx context.Context, sess *store.Session) (int, error) {
	today := domain.DateOnly(sess.Audit().Today())
	n, err := sess.Quotes.UpdateMany(ctx, store.Query{
		Predicates: []store.Predicate{
			store.Status.EQ(domain.QuoteSent),
			func(sel *sql.Selector) {
				sel.Where(sql.And(
					sql.NotNull(sel.C("valid_until")),
					sql.LT(sel.C("valid_until"), today),
				))
			},
		},
	}, map[string]any{"status": domain.QuoteExpired})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.s.log.Info("quotes expired", "count", n)
	}
	return n, nil
}

// Delete hides the quote from reads. Its lines and number survive under
// the flag, so the number is never reissued.
func (s *QuoteService) Delete(ctx context.Context, sess *store.Session, id int64) error {
	return sess.Quotes.SoftDelete(ctx, id)
}

// refresh rebuilds the quote's totals from its stored lines and persists
// the header.
func (s *QuoteService) refresh(ctx context.Context, sess *store.Session, q *domain.Quote) (*domain.Quote, error) {
	if err := sess.Quotes.LoadLines(ctx, q); err != nil {
		return nil, err
	}
	q.Recalculate()
	if err := sess.Quotes.Update(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}
