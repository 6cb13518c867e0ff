// Package service carries the use cases over the document, company and
// product aggregates: number assignment, totals recalculation, status
// enforcement, the quote → order → delivery flow and the conventions the
// storage layer leaves to callers (single main rut, single default
// address, restricted deletes).
//
// Services are stateless over the session: every method takes the
// caller's open unit of work, so a request handler composes several
// calls in one transaction and document numbers stay provisional until
// the handler commits. Allocated numbers must not be externalized before
// that commit.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/catalog"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/sequence"
	"github.com/australsoft/folio/store"
	"github.com/australsoft/folio/validate"
)

// Services bundles the use-case layer. The zero value is not usable;
// construct with New.
type Services struct {
	seq           *sequence.Generator
	cat           *catalog.Catalog
	log           *slog.Logger
	trigramPrefix bool

	Quotes         *QuoteService
	Orders         *OrderService
	Deliveries     *DeliveryService
	SIIInvoices    *SIIInvoiceService
	ExportInvoices *ExportInvoiceService
	Companies      *CompanyService
	Products       *ProductService
	Notes          *NoteService
	Payments       *PaymentService
}

// Option configures the bundle.
type Option func(*Services)

// WithGenerator sets the sequence generator, replacing the default codes
// and padding.
func WithGenerator(g *sequence.Generator) Option {
	return func(s *Services) { s.seq = g }
}

// WithCatalog sets the lookup catalog the status checks read through.
// Defaults to a catalog over a process-local memory cache.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Services) { s.cat = c }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Services) { s.log = l }
}

// WithTrigramPrefix controls whether allocated document numbers carry the
// company trigram as the sequence prefix ("C-FRI-2025-0001"). Enabled by
// default; installations numbering per family alone disable it.
func WithTrigramPrefix(enabled bool) Option {
	return func(s *Services) { s.trigramPrefix = enabled }
}

// New returns the service bundle.
func New(opts ...Option) *Services {
	s := &Services{
		seq:           sequence.New(),
		cat:           catalog.New(folio.NewMemoryCache()),
		log:           slog.Default(),
		trigramPrefix: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Quotes = &QuoteService{s}
	s.Orders = &OrderService{s}
	s.Deliveries = &DeliveryService{s}
	s.SIIInvoices = &SIIInvoiceService{s}
	s.ExportInvoices = &ExportInvoiceService{s}
	s.Companies = &CompanyService{s}
	s.Products = &ProductService{s}
	s.Notes = &NoteService{s}
	s.Payments = &PaymentService{s}
	return s
}

// Catalog returns the lookup catalog the bundle validates against, for
// callers that invalidate after reference writes.
func (s *Services) Catalog() *catalog.Catalog { return s.cat }

// number resolves a document number: a non-empty request number is kept
// (uppercased), an empty one is allocated from the sequence generator for
// the family and issue year, prefixed with the company trigram when the
// bundle numbers per company.
func (s *Services) number(ctx context.Context, sess *store.Session, family domain.DocumentFamily, companyID int64, current string, date time.Time) (string, error) {
	if n := strings.ToUpper(strings.TrimSpace(current)); n != "" {
		return n, nil
	}
	if err := validate.PositiveID("company_id", companyID); err != nil {
		return "", err
	}
	var prefix string
	if s.trigramPrefix {
		company, err := sess.Companies.Get(ctx, companyID)
		if err != nil {
			return "", err
		}
		prefix = company.Trigram
	}
	return s.seq.Next(ctx, sess, family, date.Year(), prefix)
}

// checkStatus rejects status codes the family's catalog does not carry as
// active rows.
func (s *Services) checkStatus(ctx context.Context, sess *store.Session, family domain.DocumentFamily, code string) error {
	ok, err := s.cat.StatusExists(ctx, sess, family, code)
	if err != nil {
		return err
	}
	if !ok {
		return folio.NewValidationError("status", fmt.Errorf("unknown %s status %q", family, code))
	}
	return nil
}

// nextSequence returns the line sequence after the given ones, starting
// at 1. Lines arrive in sequence order.
func nextSequence[T any](lines []T, sequenceOf func(T) int) int {
	if len(lines) == 0 {
		return 1
	}
	return sequenceOf(lines[len(lines)-1]) + 1
}
