// Package store owns persistence: the Store wraps a database handle, a
// Session is one unit of work (a transaction plus the audit context plus
// the repository set), and the generic Repository implements the CRUD
// surface every aggregate shares. Writes validate and stamp entities and
// flush immediately against the session transaction; commit belongs to
// the outermost service entry point.
//
// Driver errors are translated once, at this layer: unique, foreign-key
// and check violations surface as conflicts, lock contention as retryable
// conflicts, missing rows as not-found. Callers never see driver error
// types.
package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/audit"
	"github.com/australsoft/folio/dialect"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/domain"
)

// Store is the session factory. It is safe for concurrent use; every
// request obtains its own Session.
type Store struct {
	drv      dialect.Driver
	log      *slog.Logger
	auditVar string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithAuditVar makes every session tag its statements with the acting
// principal through the named session variable (a postgres custom GUC
// such as "folio.principal_id"), for installations whose audit triggers
// read it. Postgres only; other dialects ignore it.
func WithAuditVar(name string) Option {
	return func(s *Store) { s.auditVar = name }
}

// New returns a Store over an open driver.
func New(drv dialect.Driver, opts ...Option) *Store {
	s := &Store{drv: drv, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects to the database and returns a Store over it. driverName is
// the registered database/sql driver, which must belong to one of the
// supported dialects.
func Open(driverName, dsn string, opts ...Option) (*Store, error) {
	drv, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, folio.NewInternalError(err)
	}
	return New(drv, opts...), nil
}

// Dialect returns the store dialect.
func (s *Store) Dialect() string { return s.drv.Dialect() }

// Driver exposes the underlying driver, mainly for schema bootstrap.
func (s *Store) Driver() dialect.Driver { return s.drv }

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.drv.Close() }

// Session is one unit of work: a transaction, the audit context that
// stamps every write in it, and the repositories mounted on it. Sessions
// are single-goroutine; open one per request.
type Session struct {
	store *Store
	tx    dialect.Tx
	actx  *audit.Context
	done  bool

	Companies   *CompanyRepo
	Ruts        *RutRepo
	Plants      *PlantRepo
	Contacts    *ContactRepo
	Departments *DepartmentRepo
	Addresses   *AddressRepo
	Principals  *PrincipalRepo

	Products   *ProductRepo
	Components *ComponentRepo

	Quotes         *QuoteRepo
	QuoteLines     *LineRepo[*domain.QuoteLine]
	Orders         *OrderRepo
	OrderLines     *LineRepo[*domain.OrderLine]
	Deliveries     *DeliveryRepo
	SIIInvoices    *SIIInvoiceRepo
	ExportInvoices *ExportInvoiceRepo

	Notes             *NoteRepo
	PaymentConditions *PaymentConditionRepo

	Countries        *LookupRepo[*domain.Country]
	Cities           *CityRepo
	Currencies       *CurrencyRepo
	Units            *LookupRepo[*domain.Unit]
	Incoterms        *LookupRepo[*domain.Incoterm]
	CompanyTypes     *LookupRepo[*domain.CompanyType]
	Matters          *LookupRepo[*domain.Matter]
	FamilyTypes      *LookupRepo[*domain.FamilyType]
	SalesTypes       *LookupRepo[*domain.SalesType]
	DocumentStatuses *DocumentStatusRepo
}

// NewSession begins a transaction and mounts the repositories on it. The
// audit context supplies the acting principal and the clock for every
// stamp made through the session.
func (s *Store) NewSession(ctx context.Context, actx *audit.Context) (*Session, error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return nil, folio.NewInternalError(err)
	}
	sess := &Session{store: s, tx: tx, actx: actx}
	sess.mount()
	return sess, nil
}

func (sess *Session) mount() {
	sess.Companies = &CompanyRepo{newRepository(sess, companyMeta())}
	sess.Ruts = &RutRepo{newRepository(sess, rutMeta())}
	sess.Plants = &PlantRepo{newRepository(sess, plantMeta())}
	sess.Contacts = &ContactRepo{newRepository(sess, contactMeta())}
	sess.Departments = &DepartmentRepo{newRepository(sess, departmentMeta())}
	sess.Addresses = &AddressRepo{newRepository(sess, addressMeta())}
	sess.Principals = &PrincipalRepo{newRepository(sess, principalMeta())}

	sess.Products = &ProductRepo{newRepository(sess, productMeta())}
	sess.Components = &ComponentRepo{newRepository(sess, componentMeta())}

	sess.Quotes = &QuoteRepo{documentRepo[*domain.Quote]{newRepository(sess, quoteMeta()), "quote_number", "quote_date"}}
	sess.QuoteLines = newLineRepo(sess, quoteLineMeta(), "quote_id", func(l *domain.QuoteLine) int64 { return l.QuoteID })
	sess.Orders = &OrderRepo{documentRepo[*domain.Order]{newRepository(sess, orderMeta()), "order_number", "order_date"}}
	sess.OrderLines = newLineRepo(sess, orderLineMeta(), "order_id", func(l *domain.OrderLine) int64 { return l.OrderID })
	sess.Deliveries = &DeliveryRepo{documentRepo[*domain.DeliveryOrder]{newRepository(sess, deliveryMeta()), "delivery_number", "delivery_date"}}
	sess.SIIInvoices = &SIIInvoiceRepo{documentRepo[*domain.SIIInvoice]{newRepository(sess, siiInvoiceMeta()), "invoice_number", "invoice_date"}}
	sess.ExportInvoices = &ExportInvoiceRepo{documentRepo[*domain.ExportInvoice]{newRepository(sess, exportInvoiceMeta()), "invoice_number", "invoice_date"}}

	sess.Notes = &NoteRepo{newRepository(sess, noteMeta())}
	sess.PaymentConditions = &PaymentConditionRepo{newRepository(sess, paymentConditionMeta())}

	sess.Countries = newLookupRepo[*domain.Country](sess, "country", "Country")
	sess.Cities = &CityRepo{newRepository(sess, cityMeta())}
	sess.Currencies = &CurrencyRepo{newRepository(sess, currencyMeta())}
	sess.Units = newLookupRepo[*domain.Unit](sess, "unit", "Unit")
	sess.Incoterms = newLookupRepo[*domain.Incoterm](sess, "incoterm", "Incoterm")
	sess.CompanyTypes = newLookupRepo[*domain.CompanyType](sess, "company type", "CompanyType")
	sess.Matters = newLookupRepo[*domain.Matter](sess, "matter", "Matter")
	sess.FamilyTypes = newLookupRepo[*domain.FamilyType](sess, "family type", "FamilyType")
	sess.SalesTypes = newLookupRepo[*domain.SalesType](sess, "sales type", "SalesType")
	sess.DocumentStatuses = &DocumentStatusRepo{newRepository(sess, documentStatusMeta())}
}

// Audit returns the session's audit context.
func (sess *Session) Audit() *audit.Context { return sess.actx }

// Dialect returns the session dialect.
func (sess *Session) Dialect() string { return sess.store.Dialect() }

// Conn returns the session transaction for statements built outside the
// repositories, such as the sequence generator's locked counter update.
func (sess *Session) Conn() dialect.ExecQuerier { return sess.tx }

// prepare attaches per-session statement context: the audit session
// variable when configured.
func (sess *Session) prepare(ctx context.Context) context.Context {
	if sess.store.auditVar != "" && sess.store.Dialect() == dialect.Postgres {
		ctx = sql.WithIntVar(ctx, sess.store.auditVar, int(sess.actx.PrincipalID()))
	}
	return ctx
}

// Commit commits the unit of work. The session is unusable afterwards.
func (sess *Session) Commit() error {
	if sess.done {
		return folio.NewInternalError(errors.New("store: session already closed"))
	}
	sess.done = true
	if err := sess.tx.Commit(); err != nil {
		return mapError("session", err)
	}
	return nil
}

// Rollback discards the unit of work. Calling it after Commit (or a
// second time) is a no-op, so it can be deferred unconditionally.
func (sess *Session) Rollback() error {
	if sess.done {
		return nil
	}
	sess.done = true
	if err := sess.tx.Rollback(); err != nil {
		return &folio.RollbackError{Err: err}
	}
	return nil
}

type ctxSessionKey struct{}

// SessionFromContext returns the session installed by RunInSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxSessionKey{}).(*Session)
	return sess, ok
}

// RunInSession is the canonical transaction wrapper: begin a session as
// the given audit context, run fn, commit; roll back on error or panic.
// Nesting is refused with ErrTxStarted; a unit of work spans exactly one
// externally initiated request.
func (s *Store) RunInSession(ctx context.Context, actx *audit.Context, fn func(context.Context, *Session) error) error {
	if _, ok := SessionFromContext(ctx); ok {
		return folio.ErrTxStarted
	}
	sess, err := s.NewSession(ctx, actx)
	if err != nil {
		return err
	}
	ctx = context.WithValue(ctx, ctxSessionKey{}, sess)
	defer func() {
		if v := recover(); v != nil {
			_ = sess.Rollback()
			panic(v)
		}
	}()
	if err := fn(ctx, sess); err != nil {
		if rerr := sess.Rollback(); rerr != nil {
			s.log.Error("store: rollback failed",
				"error", rerr,
				"correlation_id", actx.CorrelationID(),
			)
		}
		return err
	}
	return sess.Commit()
}

// mapError translates a driver error into the error kinds callers handle.
// Lock contention comes back retryable; constraint violations are
// conflicts; anything else is internal. Context cancellation passes
// through untouched.
func mapError(label string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return err
	case sql.IsLockError(err):
		return folio.NewRetryableConflictError(label+": lock contention", err)
	case sql.IsUniqueConstraintError(err):
		return folio.NewConflictError(label+": duplicate value", err)
	case sql.IsForeignKeyConstraintError(err):
		return folio.NewConflictError(label+": row is referenced or reference is missing", err)
	case sql.IsCheckConstraintError(err):
		return folio.NewConflictError(label+": check constraint violated", err)
	default:
		return folio.NewInternalError(err)
	}
}
