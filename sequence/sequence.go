// Package sequence issues human-readable document numbers from per-bucket
// counters in the sequences table. A bucket is a (family, year, prefix)
// triple; within one bucket numbers are strictly monotonic and, thanks to
// the row lock held until the caller's transaction ends, gap-free: a
// rollback un-issues the value for the next writer.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/dialect"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/domain"
)

const table = "sequences"

// DefaultCodes maps each document family to the short code its numbers
// open with: C-2025-0001 quotes, GD-2025-0001 delivery orders, and so on.
var DefaultCodes = map[domain.DocumentFamily]string{
	domain.FamilyQuote:         "C",
	domain.FamilyOrder:         "O",
	domain.FamilySIIInvoice:    "F",
	domain.FamilyExportInvoice: "FE",
	domain.FamilyDelivery:      "GD",
}

// Session is the slice of the unit of work the generator needs: the open
// transaction and the dialect its statements must speak. store.Session
// satisfies it.
type Session interface {
	Dialect() string
	Conn() dialect.ExecQuerier
}

// Generator formats and issues document numbers. The zero value is not
// usable; construct with New.
type Generator struct {
	codes map[domain.DocumentFamily]string
	pad   int
}

// Option configures a Generator.
type Option func(*Generator)

// WithCodes replaces the family code table, for deployments that brand
// their numbers differently.
func WithCodes(codes map[domain.DocumentFamily]string) Option {
	return func(g *Generator) {
		g.codes = make(map[domain.DocumentFamily]string, len(codes))
		for f, c := range codes {
			g.codes[f] = strings.ToUpper(strings.TrimSpace(c))
		}
	}
}

// WithPad sets the minimum digit count of the numeric segment. Values
// under 4 are raised to 4; the segment grows past the pad when the counter
// does.
func WithPad(pad int) Option {
	return func(g *Generator) {
		if pad < 4 {
			pad = 4
		}
		g.pad = pad
	}
}

// New returns a Generator with the default family codes and 4-digit
// padding.
func New(opts ...Option) *Generator {
	g := &Generator{codes: DefaultCodes, pad: 4}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next issues the next number of the bucket inside the session's
// transaction. The returned string is provisional until the session
// commits: on rollback the counter update vanishes with it, so callers
// must not externalize the number before commit.
//
// The bucket row is created lazily with an idempotent insert, then locked
// with SELECT ... FOR UPDATE (a no-op suffix on sqlite, whose single
// writer already serializes the update). Concurrent writers queue on the
// row lock, so issuance order equals commit order.
func (g *Generator) Next(ctx context.Context, sess Session, family domain.DocumentFamily, year int, prefix string) (string, error) {
	code, err := g.code(family)
	if err != nil {
		return "", err
	}
	if year <= 0 {
		return "", folio.NewValidationError("year", errors.New("must be positive"))
	}
	prefix = normalizePrefix(prefix)
	d := sess.Dialect()
	conn := sess.Conn()

	query, args := sql.Dialect(d).
		Insert(table).
		Columns("name", "year", "prefix", "last_value").
		Values(string(family), year, prefix, 0).
		OnConflictDoNothing().
		Query()
	var res sql.Result
	if err := conn.Exec(ctx, query, args, &res); err != nil {
		return "", wrap(err)
	}

	s := sql.Dialect(d).
		Select("last_value").
		From(sql.Table(table))
	s.Where(sql.And(
		sql.EQ(s.C("name"), string(family)),
		sql.EQ(s.C("year"), year),
		sql.EQ(s.C("prefix"), prefix),
	))
	query, args = s.ForUpdate().Query()
	var rows sql.Rows
	if err := conn.Query(ctx, query, args, &rows); err != nil {
		return "", wrap(err)
	}
	var last int64
	found := rows.Next()
	if found {
		if err := rows.Scan(&last); err != nil {
			rows.Close()
			return "", folio.NewInternalError(err)
		}
	}
	if err := rows.Close(); err != nil {
		return "", wrap(err)
	}
	if !found {
		return "", folio.NewInternalError(fmt.Errorf("sequence: bucket %s/%d/%q missing after upsert", family, year, prefix))
	}

	next := last + 1
	query, args = sql.Dialect(d).
		Update(table).
		Set("last_value", next).
		Where(sql.And(
			sql.EQ("name", string(family)),
			sql.EQ("year", year),
			sql.EQ("prefix", prefix),
		)).
		Query()
	if err := conn.Exec(ctx, query, args, &res); err != nil {
		return "", wrap(err)
	}
	return g.format(code, year, prefix, next), nil
}

// Format renders the number a bucket would emit for counter value n,
// without touching the store. The CLI preview and tests use it.
func (g *Generator) Format(family domain.DocumentFamily, year int, prefix string, n int64) (string, error) {
	code, err := g.code(family)
	if err != nil {
		return "", err
	}
	if year <= 0 {
		return "", folio.NewValidationError("year", errors.New("must be positive"))
	}
	if n <= 0 {
		return "", folio.NewValidationError("value", errors.New("must be positive"))
	}
	return g.format(code, year, normalizePrefix(prefix), n), nil
}

func (g *Generator) format(code string, year int, prefix string, n int64) string {
	var b strings.Builder
	b.WriteString(code)
	b.WriteByte('-')
	if prefix != "" {
		b.WriteString(prefix)
		b.WriteByte('-')
	}
	b.WriteString(strconv.Itoa(year))
	b.WriteByte('-')
	fmt.Fprintf(&b, "%0*d", g.pad, n)
	return b.String()
}

func (g *Generator) code(family domain.DocumentFamily) (string, error) {
	code, ok := g.codes[family]
	if !ok || code == "" {
		return "", folio.NewValidationError("family", fmt.Errorf("no code configured for document family %q", family))
	}
	return code, nil
}

// normalizePrefix canonicalizes to uppercase, empty meaning "no prefix".
// The empty string, never NULL, keys prefixless buckets so the composite
// unique works identically across dialects.
func normalizePrefix(prefix string) string {
	return strings.ToUpper(strings.TrimSpace(prefix))
}

func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case sql.IsLockError(err):
		return folio.NewRetryableConflictError("sequence: lock contention on bucket", err)
	case sql.IsUniqueConstraintError(err):
		return folio.NewConflictError("sequence: concurrent bucket creation", err)
	default:
		return folio.NewInternalError(err)
	}
}
