package store

import (
	"context"
	"strings"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/domain"
)

// coded is the shape shared by the plain code/name reference tables.
type coded interface {
	domain.Entity
	LookupFields() *domain.Lookup
}

// codedMeta maps a code/name reference table through the embedded
// domain.Lookup, so the seven plain lookups share one row mapper.
func codedMeta[T interface {
	coded
	*U
}, U any](label, table string) meta[T] {
	return meta[T]{
		label:   label,
		table:   table,
		columns: []string{"code", "name", "is_active", colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (T, error) {
			e := T(new(U))
			l := e.LookupFields()
			err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.IsActive,
				&l.CreatedAt, &l.UpdatedAt, &l.CreatedBy, &l.UpdatedBy)
			return e, err
		},
		values: func(e T) []any {
			l := e.LookupFields()
			return []any{l.Code, l.Name, l.IsActive,
				l.CreatedAt, l.UpdatedAt, l.CreatedBy, l.UpdatedBy}
		},
	}
}

// LookupRepo serves a plain code/name reference table: countries, units,
// incoterms, company types, matters, family types and sales types.
type LookupRepo[T coded] struct {
	*Repository[T]
}

func newLookupRepo[T interface {
	coded
	*U
}, U any](s *Session, label, entity string) *LookupRepo[T] {
	return &LookupRepo[T]{newRepository(s, codedMeta[T, U](label, TableFor(entity)))}
}

// ByCode returns the row with the (case-insensitive) code, NotFound when
// absent.
func (r *LookupRepo[T]) ByCode(ctx context.Context, code string) (T, error) {
	var zero T
	code = strings.ToUpper(strings.TrimSpace(code))
	rows, err := r.Find(ctx, Query{Predicates: []Predicate{Code.EQ(code)}, Limit: 1})
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, folio.NewNotFoundErrorWithID(r.meta.label, code)
	}
	return rows[0], nil
}

// Active returns the active rows ordered by code.
func (r *LookupRepo[T]) Active(ctx context.Context) ([]T, error) {
	return r.Find(ctx, Query{Predicates: []Predicate{IsActive.EQ(true)}, OrderBy: "code"})
}

// Deactivate clears the is_active flag. Reference rows are deactivated,
// never deleted, so documents keep resolving against them.
func (r *LookupRepo[T]) Deactivate(ctx context.Context, id int64) error {
	n, err := r.UpdateMany(ctx, Query{Predicates: []Predicate{ByID(id)}}, map[string]any{"is_active": false})
	if err != nil {
		return err
	}
	if n == 0 {
		return folio.NewNotFoundErrorWithID(r.meta.label, id)
	}
	return nil
}

func currencyMeta() meta[*domain.Currency] {
	return meta[*domain.Currency]{
		label: "currency",
		table: TableFor("Currency"),
		columns: []string{"code", "name", "symbol", "decimal_places", "is_active",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.Currency, error) {
			c := new(domain.Currency)
			err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.DecimalPlaces, &c.IsActive,
				&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
			return c, err
		},
		values: func(c *domain.Currency) []any {
			return []any{c.Code, c.Name, c.Symbol, c.DecimalPlaces, c.IsActive,
				c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy}
		},
	}
}

// CurrencyRepo serves the currencies table.
type CurrencyRepo struct {
	*Repository[*domain.Currency]
}

// ByCode returns the currency with the ISO code, NotFound when absent.
func (r *CurrencyRepo) ByCode(ctx context.Context, code string) (*domain.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	rows, err := r.Find(ctx, Query{Predicates: []Predicate{Code.EQ(code)}, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, folio.NewNotFoundErrorWithID(r.meta.label, code)
	}
	return rows[0], nil
}

// Active returns the active currencies ordered by code.
func (r *CurrencyRepo) Active(ctx context.Context) ([]*domain.Currency, error) {
	return r.Find(ctx, Query{Predicates: []Predicate{IsActive.EQ(true)}, OrderBy: "code"})
}

func cityMeta() meta[*domain.City] {
	return meta[*domain.City]{
		label: "city",
		table: TableFor("City"),
		columns: []string{"name", "country_id", "is_active",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.City, error) {
			c := new(domain.City)
			err := rows.Scan(&c.ID, &c.Name, &c.CountryID, &c.IsActive,
				&c.CreatedAt, &c.UpdatedAt, &c.CreatedBy, &c.UpdatedBy)
			return c, err
		},
		values: func(c *domain.City) []any {
			return []any{c.Name, c.CountryID, c.IsActive,
				c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy}
		},
	}
}

// CityRepo serves the cities table.
type CityRepo struct {
	*Repository[*domain.City]
}

// ForCountry returns the active cities of a country ordered by name.
func (r *CityRepo) ForCountry(ctx context.Context, countryID int64) ([]*domain.City, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{CountryID.EQ(countryID), IsActive.EQ(true)},
		OrderBy:    "name",
	})
}

func documentStatusMeta() meta[*domain.DocumentStatus] {
	return meta[*domain.DocumentStatus]{
		label: "document status",
		table: TableFor("DocumentStatus"),
		columns: []string{"family", "code", "name", "sort", "is_active",
			colCreatedAt, colUpdatedAt, colCreatedBy, colUpdatedBy},
		scan: func(rows *sql.Rows) (*domain.DocumentStatus, error) {
			s := new(domain.DocumentStatus)
			err := rows.Scan(&s.ID, &s.Family, &s.Code, &s.Name, &s.Sort, &s.IsActive,
				&s.CreatedAt, &s.UpdatedAt, &s.CreatedBy, &s.UpdatedBy)
			return s, err
		},
		values: func(s *domain.DocumentStatus) []any {
			return []any{s.Family, s.Code, s.Name, s.Sort, s.IsActive,
				s.CreatedAt, s.UpdatedAt, s.CreatedBy, s.UpdatedBy}
		},
	}
}

// DocumentStatusRepo serves the per-family document status catalog.
type DocumentStatusRepo struct {
	*Repository[*domain.DocumentStatus]
}

// ForFamily returns a family's statuses in workflow order.
func (r *DocumentStatusRepo) ForFamily(ctx context.Context, family domain.DocumentFamily) ([]*domain.DocumentStatus, error) {
	return r.Find(ctx, Query{
		Predicates: []Predicate{Family.EQ(string(family))},
		OrderBy:    "sort",
	})
}

// CodeExists reports whether the family carries an active status with the
// code. Document services consult it before accepting a status change.
func (r *DocumentStatusRepo) CodeExists(ctx context.Context, family domain.DocumentFamily, code string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	n, err := r.Count(ctx, Query{Predicates: []Predicate{
		Family.EQ(string(family)),
		Code.EQ(code),
		IsActive.EQ(true),
	}})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
