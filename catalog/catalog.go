// Package catalog serves the reference tables through a read-through
// cache. Lookups such as countries, currencies and document statuses
// change rarely but are consulted on nearly every document operation, so
// the catalog keeps each table's active rows as one msgpack-encoded cache
// entry and refills it from the database on a miss.
//
// The cache never affects correctness: a read error, a decode error or a
// write error degrades to a plain database read. Writers that touch a
// reference table call Invalidate for it in the same request, and the TTL
// bounds how long other processes may serve the previous rows.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

// keyPrefix namespaces every catalog entry so Invalidate can sweep by
// table, and InvalidateAll by the prefix alone.
const keyPrefix = "catalog:"

// Table names accepted by Invalidate. They match the cache key segments,
// not the SQL table names.
const (
	TableDocumentStatuses = "document_statuses"
	TableCountries        = "countries"
	TableCities           = "cities"
	TableCurrencies       = "currencies"
	TableUnits            = "units"
	TableIncoterms        = "incoterms"
	TableCompanyTypes     = "company_types"
	TableMatters          = "matters"
	TableFamilyTypes      = "family_types"
	TableSalesTypes       = "sales_types"
)

// DefaultTTL bounds staleness when an entry is never invalidated, for
// example after a change made by another process against a shared
// database but a process-local cache.
const DefaultTTL = 5 * time.Minute

// Catalog is the cached view over the reference tables. Methods take the
// caller's session so a fill reads through the same transaction as the
// surrounding work; the cache itself is shared across sessions.
type Catalog struct {
	cache folio.Cache
	ttl   time.Duration
	log   *slog.Logger
	group singleflight.Group
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithTTL overrides DefaultTTL for new entries.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) { c.ttl = ttl }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.log = l }
}

// New returns a Catalog over the cache.
func New(cache folio.Cache, opts ...Option) *Catalog {
	c := &Catalog{cache: cache, ttl: DefaultTTL, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// cached returns the rows under key, filling from load on a miss.
// Concurrent misses on the same key collapse to one load; the winner's
// session performs the read and every waiter shares its rows. Cache
// failures are logged and degrade to the database, they never surface.
func cached[T any](ctx context.Context, c *Catalog, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if raw, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn("catalog: cache read failed", "key", key, "error", err)
	} else if raw != nil {
		var rows []T
		if err := msgpack.Unmarshal(raw, &rows); err == nil {
			return rows, nil
		}
		c.log.Warn("catalog: dropping undecodable entry", "key", key)
		if err := c.cache.Delete(ctx, key); err != nil {
			c.log.Warn("catalog: cache delete failed", "key", key, "error", err)
		}
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		rows, err := load(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := msgpack.Marshal(rows)
		if err != nil {
			c.log.Warn("catalog: cache encode failed", "key", key, "error", err)
			return rows, nil
		}
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			c.log.Warn("catalog: cache write failed", "key", key, "error", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

// Statuses returns a family's statuses in workflow order, inactive rows
// included so historical documents keep resolving their status names.
func (c *Catalog) Statuses(ctx context.Context, sess *store.Session, family domain.DocumentFamily) ([]*domain.DocumentStatus, error) {
	key := fmt.Sprintf("%s%s:%s", keyPrefix, TableDocumentStatuses, family)
	return cached(ctx, c, key, func(ctx context.Context) ([]*domain.DocumentStatus, error) {
		return sess.DocumentStatuses.ForFamily(ctx, family)
	})
}

// StatusExists reports whether the family carries an active status with
// the code. It scans the cached family list instead of issuing the
// repository's count, so document services validating a status change ask
// the database once per family per TTL.
func (c *Catalog) StatusExists(ctx context.Context, sess *store.Session, family domain.DocumentFamily, code string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	rows, err := c.Statuses(ctx, sess, family)
	if err != nil {
		return false, err
	}
	for _, s := range rows {
		if s.Code == code && s.IsActive {
			return true, nil
		}
	}
	return false, nil
}

// Countries returns the active countries ordered by code.
func (c *Catalog) Countries(ctx context.Context, sess *store.Session) ([]*domain.Country, error) {
	return cached(ctx, c, keyPrefix+TableCountries, func(ctx context.Context) ([]*domain.Country, error) {
		return sess.Countries.Active(ctx)
	})
}

// CitiesOf returns a country's active cities ordered by name. Each
// country caches under its own key, so invalidating cities sweeps every
// country at once while reads stay per-country sized.
func (c *Catalog) CitiesOf(ctx context.Context, sess *store.Session, countryID int64) ([]*domain.City, error) {
	key := fmt.Sprintf("%s%s:%d", keyPrefix, TableCities, countryID)
	return cached(ctx, c, key, func(ctx context.Context) ([]*domain.City, error) {
		return sess.Cities.ForCountry(ctx, countryID)
	})
}

// Currencies returns the active currencies ordered by code.
func (c *Catalog) Currencies(ctx context.Context, sess *store.Session) ([]*domain.Currency, error) {
	return cached(ctx, c, keyPrefix+TableCurrencies, func(ctx context.Context) ([]*domain.Currency, error) {
		return sess.Currencies.Active(ctx)
	})
}

// CurrencyByCode resolves an ISO currency code against the cached list,
// NotFound when absent or inactive.
func (c *Catalog) CurrencyByCode(ctx context.Context, sess *store.Session, code string) (*domain.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	rows, err := c.Currencies(ctx, sess)
	if err != nil {
		return nil, err
	}
	for _, cur := range rows {
		if cur.Code == code {
			return cur, nil
		}
	}
	return nil, folio.NewNotFoundErrorWithID("currency", code)
}

// Units returns the active measurement units ordered by code.
func (c *Catalog) Units(ctx context.Context, sess *store.Session) ([]*domain.Unit, error) {
	return cached(ctx, c, keyPrefix+TableUnits, func(ctx context.Context) ([]*domain.Unit, error) {
		return sess.Units.Active(ctx)
	})
}

// Incoterms returns the active incoterms ordered by code.
func (c *Catalog) Incoterms(ctx context.Context, sess *store.Session) ([]*domain.Incoterm, error) {
	return cached(ctx, c, keyPrefix+TableIncoterms, func(ctx context.Context) ([]*domain.Incoterm, error) {
		return sess.Incoterms.Active(ctx)
	})
}

// CompanyTypes returns the active company types ordered by code.
func (c *Catalog) CompanyTypes(ctx context.Context, sess *store.Session) ([]*domain.CompanyType, error) {
	return cached(ctx, c, keyPrefix+TableCompanyTypes, func(ctx context.Context) ([]*domain.CompanyType, error) {
		return sess.CompanyTypes.Active(ctx)
	})
}

// Matters returns the active matters ordered by code.
func (c *Catalog) Matters(ctx context.Context, sess *store.Session) ([]*domain.Matter, error) {
	return cached(ctx, c, keyPrefix+TableMatters, func(ctx context.Context) ([]*domain.Matter, error) {
		return sess.Matters.Active(ctx)
	})
}

// FamilyTypes returns the active product family types ordered by code.
func (c *Catalog) FamilyTypes(ctx context.Context, sess *store.Session) ([]*domain.FamilyType, error) {
	return cached(ctx, c, keyPrefix+TableFamilyTypes, func(ctx context.Context) ([]*domain.FamilyType, error) {
		return sess.FamilyTypes.Active(ctx)
	})
}

// SalesTypes returns the active sales types ordered by code.
func (c *Catalog) SalesTypes(ctx context.Context, sess *store.Session) ([]*domain.SalesType, error) {
	return cached(ctx, c, keyPrefix+TableSalesTypes, func(ctx context.Context) ([]*domain.SalesType, error) {
		return sess.SalesTypes.Active(ctx)
	})
}

// Invalidate drops the cached entries of the named tables. Callers that
// change a reference row invalidate its table in the same request; other
// processes converge within the TTL.
func (c *Catalog) Invalidate(ctx context.Context, tables ...string) error {
	for _, t := range tables {
		if err := c.cache.DeletePrefix(ctx, keyPrefix+t); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateAll drops every catalog entry.
func (c *Catalog) InvalidateAll(ctx context.Context) error {
	return c.cache.DeletePrefix(ctx, keyPrefix)
}
