package catalog_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/audit"
	"github.com/australsoft/folio/catalog"
	"github.com/australsoft/folio/dialect"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.ToLower(strings.ReplaceAll(t.Name(), "/", "_"))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	s, err := store.Open(dialect.SQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Seed(ctx))
	return s
}

func begin(t *testing.T, s *store.Store) (context.Context, *store.Session) {
	t.Helper()
	ctx := context.Background()
	sess, err := s.NewSession(ctx, audit.New(1))
	require.NoError(t, err)
	t.Cleanup(func() { sess.Rollback() })
	return ctx, sess
}

func statusCodes(rows []*domain.DocumentStatus) []string {
	codes := make([]string, len(rows))
	for i, r := range rows {
		codes[i] = r.Code
	}
	return codes
}

func TestStatusesServeFromCache(t *testing.T) {
	s := openStore(t)
	ctx, sess := begin(t, s)
	cat := catalog.New(folio.NewMemoryCache())

	rows, err := cat.Statuses(ctx, sess, domain.FamilyQuote)
	require.NoError(t, err)
	assert.Equal(t, []string{"DRAFT", "SENT", "ACCEPTED", "REJECTED", "EXPIRED"},
		statusCodes(rows), "seeded quote workflow in sort order")

	// A direct write without invalidation stays invisible: the second
	// read is served from the cache, not the table.
	require.NoError(t, sess.DocumentStatuses.Create(ctx, &domain.DocumentStatus{
		Family: string(domain.FamilyQuote), Code: "archived", Name: "Archived",
		Sort: 5, IsActive: true,
	}))
	rows, err = cat.Statuses(ctx, sess, domain.FamilyQuote)
	require.NoError(t, err)
	assert.Len(t, rows, 5, "cached list ignores the uninvalidated write")

	orders, err := cat.Statuses(ctx, sess, domain.FamilyOrder)
	require.NoError(t, err)
	assert.Len(t, orders, 4, "each family caches under its own key")

	require.NoError(t, cat.Invalidate(ctx, catalog.TableDocumentStatuses))
	rows, err = cat.Statuses(ctx, sess, domain.FamilyQuote)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
	assert.Equal(t, "ARCHIVED", rows[5].Code, "codes normalize uppercase on create")
}

func TestStatusExists(t *testing.T) {
	s := openStore(t)
	ctx, sess := begin(t, s)
	cat := catalog.New(folio.NewMemoryCache())

	ok, err := cat.StatusExists(ctx, sess, domain.FamilyQuote, " draft ")
	require.NoError(t, err)
	assert.True(t, ok, "codes fold to uppercase before matching")

	ok, err = cat.StatusExists(ctx, sess, domain.FamilyQuote, "IN_PROGRESS")
	require.NoError(t, err)
	assert.False(t, ok, "codes do not leak across families")

	ok, err = cat.StatusExists(ctx, sess, domain.FamilyOrder, "IN_PROGRESS")
	require.NoError(t, err)
	assert.True(t, ok)

	// Inactive codes stay listed for historical documents but no longer
	// validate a status change.
	require.NoError(t, sess.DocumentStatuses.Create(ctx, &domain.DocumentStatus{
		Family: string(domain.FamilyQuote), Code: "LEGACY", Name: "Legacy",
		Sort: 9, IsActive: false,
	}))
	require.NoError(t, cat.Invalidate(ctx, catalog.TableDocumentStatuses))

	rows, err := cat.Statuses(ctx, sess, domain.FamilyQuote)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
	ok, err = cat.StatusExists(ctx, sess, domain.FamilyQuote, "LEGACY")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCitiesCachePerCountry(t *testing.T) {
	s := openStore(t)
	ctx, sess := begin(t, s)
	cat := catalog.New(folio.NewMemoryCache())

	cl := &domain.Country{Lookup: domain.Lookup{Code: "CL", Name: "Chile", IsActive: true}}
	fr := &domain.Country{Lookup: domain.Lookup{Code: "FR", Name: "France", IsActive: true}}
	require.NoError(t, sess.Countries.CreateMany(ctx, []*domain.Country{cl, fr}))
	require.NoError(t, sess.Cities.CreateMany(ctx, []*domain.City{
		{Name: "Punta Arenas", CountryID: cl.ID, IsActive: true},
		{Name: "Santiago", CountryID: cl.ID, IsActive: true},
		{Name: "Lyon", CountryID: fr.ID, IsActive: true},
	}))

	chile, err := cat.CitiesOf(ctx, sess, cl.ID)
	require.NoError(t, err)
	require.Len(t, chile, 2)
	assert.Equal(t, "Punta Arenas", chile[0].Name, "cities order by name")

	france, err := cat.CitiesOf(ctx, sess, fr.ID)
	require.NoError(t, err)
	require.Len(t, france, 1)

	require.NoError(t, sess.Cities.CreateMany(ctx, []*domain.City{
		{Name: "Arica", CountryID: cl.ID, IsActive: true},
		{Name: "Marseille", CountryID: fr.ID, IsActive: true},
	}))
	chile, err = cat.CitiesOf(ctx, sess, cl.ID)
	require.NoError(t, err)
	assert.Len(t, chile, 2, "stale until invalidated")

	// One sweep drops every per-country entry.
	require.NoError(t, cat.Invalidate(ctx, catalog.TableCities))
	chile, err = cat.CitiesOf(ctx, sess, cl.ID)
	require.NoError(t, err)
	assert.Len(t, chile, 3)
	france, err = cat.CitiesOf(ctx, sess, fr.ID)
	require.NoError(t, err)
	assert.Len(t, france, 2)
}

func TestCurrencyByCode(t *testing.T) {
	s := openStore(t)
	ctx, sess := begin(t, s)
	cat := catalog.New(folio.NewMemoryCache())

	require.NoError(t, sess.Currencies.CreateMany(ctx, []*domain.Currency{
		{Lookup: domain.Lookup{Code: "CLP", Name: "Peso chileno", IsActive: true}, Symbol: "$", DecimalPlaces: 0},
		{Lookup: domain.Lookup{Code: "EUR", Name: "Euro", IsActive: true}, Symbol: "€", DecimalPlaces: 2},
		{Lookup: domain.Lookup{Code: "USD", Name: "US Dollar", IsActive: false}, Symbol: "US$", DecimalPlaces: 2},
	}))

	eur, err := cat.CurrencyByCode(ctx, sess, "eur")
	require.NoError(t, err)
	assert.Equal(t, "€", eur.Symbol)
	assert.Equal(t, int32(2), eur.DecimalPlaces)

	_, err = cat.CurrencyByCode(ctx, sess, "USD")
	assert.True(t, folio.IsNotFound(err), "inactive currencies do not resolve")
	_, err = cat.CurrencyByCode(ctx, sess, "XXX")
	assert.True(t, folio.IsNotFound(err))

	list, err := cat.Currencies(ctx, sess)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "CLP", list[0].Code)
	assert.Equal(t, "EUR", list[1].Code)
}

func TestInvalidateAll(t *testing.T) {
	s := openStore(t)
	ctx, sess := begin(t, s)
	cat := catalog.New(folio.NewMemoryCache())

	require.NoError(t, sess.Units.CreateMany(ctx, []*domain.Unit{
		{Lookup: domain.Lookup{Code: "UN", Name: "Unidad", IsActive: true}},
		{Lookup: domain.Lookup{Code: "KG", Name: "Kilogramo", IsActive: true}},
	}))
	require.NoError(t, sess.Countries.Create(ctx, &domain.Country{
		Lookup: domain.Lookup{Code: "CL", Name: "Chile", IsActive: true},
	}))

	units, err := cat.Units(ctx, sess)
	require.NoError(t, err)
	require.Len(t, units, 2)
	countries, err := cat.Countries(ctx, sess)
	require.NoError(t, err)
	require.Len(t, countries, 1)

	kg, err := sess.Units.ByCode(ctx, "KG")
	require.NoError(t, err)
	require.NoError(t, sess.Units.Deactivate(ctx, kg.ID))

	units, err = cat.Units(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, units, 2, "deactivation not visible before the sweep")

	require.NoError(t, cat.InvalidateAll(ctx))
	units, err = cat.Units(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, units, 1)
	countries, err = cat.Countries(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, countries, 1)
}
