package sql

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/australsoft/folio/dialect"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsDriverCounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := NewStatsDriver(OpenDB(dialect.SQLite, db))

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE").WillReturnError(errors.New("boom"))

	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT id FROM products", []any{}, rows))
	require.NoError(t, rows.Close())
	require.NoError(t, drv.Exec(context.Background(), "INSERT INTO products DEFAULT VALUES", []any{}, nil))
	require.Error(t, drv.Exec(context.Background(), "UPDATE products SET sku = NULL", []any{}, nil))

	s := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), s.TotalQueries)
	assert.Equal(t, int64(2), s.TotalExecs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Greater(t, s.TotalDuration, time.Duration(0))
	assert.Greater(t, s.AvgQueryDuration(), time.Duration(0))

	drv.QueryStats().Reset()
	s = drv.QueryStats().Stats()
	assert.Equal(t, int64(0), s.TotalQueries)
	assert.Equal(t, time.Duration(0), s.AvgQueryDuration())
}

func TestStatsDriverSlowHook(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var (
		mu   sync.Mutex
		seen []string
	)
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db),
		WithSlowThreshold(0), // every query counts as slow
		WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			mu.Lock()
			seen = append(seen, query)
			mu.Unlock()
		}),
	)
	require.Equal(t, time.Duration(0), drv.SlowThreshold())

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT id FROM sii_invoices", []any{}, rows))
	require.NoError(t, rows.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, "SELECT id FROM sii_invoices", seen[0])
	assert.Equal(t, int64(1), drv.QueryStats().Stats().SlowQueries)
}

func TestStatsDriverTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	drv := NewStatsDriver(OpenDB(dialect.SQLite, db))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "INSERT INTO notes DEFAULT VALUES", []any{}, nil))
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(1), drv.QueryStats().Stats().TotalExecs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var logged []string
	drv := NewDebugDriver(OpenDB(dialect.SQLite, db), DebugWithLog(func(_ context.Context, v ...any) {
		for _, e := range v {
			logged = append(logged, e.(string))
		}
	}))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "INSERT INTO notes DEFAULT VALUES", []any{}, nil))
	require.NoError(t, tx.Commit())

	require.Len(t, logged, 3)
	assert.Equal(t, "begin transaction", logged[0])
	assert.Contains(t, logged[1], "tx exec: INSERT INTO notes DEFAULT VALUES")
	assert.Equal(t, "commit transaction", logged[2])
	require.NoError(t, mock.ExpectationsWereMet())
}
