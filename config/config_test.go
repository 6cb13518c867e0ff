package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/config"
	"github.com/australsoft/folio/dialect"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/sequence"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadOverDefaults(t *testing.T) {
	t.Setenv("FOLIO_DB_PASSWORD", "s3cr3t")
	path := write(t, t.TempDir(), "folio.yaml", `
storage:
  dialect: postgres
  dsn: postgres://folio:${FOLIO_DB_PASSWORD}@db:5432/folio
  max_open_conns: 25
  slow_query: 250ms
  audit_var: folio.principal_id
sequences:
  pad: 6
  codes:
    quote: COT
logging:
  level: debug
  format: json
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, cfg.Storage.Dialect)
	assert.Equal(t, "postgres://folio:s3cr3t@db:5432/folio", cfg.Storage.DSN, "env references expand")
	assert.Equal(t, "pgx", cfg.Storage.DriverName())
	assert.Equal(t, 25, cfg.Storage.MaxOpenConns)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.SlowQuery.Std())
	assert.Equal(t, "folio.principal_id", cfg.Storage.AuditVar)
	assert.Equal(t, 6, cfg.Sequences.Pad)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadKeepsDefaultsForAbsentSections(t *testing.T) {
	path := write(t, t.TempDir(), "folio.yaml", "logging:\n  format: json\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, cfg.Storage.Dialect)
	assert.Equal(t, "sqlite", cfg.Storage.DriverName())
	assert.NotEmpty(t, cfg.Storage.DSN)
	assert.Equal(t, 100*time.Millisecond, cfg.Storage.SlowQuery.Std())
	assert.Equal(t, 4, cfg.Sequences.Pad)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"dialect": "storage:\n  dialect: oracle\n  dsn: x\n",
		"level":   "logging:\n  level: loud\n",
		"family":  "sequences:\n  codes:\n    receipt: R\n",
		"pool":    "storage:\n  dialect: sqlite\n  dsn: x\n  max_open_conns: -1\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := write(t, dir, name+".yaml", content)
			_, err := config.Load(path)
			assert.True(t, folio.IsValidationError(err), "got %v", err)
		})
	}

	_, err := config.Load(filepath.Join(dir, "absent.yaml"))
	assert.True(t, folio.IsInternal(err))
}

func TestSequenceOptionsMergeDefaults(t *testing.T) {
	s := config.Sequences{Pad: 5, Codes: map[string]string{"quote": "COT"}}
	opts, err := s.Options()
	require.NoError(t, err)

	g := sequence.New(opts...)
	n, err := g.Format(domain.FamilyQuote, 2025, "FRI", 12)
	require.NoError(t, err)
	assert.Equal(t, "COT-FRI-2025-00012", n, "configured code and pad apply")

	n, err = g.Format(domain.FamilyDelivery, 2025, "", 3)
	require.NoError(t, err)
	assert.Equal(t, "GD-2025-00003", n, "unmentioned families keep the stock code")
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	envFile := write(t, dir, "test.env", "FOLIO_TEST_SENTINEL=from-dotenv\n")
	t.Setenv("FOLIO_TEST_SENTINEL", "")
	os.Unsetenv("FOLIO_TEST_SENTINEL")

	require.NoError(t, config.LoadDotenv(envFile))
	assert.Equal(t, "from-dotenv", os.Getenv("FOLIO_TEST_SENTINEL"))

	require.NoError(t, config.LoadDotenv(filepath.Join(dir, "missing.env")),
		"missing files are skipped")
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "folio.yaml", "logging:\n  level: info\n")

	got := make(chan config.Config, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- config.Watch(ctx, path, func(c config.Config) { got <- c })
	}()

	// Give the watcher a moment to register before the first write.
	time.Sleep(100 * time.Millisecond)
	write(t, dir, "folio.yaml", "logging:\n  level: warn\n")

	select {
	case cfg := <-got:
		assert.Equal(t, "warn", cfg.Logging.Level)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	// A broken rewrite is skipped, not delivered.
	write(t, dir, "folio.yaml", "logging:\n  level: loud\n")
	write(t, dir, "other.yaml", "ignored: true\n")
	time.Sleep(200 * time.Millisecond)
	write(t, dir, "folio.yaml", "logging:\n  level: error\n")

	for {
		select {
		case cfg := <-got:
			require.NotEqual(t, "loud", cfg.Logging.Level, "invalid reloads must be dropped")
			if cfg.Logging.Level == "error" {
				cancel()
				require.ErrorIs(t, <-done, context.Canceled)
				return
			}
		case <-time.After(5 * time.Second):
			t.Fatal("no reload observed after the broken rewrite")
		}
	}
}
