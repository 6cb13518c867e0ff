package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/australsoft/folio/dialect"
)

// defaultSlowThreshold is the slow-statement cutoff used when the caller
// does not set one.
const defaultSlowThreshold = 100 * time.Millisecond

// SlowQueryHook receives statements whose round trip exceeded the slow
// threshold. Hooks run on the calling goroutine, after the statement has
// finished and before its result is returned.
type SlowQueryHook func(ctx context.Context, query string, args []any, elapsed time.Duration)

// StatsDriver decorates a Driver with request counters and slow-statement
// detection. Counters are atomic and shared with the transactions the
// driver opens, so a single snapshot covers both paths.
//
// The ops CLI installs it under the store when storage.slow_query is set:
//
//	drv := sql.NewStatsDriver(sql.OpenDB(dialect.Postgres, db),
//	    sql.WithSlowThreshold(250*time.Millisecond),
//	    sql.WithSlowQueryLog(),
//	)
//	st := store.New(drv)
//
// On a busy install the sequence counter is usually the first statement
// over the threshold: allocation takes a row lock, so writers queue there
// before anywhere else.
type StatsDriver struct {
	*Driver
	stats  *QueryStats
	slowNS atomic.Int64
	hooks  []SlowQueryHook
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the elapsed time above which a statement counts
// as slow. Zero counts every statement. Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowNS.Store(int64(d))
	}
}

// WithSlowQueryHook registers a hook for slow statements. Hooks run in
// registration order.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.hooks = append(s.hooks, hook)
	}
}

// WithSlowQueryLog registers a hook that reports slow statements through
// slog.Default. The statement text and elapsed time are logged; the
// arguments are not.
func WithSlowQueryLog() StatsOption {
	return WithSlowQueryHook(func(_ context.Context, query string, _ []any, elapsed time.Duration) {
		slog.Warn("sql: slow query", "elapsed", elapsed, "query", query)
	})
}

// NewStatsDriver wraps drv with counters and slow-statement detection.
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{Driver: drv, stats: &QueryStats{}}
	s.slowNS.Store(int64(defaultSlowThreshold))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the live counters shared by the driver and its
// transactions.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold reports the current slow-statement cutoff.
func (d *StatsDriver) SlowThreshold() time.Duration {
	return time.Duration(d.slowNS.Load())
}

// SetSlowThreshold replaces the cutoff. Statements already in flight are
// judged against the value read when they complete.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.slowNS.Store(int64(threshold))
}

// Query runs the statement through the wrapped driver and records it.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.observe(ctx, stmtQuery, query, args, time.Since(start), err)
	return err
}

// Exec runs the statement through the wrapped driver and records it.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.observe(ctx, stmtExec, query, args, time.Since(start), err)
	return err
}

// Tx opens a transaction whose statements land on the same counters.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, drv: d}, nil
}

type stmtKind int

const (
	stmtQuery stmtKind = iota
	stmtExec
)

func (d *StatsDriver) observe(ctx context.Context, kind stmtKind, query string, args any, elapsed time.Duration, err error) {
	switch kind {
	case stmtQuery:
		d.stats.queries.Add(1)
	case stmtExec:
		d.stats.execs.Add(1)
	}
	d.stats.busy.Add(int64(elapsed))
	if err != nil {
		d.stats.failed.Add(1)
	}
	if elapsed <= time.Duration(d.slowNS.Load()) {
		return
	}
	d.stats.slow.Add(1)
	if len(d.hooks) > 0 {
		vs, _ := args.([]any)
		for _, hook := range d.hooks {
			hook(ctx, query, vs, elapsed)
		}
	}
}

// StatsTx records transactional statements into the parent driver's
// counters.
type StatsTx struct {
	dialect.Tx
	drv *StatsDriver
}

// Query runs the statement inside the transaction and records it.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.drv.observe(ctx, stmtQuery, query, args, time.Since(start), err)
	return err
}

// Exec runs the statement inside the transaction and records it.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.drv.observe(ctx, stmtExec, query, args, time.Since(start), err)
	return err
}

// QueryStats accumulates counters for one driver. All methods are safe
// for concurrent use; read through Stats, never hold a reference to a
// snapshot expecting it to update.
type QueryStats struct {
	queries atomic.Int64
	execs   atomic.Int64
	slow    atomic.Int64
	failed  atomic.Int64
	busy    atomic.Int64 // summed statement time, nanoseconds
}

// Stats returns a point-in-time copy of the counters.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.queries.Load(),
		TotalExecs:    s.execs.Load(),
		TotalDuration: time.Duration(s.busy.Load()),
		SlowQueries:   s.slow.Load(),
		Errors:        s.failed.Load(),
	}
}

// Reset zeroes the counters. Statements in flight may land on either
// side of the reset.
func (s *QueryStats) Reset() {
	s.queries.Store(0)
	s.execs.Store(0)
	s.slow.Store(0)
	s.failed.Store(0)
	s.busy.Store(0)
}

// StatsSnapshot is one reading of a driver's counters.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the mean round trip across queries and execs,
// or zero when nothing has run.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	if n := s.TotalQueries + s.TotalExecs; n > 0 {
		return s.TotalDuration / time.Duration(n)
	}
	return 0
}

// String renders the snapshot on one line for logs.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors)
}

// DebugDriver logs every statement before forwarding it to the wrapped
// Driver. Statement arguments are included in the output, so keep it out
// of environments where parameters are sensitive.
type DebugDriver struct {
	*Driver
	print func(context.Context, ...any)
}

// DebugOption configures a DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog replaces the output function. The default prints through
// slog.Default at info level.
func DebugWithLog(logf func(context.Context, ...any)) DebugOption {
	return func(d *DebugDriver) {
		d.print = logf
	}
}

// NewDebugDriver wraps drv with statement logging.
func NewDebugDriver(drv *Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		print: func(_ context.Context, v ...any) {
			slog.Info(fmt.Sprint(v...))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query logs the statement and runs it.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.print(ctx, fmt.Sprintf("query: %s args: %v", query, args))
	return d.Driver.Query(ctx, query, args, v)
}

// Exec logs the statement and runs it.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.print(ctx, fmt.Sprintf("exec: %s args: %v", query, args))
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx opens a transaction whose statements and outcome are logged.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.print(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, print: d.print}, nil
}

// DebugTx logs transactional statements plus commit and rollback.
type DebugTx struct {
	dialect.Tx
	print func(context.Context, ...any)
}

// Query logs the statement and runs it inside the transaction.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.print(ctx, fmt.Sprintf("tx query: %s args: %v", query, args))
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec logs the statement and runs it inside the transaction.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.print(ctx, fmt.Sprintf("tx exec: %s args: %v", query, args))
	return tx.Tx.Exec(ctx, query, args, v)
}

// Commit logs and commits.
func (tx *DebugTx) Commit() error {
	tx.print(context.Background(), "commit transaction")
	return tx.Tx.Commit()
}

// Rollback logs and rolls back.
func (tx *DebugTx) Rollback() error {
	tx.print(context.Background(), "rollback transaction")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)
