package sql

import (
	"context"

	"github.com/australsoft/folio/dialect"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName is the OpenTelemetry instrumentation scope for this package.
const instrumentationName = "github.com/australsoft/folio/dialect/sql"

// TraceDriver wraps a Driver and emits an OpenTelemetry span per statement.
type TraceDriver struct {
	*Driver
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

// TraceOption configures the TraceDriver.
type TraceOption func(*traceConfig)

type traceConfig struct {
	provider trace.TracerProvider
	attrs    []attribute.KeyValue
}

// WithTracerProvider sets the provider used to create the tracer.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) TraceOption {
	return func(c *traceConfig) {
		c.provider = tp
	}
}

// WithTraceAttributes appends attributes to every span.
func WithTraceAttributes(attrs ...attribute.KeyValue) TraceOption {
	return func(c *traceConfig) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// NewTraceDriver wraps a Driver with span emission.
//
// Example:
//
//	drv := sql.OpenDB(dialect.Postgres, db)
//	traced := sql.NewTraceDriver(drv, sql.WithTracerProvider(tp))
//	st := store.New(traced)
func NewTraceDriver(drv *Driver, opts ...TraceOption) *TraceDriver {
	cfg := &traceConfig{provider: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(cfg)
	}
	attrs := append([]attribute.KeyValue{attribute.String("db.system", drv.Dialect())}, cfg.attrs...)
	return &TraceDriver{
		Driver: drv,
		tracer: cfg.provider.Tracer(instrumentationName),
		attrs:  attrs,
	}
}

// Query executes a query inside a client span.
func (d *TraceDriver) Query(ctx context.Context, query string, args, v any) error {
	ctx, span := d.start(ctx, "sql.query", query)
	defer span.End()
	err := d.Driver.Query(ctx, query, args, v)
	recordSpanError(span, err)
	return err
}

// Exec executes a statement inside a client span.
func (d *TraceDriver) Exec(ctx context.Context, query string, args, v any) error {
	ctx, span := d.start(ctx, "sql.exec", query)
	defer span.End()
	err := d.Driver.Exec(ctx, query, args, v)
	recordSpanError(span, err)
	return err
}

// Tx starts a transaction whose statements are traced.
func (d *TraceDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	ctx, span := d.start(ctx, "sql.tx.begin", "")
	defer span.End()
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return &TraceTx{Tx: tx, driver: d, ctx: ctx}, nil
}

func (d *TraceDriver) start(ctx context.Context, name, query string) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(d.attrs...),
	}
	if query != "" {
		opts = append(opts, trace.WithAttributes(attribute.String("db.statement", query)))
	}
	return d.tracer.Start(ctx, name, opts...)
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// TraceTx wraps a transaction with span emission. The begin context is kept
// so commit and rollback spans attach to the same trace.
type TraceTx struct {
	dialect.Tx
	driver *TraceDriver
	ctx    context.Context
}

// Query executes a query within the transaction inside a client span.
func (tx *TraceTx) Query(ctx context.Context, query string, args, v any) error {
	ctx, span := tx.driver.start(ctx, "sql.tx.query", query)
	defer span.End()
	err := tx.Tx.Query(ctx, query, args, v)
	recordSpanError(span, err)
	return err
}

// Exec executes a statement within the transaction inside a client span.
func (tx *TraceTx) Exec(ctx context.Context, query string, args, v any) error {
	ctx, span := tx.driver.start(ctx, "sql.tx.exec", query)
	defer span.End()
	err := tx.Tx.Exec(ctx, query, args, v)
	recordSpanError(span, err)
	return err
}

// Commit commits the transaction inside a span.
func (tx *TraceTx) Commit() error {
	_, span := tx.driver.start(tx.ctx, "sql.tx.commit", "")
	defer span.End()
	err := tx.Tx.Commit()
	recordSpanError(span, err)
	return err
}

// Rollback rolls back the transaction inside a span.
func (tx *TraceTx) Rollback() error {
	_, span := tx.driver.start(tx.ctx, "sql.tx.rollback", "")
	defer span.End()
	err := tx.Tx.Rollback()
	recordSpanError(span, err)
	return err
}

var (
	_ dialect.Driver = (*TraceDriver)(nil)
	_ dialect.Tx     = (*TraceTx)(nil)
)
