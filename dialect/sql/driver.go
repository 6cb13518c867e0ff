package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/australsoft/folio/dialect"
)

// Driver implements dialect.Driver on top of a database/sql connection
// pool.
type Driver struct {
	Conn
	dialect string
}

// Open opens a pool with database/sql.Open and wraps it in a Driver. The
// driver name doubles as the dialect, so it only suits drivers registered
// under their dialect name; for postgres through pgx, open the pool
// yourself and use OpenDB.
func Open(dialect, source string) (*Driver, error) {
	db, err := sql.Open(dialect, source)
	if err != nil {
		return nil, err
	}
	return &Driver{Conn: Conn{db, dialect}, dialect: dialect}, nil
}

// OpenDB wraps an existing pool in a Driver speaking the given dialect.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return &Driver{Conn: Conn{db, dialect}, dialect: dialect}
}

// DB returns the underlying *sql.DB.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect reports the driver's dialect. Names carrying a suffix, such as
// a replica or tracing wrapper registered as "postgres-tracing", resolve
// to their base dialect.
func (d Driver) Dialect() string {
	for _, name := range []string{dialect.Postgres, dialect.MySQL, dialect.SQLite} {
		if strings.HasPrefix(d.dialect, name) {
			return name
		}
	}
	return d.dialect
}

// Tx starts and returns a transaction.
func (d *Driver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{Conn: Conn{tx, d.dialect}, Tx: tx}, nil
}

// Close closes the underlying pool.
func (d *Driver) Close() error { return d.DB().Close() }

// Tx implements dialect.Tx over a database/sql transaction.
type Tx struct {
	Conn
	driver.Tx
}

// ExecQuerier is the subset of database/sql methods shared by *sql.DB,
// *sql.Conn and *sql.Tx that Conn runs statements through.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn adapts an ExecQuerier to dialect.ExecQuerier, applying any session
// variables attached to the context before each statement.
type Conn struct {
	ExecQuerier
	dialect string
}

// Exec runs a statement that returns no rows. v must be nil or a
// *sql.Result to capture the outcome.
func (c Conn) Exec(ctx context.Context, query string, args, v any) (rerr error) {
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: unexpected args type %T, want []any", args)
	}
	ex, release, err := c.sessionExec(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: session vars: %w", err)
	}
	if release != nil {
		defer func() { rerr = errors.Join(rerr, release()) }()
	}
	switch v := v.(type) {
	case nil:
		if _, err := ex.ExecContext(ctx, query, argv...); err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
	case *sql.Result:
		res, err := ex.ExecContext(ctx, query, argv...)
		if err != nil {
			return fmt.Errorf("dialect/sql: exec: %w", err)
		}
		*v = res
	default:
		return fmt.Errorf("dialect/sql: unexpected value type %T, want *sql.Result", v)
	}
	return nil
}

// Query runs a statement that returns rows into v, which must be a *Rows.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: unexpected value type %T, want *Rows", v)
	}
	argv, ok := args.([]any)
	if !ok {
		return fmt.Errorf("dialect/sql: unexpected args type %T, want []any", args)
	}
	ex, release, err := c.sessionExec(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: session vars: %w", err)
	}
	rows, err := ex.QueryContext(ctx, query, argv...)
	if err != nil {
		if release != nil {
			err = errors.Join(err, release())
		}
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	if release != nil {
		// The session lives until the caller closes the rows.
		vr.ColumnScanner = closingRows{rows, release}
	}
	return nil
}

// varsKey attaches session variables to a context.
type varsKey struct{}

type sessionVar struct {
	name, value string
}

// WithVar returns a context carrying a session variable to set before
// every statement run with it. The repositories use it to hand the acting
// principal to row-level audit triggers:
//
//	ctx = sql.WithVar(ctx, "folio.principal", "user:42")
//
// The variable slice is copied, so contexts derived from the same parent
// stay independent.
func WithVar(ctx context.Context, name, value string) context.Context {
	vars, _ := ctx.Value(varsKey{}).([]sessionVar)
	next := make([]sessionVar, len(vars), len(vars)+1)
	copy(next, vars)
	next = append(next, sessionVar{name: name, value: value})
	return context.WithValue(ctx, varsKey{}, next)
}

// WithIntVar is WithVar for integer values.
func WithIntVar(ctx context.Context, name string, value int) context.Context {
	return WithVar(ctx, name, strconv.Itoa(value))
}

// VarFromContext returns the value of a session variable attached to ctx.
// When a name was attached more than once the most recent value wins,
// matching what the database session ends up with.
func VarFromContext(ctx context.Context, name string) (string, bool) {
	vars, _ := ctx.Value(varsKey{}).([]sessionVar)
	for i := len(vars) - 1; i >= 0; i-- {
		if vars[i].name == name {
			return vars[i].value, true
		}
	}
	return "", false
}

// sessionExec returns the ExecQuerier to run the next statement on, with
// the context's session variables applied. Inside a transaction the
// variables are set on the transaction's connection and die with it. On a
// pool, a dedicated connection is checked out; the returned release func
// resets the variables and returns it, and must be called exactly once.
func (c Conn) sessionExec(ctx context.Context) (ExecQuerier, func() error, error) {
	vars, _ := ctx.Value(varsKey{}).([]sessionVar)
	if len(vars) == 0 {
		return c, nil, nil
	}
	var (
		ex      ExecQuerier
		release func() error
	)
	switch q := c.ExecQuerier.(type) {
	case *sql.Tx:
		ex = q
	case *sql.DB:
		conn, err := q.Conn(ctx)
		if err != nil {
			return nil, nil, err
		}
		ex, release = conn, conn.Close
	default:
		return nil, nil, fmt.Errorf("cannot set session variables on %T", c.ExecQuerier)
	}
	reset, err := c.setVars(ctx, ex, vars)
	if err != nil {
		if release != nil {
			err = errors.Join(err, release())
		}
		return nil, nil, err
	}
	if release != nil && len(reset) > 0 {
		put := release
		release = func() error {
			// The statement's context may be done by the time the rows
			// are closed; reset on a fresh one.
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for _, q := range reset {
				if _, err := ex.ExecContext(rctx, q); err != nil {
					return errors.Join(err, put())
				}
			}
			return put()
		}
	}
	return ex, release, nil
}

// setVars runs a SET per variable on ex and returns the statements that
// undo them. Names are validated and values quoted; both come from code,
// never from request input, but the variable value may carry user text
// such as a principal name.
func (c Conn) setVars(ctx context.Context, ex ExecQuerier, vars []sessionVar) ([]string, error) {
	var (
		reset []string
		seen  = make(map[string]struct{}, len(vars))
	)
	for _, sv := range vars {
		if !validVarName(sv.name) {
			return nil, fmt.Errorf("invalid session variable name: %q", sv.name)
		}
		if _, ok := seen[sv.name]; !ok {
			seen[sv.name] = struct{}{}
			switch c.dialect {
			case dialect.Postgres:
				reset = append(reset, "RESET "+sv.name)
			case dialect.MySQL:
				reset = append(reset, "SET "+sv.name+" = NULL")
			}
		}
		if _, err := ex.ExecContext(ctx, fmt.Sprintf("SET %s = '%s'", sv.name, escapeVarValue(sv.value))); err != nil {
			return nil, err
		}
	}
	return reset, nil
}

// varNameRe admits identifiers with an optional schema prefix, the shape
// custom variables take on postgres ("folio.principal").
var varNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func validVarName(s string) bool {
	return s != "" && len(s) <= 128 && varNameRe.MatchString(s)
}

// escapeVarValue quotes a value for inlining in a SET statement. Single
// quotes are doubled and backslashes doubled for mysql.
func escapeVarValue(s string) string {
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", "''")
}

type (
	// Rows wraps sql.Rows so scanning code never copies row locks.
	Rows struct{ ColumnScanner }
	// Result is an alias to sql.Result.
	Result = sql.Result
	// NullInt64 is an alias to sql.NullInt64.
	NullInt64 = sql.NullInt64
	// NullTime is an alias to sql.NullTime.
	NullTime = sql.NullTime
)

// ColumnScanner is the subset of sql.Rows used for scanning result sets.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	NextResultSet() bool
	Scan(dest ...any) error
}

// closingRows runs a release hook after the rows are closed. It returns
// the dedicated session connection to the pool.
type closingRows struct {
	ColumnScanner
	release func() error
}

func (r closingRows) Close() error {
	err := r.ColumnScanner.Close()
	return errors.Join(err, r.release())
}

var _ dialect.Driver = (*Driver)(nil)
