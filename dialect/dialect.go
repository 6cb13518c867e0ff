// Package dialect defines the storage abstraction the business core is
// written against: a Driver that executes statements and opens
// transactions, independent of the concrete engine.
//
// Three dialects are supported, identified by constant strings:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// The dialect/sql sub-package implements Driver on top of database/sql and
// carries the query builders, error classification and instrumentation.
package dialect

import "context"

// Supported dialects.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the two base operations against a database. Exec runs a
// statement that returns no rows; v is either nil or a *sql.Result. Query
// runs a statement that returns rows into v, a *sql.Rows.
type ExecQuerier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface the store operates against.
type Driver interface {
	ExecQuerier

	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)

	// Close closes the underlying connection.
	Close() error

	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps transaction operations. Statements executed through it run
// inside the transaction until Commit or Rollback.
type Tx interface {
	ExecQuerier
	Commit() error
	Rollback() error
}
