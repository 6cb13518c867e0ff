// Package sql provides SQL query building primitives and driver plumbing
// for the dialects folio runs on (PostgreSQL, MySQL, SQLite).
//
// # Builders
//
// Each statement shape has its own builder:
//
//   - Builder: low-level statement writer that quotes identifiers per dialect
//   - Selector: SELECT with joins, predicates, ordering and pagination
//   - InsertBuilder: INSERT, with RETURNING where the dialect supports it
//   - UpdateBuilder: UPDATE with SET clauses and WHERE predicates
//   - DeleteBuilder: DELETE guarded by WHERE predicates
//
// # Dialects
//
// SQL generation adapts to the configured dialect:
//
//	import "github.com/australsoft/folio/dialect"
//
//	// PostgreSQL ($n placeholders, double-quoted identifiers)
//	pg := sql.Dialect(dialect.Postgres)
//	pg.Select("id", "name").From(sql.Table("companies")).Where(sql.EQ("is_active", true))
//
//	// MySQL (? placeholders, backtick identifiers)
//	my := sql.Dialect(dialect.MySQL)
//
// # Predicates
//
// Predicate helpers compose with And, Or and Not:
//
//	sql.EQ("order_type", "SALES")        // order_type = ?
//	sql.GT("total", 0)                   // total > ?
//	sql.Contains("name", "acme")         // name LIKE '%acme%'
//	sql.IsNull("completed_date")         // completed_date IS NULL
//	sql.In("status", "DRAFT", "SENT")    // status IN (?, ?)
//
// Field* variants return funcs applied to a Selector, so callers can pass
// filter options around:
//
//	s.Where(...) via sql.FieldEQ("company_id", 7)
//
// # Joins
//
//	sql.Select("i.id", "i.invoice_number", "c.name").
//	    From(sql.Table("sii_invoices").As("i")).
//	    Join(sql.Table("companies").As("c")).On("i.company_id", "c.id").
//	    Where(sql.EQ("i.payment_status", "PENDING"))
//
// # Locking
//
// Pessimistic locking for allocation-style transactions:
//
//	sql.Select("last_value").From(sql.Table("sequences")).
//	    Where(sql.And(sql.EQ("name", "INVOICE"), sql.EQ("year", 2025))).
//	    ForUpdate() // renders SELECT ... FOR UPDATE
//
//	// Non-blocking variants:
//	s.ForUpdate(sql.WithLockAction(sql.NoWait))
//	s.ForUpdate(sql.WithLockAction(sql.SkipLocked))
//
// SQLite has no FOR UPDATE clause; the lock suffix is omitted there because a
// write transaction already serializes access.
package sql
