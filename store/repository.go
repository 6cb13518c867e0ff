package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/dialect"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/domain"
)

// Audit columns shared by every table.
const (
	colID        = "id"
	colCreatedAt = "created_at"
	colUpdatedAt = "updated_at"
	colCreatedBy = "created_by"
	colUpdatedBy = "updated_by"
	colIsDeleted = "is_deleted"
)

// Predicate narrows a selector. The typed field handles in predicates.go
// produce them; free-form ones can be written inline.
type Predicate = func(*sql.Selector)

// Query is the filter Find and Count accept. Zero value means everything,
// ordered by id ascending. Soft-deleted rows stay hidden unless
// IncludeDeleted is set.
type Query struct {
	Predicates     []Predicate
	OrderBy        string // column; empty orders by id
	Descending     bool
	Offset         int
	Limit          int // 0 means no limit
	IncludeDeleted bool
}

// meta describes one table: the error label, the table name, the columns
// in declaration order (id excluded) and the row mapping in both
// directions. values(e) must parallel columns; scan reads id first, then
// the columns.
type meta[T domain.Entity] struct {
	label      string
	table      string
	columns    []string
	softDelete bool
	scan       func(*sql.Rows) (T, error)
	values     func(T) []any
}

// Repository implements the CRUD surface every aggregate shares. The
// specialized repos in this package embed it and add their finders.
type Repository[T domain.Entity] struct {
	s    *Session
	meta meta[T]
}

func newRepository[T domain.Entity](s *Session, m meta[T]) *Repository[T] {
	return &Repository[T]{s: s, meta: m}
}

// Table returns the repository's table name.
func (r *Repository[T]) Table() string { return r.meta.table }

func (r *Repository[T]) selector(q Query) *sql.Selector {
	s := sql.Dialect(r.s.Dialect()).
		Select(append([]string{colID}, r.meta.columns...)...).
		From(sql.Table(r.meta.table))
	if r.meta.softDelete && !q.IncludeDeleted {
		s.Where(sql.EQ(colIsDeleted, false))
	}
	for _, p := range q.Predicates {
		p(s)
	}
	switch {
	case q.OrderBy != "" && q.Descending:
		s.OrderBy(sql.Desc(q.OrderBy))
	case q.OrderBy != "":
		s.OrderBy(sql.Asc(q.OrderBy))
	default:
		s.OrderBy(sql.Asc(colID))
	}
	if q.Limit > 0 {
		s.Limit(q.Limit)
	}
	if q.Offset > 0 {
		s.Offset(q.Offset)
	}
	return s
}

func (r *Repository[T]) query(ctx context.Context, s *sql.Selector) ([]T, error) {
	query, args := s.Query()
	var rows sql.Rows
	if err := r.s.tx.Query(r.s.prepare(ctx), query, args, &rows); err != nil {
		return nil, mapError(r.meta.label, err)
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		e, err := r.meta.scan(&rows)
		if err != nil {
			return nil, folio.NewInternalError(fmt.Errorf("scan %s: %w", r.meta.label, err))
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(r.meta.label, err)
	}
	return out, nil
}

// Find returns the rows matching q.
func (r *Repository[T]) Find(ctx context.Context, q Query) ([]T, error) {
	return r.query(ctx, r.selector(q))
}

// Get returns the row by id, NotFound when absent or soft-deleted.
func (r *Repository[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	rows, err := r.Find(ctx, Query{Predicates: []Predicate{ByID(id)}, Limit: 1})
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, folio.NewNotFoundErrorWithID(r.meta.label, id)
	}
	return rows[0], nil
}

// GetMany returns the rows for ids in the order the ids were given. Every
// absent id contributes a NotFound to the returned error; found rows are
// still returned.
func (r *Repository[T]) GetMany(ctx context.Context, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.Find(ctx, Query{Predicates: []Predicate{ByIDs(ids...)}})
	if err != nil {
		return nil, err
	}
	ordered, missing := OrderByKeys(ids, rows, func(e T) int64 { return e.GetID() })
	if len(missing) == 0 {
		return ordered, nil
	}
	errs := make([]error, len(missing))
	for i, pos := range missing {
		errs[i] = folio.NewNotFoundErrorWithID(r.meta.label, ids[pos])
	}
	return ordered, folio.NewAggregateError(errs...)
}

// Count returns the number of rows matching q.
func (r *Repository[T]) Count(ctx context.Context, q Query) (int, error) {
	s := sql.Dialect(r.s.Dialect()).
		Select(sql.Count("*")).
		From(sql.Table(r.meta.table))
	if r.meta.softDelete && !q.IncludeDeleted {
		s.Where(sql.EQ(colIsDeleted, false))
	}
	for _, p := range q.Predicates {
		p(s)
	}
	query, args := s.Query()
	var rows sql.Rows
	if err := r.s.tx.Query(r.s.prepare(ctx), query, args, &rows); err != nil {
		return 0, mapError(r.meta.label, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return 0, folio.NewInternalError(errors.New("count returned no rows"))
	}
	var n int
	if err := rows.Scan(&n); err != nil {
		return 0, folio.NewInternalError(err)
	}
	return n, mapError(r.meta.label, rows.Err())
}

// Exists reports whether a row with the id exists, soft-deleted included.
func (r *Repository[T]) Exists(ctx context.Context, id int64) (bool, error) {
	n, err := r.Count(ctx, Query{Predicates: []Predicate{ByID(id)}, IncludeDeleted: true})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Create normalizes and validates e, stamps the audit columns from the
// session and inserts it. The assigned id is written back into e.
func (r *Repository[T]) Create(ctx context.Context, e T) error {
	if err := normalize(e); err != nil {
		return err
	}
	e.StampCreate(r.s.actx.Now(), r.s.actx.PrincipalID())
	return r.insert(ctx, e)
}

// CreateMany creates the entities one by one inside the session
// transaction, stopping at the first failure.
func (r *Repository[T]) CreateMany(ctx context.Context, es []T) error {
	for _, e := range es {
		if err := r.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository[T]) insert(ctx context.Context, e T) error {
	ib := sql.Dialect(r.s.Dialect()).
		Insert(r.meta.table).
		Columns(r.meta.columns...).
		Values(r.meta.values(e)...)
	if r.s.Dialect() == dialect.MySQL {
		var res sql.Result
		query, args := ib.Query()
		if err := r.s.tx.Exec(r.s.prepare(ctx), query, args, &res); err != nil {
			return mapError(r.meta.label, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return folio.NewInternalError(err)
		}
		e.SetID(id)
		return nil
	}
	query, args := ib.Returning(colID).Query()
	var rows sql.Rows
	if err := r.s.tx.Query(r.s.prepare(ctx), query, args, &rows); err != nil {
		return mapError(r.meta.label, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return folio.NewInternalError(fmt.Errorf("insert %s: no id returned", r.meta.label))
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return folio.NewInternalError(err)
	}
	e.SetID(id)
	return mapError(r.meta.label, rows.Err())
}

// Update normalizes and validates e, refreshes the update stamps and
// writes every column back. NotFound when no row carries e's id. The
// created_at and created_by columns are never touched.
func (r *Repository[T]) Update(ctx context.Context, e T) error {
	if e.GetID() == 0 {
		return folio.NewNotFoundError(r.meta.label)
	}
	if err := normalize(e); err != nil {
		return err
	}
	e.StampUpdate(r.s.actx.Now(), r.s.actx.PrincipalID())
	ub := sql.Dialect(r.s.Dialect()).Update(r.meta.table)
	vals := r.meta.values(e)
	for i, c := range r.meta.columns {
		if c == colCreatedAt || c == colCreatedBy {
			continue
		}
		ub.Set(c, vals[i])
	}
	ub.Where(sql.EQ(colID, e.GetID()))
	query, args := ub.Query()
	affected, err := r.exec(ctx, query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		// MySQL reports zero affected rows for identical values, so
		// distinguish a no-op write from a missing row.
		ok, eerr := r.Exists(ctx, e.GetID())
		if eerr != nil {
			return eerr
		}
		if !ok {
			return folio.NewNotFoundErrorWithID(r.meta.label, e.GetID())
		}
	}
	return nil
}

// UpdateMany applies the column patch to every row matching q and returns
// the number of rows written. The update stamps ride along; Normalize and
// Validate do not run, so patches are for service-internal fixups only.
func (r *Repository[T]) UpdateMany(ctx context.Context, q Query, patch map[string]any) (int, error) {
	if len(patch) == 0 {
		return 0, nil
	}
	ub := sql.Dialect(r.s.Dialect()).Update(r.meta.table)
	cols := make([]string, 0, len(patch))
	for c := range patch {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	for _, c := range cols {
		ub.Set(c, patch[c])
	}
	ub.Set(colUpdatedAt, r.s.actx.Now())
	ub.Set(colUpdatedBy, r.s.actx.PrincipalID())
	if p := r.wherePred(q); p != nil {
		ub.Where(p)
	}
	query, args := ub.Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Delete removes the row by id, NotFound when absent. Rows still
// referenced elsewhere surface a Conflict from the foreign key.
func (r *Repository[T]) Delete(ctx context.Context, id int64) error {
	db := sql.Dialect(r.s.Dialect()).
		Delete(r.meta.table).
		Where(sql.EQ(colID, id))
	query, args := db.Query()
	affected, err := r.exec(ctx, query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		return folio.NewNotFoundErrorWithID(r.meta.label, id)
	}
	return nil
}

// DeleteMany removes every row matching q and returns the count. Unlike
// Delete, zero matches is not an error.
func (r *Repository[T]) DeleteMany(ctx context.Context, q Query) (int, error) {
	db := sql.Dialect(r.s.Dialect()).Delete(r.meta.table)
	if p := r.wherePred(q); p != nil {
		db.Where(p)
	}
	query, args := db.Query()
	n, err := r.exec(ctx, query, args)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// SoftDelete flags the row deleted instead of removing it, hiding it from
// reads. Unsupported for aggregates without the flag; NotFound when the
// row is absent or already flagged.
func (r *Repository[T]) SoftDelete(ctx context.Context, id int64) error {
	if !r.meta.softDelete {
		return folio.NewUnsupportedError("SoftDelete", r.meta.label+" does not support soft deletion")
	}
	ub := sql.Dialect(r.s.Dialect()).
		Update(r.meta.table).
		Set(colIsDeleted, true).
		Set(colUpdatedAt, r.s.actx.Now()).
		Set(colUpdatedBy, r.s.actx.PrincipalID()).
		Where(sql.And(sql.EQ(colID, id), sql.EQ(colIsDeleted, false)))
	query, args := ub.Query()
	affected, err := r.exec(ctx, query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		return folio.NewNotFoundErrorWithID(r.meta.label, id)
	}
	return nil
}

// Restore clears the soft-delete flag, making the row visible again.
func (r *Repository[T]) Restore(ctx context.Context, id int64) error {
	if !r.meta.softDelete {
		return folio.NewUnsupportedError("Restore", r.meta.label+" does not support soft deletion")
	}
	ub := sql.Dialect(r.s.Dialect()).
		Update(r.meta.table).
		Set(colIsDeleted, false).
		Set(colUpdatedAt, r.s.actx.Now()).
		Set(colUpdatedBy, r.s.actx.PrincipalID()).
		Where(sql.And(sql.EQ(colID, id), sql.EQ(colIsDeleted, true)))
	query, args := ub.Query()
	affected, err := r.exec(ctx, query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		return folio.NewNotFoundErrorWithID(r.meta.label, id)
	}
	return nil
}

// exec runs a write statement and returns the affected row count.
func (r *Repository[T]) exec(ctx context.Context, query string, args []any) (int64, error) {
	var res sql.Result
	if err := r.s.tx.Exec(r.s.prepare(ctx), query, args, &res); err != nil {
		return 0, mapError(r.meta.label, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, folio.NewInternalError(err)
	}
	return n, nil
}

// wherePred applies q's predicates to a throwaway selector over the table
// and returns the joined result for UPDATE and DELETE statements.
func (r *Repository[T]) wherePred(q Query) *sql.Predicate {
	s := sql.Dialect(r.s.Dialect()).Select().From(sql.Table(r.meta.table))
	if r.meta.softDelete && !q.IncludeDeleted {
		s.Where(sql.EQ(colIsDeleted, false))
	}
	for _, p := range q.Predicates {
		p(s)
	}
	return s.P()
}

// normalize runs the entity's Normalize and Validate hooks when present.
func normalize(e any) error {
	if n, ok := e.(domain.Normalizer); ok {
		if err := n.Normalize(); err != nil {
			return err
		}
	}
	if v, ok := e.(domain.Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
