package sql

import (
	"strconv"
	"strings"

	"github.com/australsoft/folio/dialect"
)

// Builder is the base SQL builder shared by all statement builders. It
// accumulates the statement text and the bound arguments, and applies the
// dialect rules for identifier quoting and placeholders.
type Builder struct {
	sb      strings.Builder
	dialect string
	args    []any
}

// SetDialect sets the builder dialect. It's used for garnering dialect
// specific output, like quoting and placeholder format.
func (b *Builder) SetDialect(dialect string) *Builder {
	b.dialect = dialect
	return b
}

// Dialect returns the dialect of the builder.
func (b *Builder) Dialect() string {
	return b.dialect
}

func (b *Builder) postgres() bool {
	return b.dialect == dialect.Postgres
}

// WriteString appends s to the statement.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// WriteByte appends c to the statement.
func (b *Builder) WriteByte(c byte) *Builder {
	b.sb.WriteByte(c)
	return b
}

// Quote quotes the given identifier with the dialect quote character:
// double quotes for postgres, backticks otherwise.
func (b *Builder) Quote(ident string) string {
	quote := "`"
	if b.postgres() {
		quote = `"`
	}
	return quote + ident + quote
}

// Ident appends the given string as an identifier. Strings that are already
// quoted, or that carry SQL of their own (functions, aliases, ordering
// suffixes, "*"), are written as-is. Qualified names quote each part.
func (b *Builder) Ident(s string) *Builder {
	switch {
	case s == "":
	case s == "*" || isQuoted(s) || isFunc(s) || isModifier(s) || isAliased(s):
		b.WriteString(s)
	default:
		if i := strings.IndexByte(s, '.'); i > 0 {
			b.WriteString(b.Quote(s[:i]))
			b.WriteByte('.')
			b.WriteString(b.Quote(s[i+1:]))
		} else {
			b.WriteString(b.Quote(s))
		}
	}
	return b
}

// IdentComma writes the given identifiers separated by commas.
func (b *Builder) IdentComma(idents ...string) *Builder {
	for i, s := range idents {
		if i > 0 {
			b.Comma()
		}
		b.Ident(s)
	}
	return b
}

// Arg appends the placeholder for v and binds it.
func (b *Builder) Arg(v any) *Builder {
	b.args = append(b.args, v)
	if b.postgres() {
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(len(b.args)))
	} else {
		b.WriteByte('?')
	}
	return b
}

// Args appends placeholders for each of vs, comma separated.
func (b *Builder) Args(vs ...any) *Builder {
	for i, v := range vs {
		if i > 0 {
			b.Comma()
		}
		b.Arg(v)
	}
	return b
}

// Comma appends ", " to the statement.
func (b *Builder) Comma() *Builder {
	return b.WriteString(", ")
}

// Pad appends a single space.
func (b *Builder) Pad() *Builder {
	return b.WriteByte(' ')
}

// Nested runs f between parentheses.
func (b *Builder) Nested(f func(*Builder)) *Builder {
	b.WriteByte('(')
	f(b)
	b.WriteByte(')')
	return b
}

// String returns the accumulated statement.
func (b *Builder) String() string {
	return b.sb.String()
}

// Query returns the statement and its bound arguments.
func (b *Builder) Query() (string, []any) {
	return b.sb.String(), b.args
}

func isQuoted(s string) bool   { return strings.ContainsAny(s, "`\"") }
func isFunc(s string) bool     { return strings.ContainsRune(s, '(') && strings.ContainsRune(s, ')') }
func isModifier(s string) bool { return strings.HasSuffix(s, " ASC") || strings.HasSuffix(s, " DESC") }
func isAliased(s string) bool  { return strings.Contains(s, " AS ") }

// DialectBuilder prefixes all root builders with the given dialect.
type DialectBuilder struct {
	dialect string
}

// Dialect creates a new DialectBuilder for the given dialect.
//
//	sql.Dialect(dialect.Postgres).
//		Select("id", "trigram").
//		From(sql.Table("companies"))
func Dialect(name string) *DialectBuilder {
	return &DialectBuilder{dialect: name}
}

// Select creates a Selector for the configured dialect.
func (d *DialectBuilder) Select(columns ...string) *Selector {
	return Select(columns...).SetDialect(d.dialect)
}

// Table creates a SelectTable for the configured dialect.
func (d *DialectBuilder) Table(name string) *SelectTable {
	t := Table(name)
	t.dialect = d.dialect
	return t
}

// Insert creates an InsertBuilder for the configured dialect.
func (d *DialectBuilder) Insert(table string) *InsertBuilder {
	i := Insert(table)
	i.dialect = d.dialect
	return i
}

// Update creates an UpdateBuilder for the configured dialect.
func (d *DialectBuilder) Update(table string) *UpdateBuilder {
	u := Update(table)
	u.dialect = d.dialect
	return u
}

// Delete creates a DeleteBuilder for the configured dialect.
func (d *DialectBuilder) Delete(table string) *DeleteBuilder {
	dl := Delete(table)
	dl.dialect = d.dialect
	return dl
}

// SelectTable is a table reference in a SELECT statement, optionally
// aliased.
type SelectTable struct {
	name    string
	alias   string
	dialect string
}

// Table returns a new table reference.
func Table(name string) *SelectTable {
	return &SelectTable{name: name}
}

// As sets the table alias.
func (t *SelectTable) As(alias string) *SelectTable {
	t.alias = alias
	return t
}

// Name returns the table name.
func (t *SelectTable) Name() string {
	return t.name
}

// C returns the column qualified and quoted with the table alias (or name).
func (t *SelectTable) C(column string) string {
	qualifier := t.name
	if t.alias != "" {
		qualifier = t.alias
	}
	b := &Builder{dialect: t.dialect}
	b.Ident(qualifier + "." + column)
	return b.String()
}

// ref writes the table reference including its alias.
func (t *SelectTable) ref(b *Builder) {
	b.Ident(t.name)
	if t.alias != "" {
		b.WriteString(" AS ")
		b.WriteString(b.Quote(t.alias))
	}
}

// Predicate is a where predicate. Its functions write themselves into the
// statement builder when the query is rendered.
type Predicate struct {
	fns []func(*Builder)
	// composite marks predicates joining several parts; they are
	// parenthesized when nested under another boolean operator.
	composite bool
}

// P creates a new predicate from the given builder functions.
func P(fns ...func(*Builder)) *Predicate {
	return &Predicate{fns: fns}
}

// Append adds f to the predicate.
func (p *Predicate) Append(f func(*Builder)) *Predicate {
	p.fns = append(p.fns, f)
	return p
}

func (p *Predicate) query(b *Builder) {
	for _, f := range p.fns {
		f(b)
	}
}

func mayWrap(b *Builder, p *Predicate) {
	if p.composite {
		b.Nested(p.query)
		return
	}
	p.query(b)
}

func joinPreds(op string, preds []*Predicate) *Predicate {
	switch len(preds) {
	case 0:
		return P()
	case 1:
		return preds[0]
	}
	p := P(func(b *Builder) {
		for i, pred := range preds {
			if i > 0 {
				b.Pad().WriteString(op).Pad()
			}
			mayWrap(b, pred)
		}
	})
	p.composite = true
	return p
}

// And combines the given predicates with AND.
func And(preds ...*Predicate) *Predicate {
	return joinPreds("AND", preds)
}

// Or combines the given predicates with OR.
func Or(preds ...*Predicate) *Predicate {
	return joinPreds("OR", preds)
}

// Not negates the given predicate.
func Not(pred *Predicate) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("NOT ")
		b.Nested(pred.query)
	})
}

func binary(col, op string, v any) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).Pad().WriteString(op).Pad().Arg(v)
	})
}

// EQ returns a column = value predicate.
func EQ(col string, value any) *Predicate { return binary(col, "=", value) }

// NEQ returns a column <> value predicate.
func NEQ(col string, value any) *Predicate { return binary(col, "<>", value) }

// GT returns a column > value predicate.
func GT(col string, value any) *Predicate { return binary(col, ">", value) }

// GTE returns a column >= value predicate.
func GTE(col string, value any) *Predicate { return binary(col, ">=", value) }

// LT returns a column < value predicate.
func LT(col string, value any) *Predicate { return binary(col, "<", value) }

// LTE returns a column <= value predicate.
func LTE(col string, value any) *Predicate { return binary(col, "<=", value) }

// In returns a column IN (values...) predicate. With no values it renders
// the always-false FALSE, keeping the statement valid.
func In(col string, values ...any) *Predicate {
	return P(func(b *Builder) {
		if len(values) == 0 {
			b.WriteString("FALSE")
			return
		}
		b.Ident(col).WriteString(" IN ")
		b.Nested(func(b *Builder) {
			b.Args(values...)
		})
	})
}

// NotIn returns a column NOT IN (values...) predicate.
func NotIn(col string, values ...any) *Predicate {
	return P(func(b *Builder) {
		if len(values) == 0 {
			b.WriteString("TRUE")
			return
		}
		b.Ident(col).WriteString(" NOT IN ")
		b.Nested(func(b *Builder) {
			b.Args(values...)
		})
	})
}

// Like returns a column LIKE pattern predicate.
func Like(col, pattern string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" LIKE ").Arg(pattern)
	})
}

// Contains returns a substring-match predicate.
func Contains(col, sub string) *Predicate {
	return Like(col, "%"+sub+"%")
}

// ContainsFold returns a case-insensitive substring-match predicate.
func ContainsFold(col, sub string) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("LOWER(").Ident(col).WriteString(") LIKE ").Arg("%" + strings.ToLower(sub) + "%")
	})
}

// HasPrefix returns a prefix-match predicate.
func HasPrefix(col, prefix string) *Predicate {
	return Like(col, prefix+"%")
}

// HasSuffix returns a suffix-match predicate.
func HasSuffix(col, suffix string) *Predicate {
	return Like(col, "%"+suffix)
}

// EqualFold returns a case-insensitive equality predicate.
func EqualFold(col, v string) *Predicate {
	return P(func(b *Builder) {
		b.WriteString("LOWER(").Ident(col).WriteString(") = ").Arg(strings.ToLower(v))
	})
}

// IsNull returns a column IS NULL predicate.
func IsNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NULL")
	})
}

// NotNull returns a column IS NOT NULL predicate.
func NotNull(col string) *Predicate {
	return P(func(b *Builder) {
		b.Ident(col).WriteString(" IS NOT NULL")
	})
}

// Field predicates qualify the column with the selector's table. They back
// the typed fields in predicate.go.

// FieldEQ returns a field = value selector predicate.
func FieldEQ(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(EQ(s.C(name), v)) }
}

// FieldNEQ returns a field <> value selector predicate.
func FieldNEQ(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(NEQ(s.C(name), v)) }
}

// FieldGT returns a field > value selector predicate.
func FieldGT(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(GT(s.C(name), v)) }
}

// FieldGTE returns a field >= value selector predicate.
func FieldGTE(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(GTE(s.C(name), v)) }
}

// FieldLT returns a field < value selector predicate.
func FieldLT(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(LT(s.C(name), v)) }
}

// FieldLTE returns a field <= value selector predicate.
func FieldLTE(name string, v any) func(*Selector) {
	return func(s *Selector) { s.Where(LTE(s.C(name), v)) }
}

// FieldIn returns a field IN (values...) selector predicate.
func FieldIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) {
		v := make([]any, len(vs))
		for i := range vs {
			v[i] = vs[i]
		}
		s.Where(In(s.C(name), v...))
	}
}

// FieldNotIn returns a field NOT IN (values...) selector predicate.
func FieldNotIn[T any](name string, vs ...T) func(*Selector) {
	return func(s *Selector) {
		v := make([]any, len(vs))
		for i := range vs {
			v[i] = vs[i]
		}
		s.Where(NotIn(s.C(name), v...))
	}
}

// FieldContains returns a field substring-match selector predicate.
func FieldContains(name, sub string) func(*Selector) {
	return func(s *Selector) { s.Where(Contains(s.C(name), sub)) }
}

// FieldContainsFold returns a case-insensitive field substring-match
// selector predicate.
func FieldContainsFold(name, sub string) func(*Selector) {
	return func(s *Selector) { s.Where(ContainsFold(s.C(name), sub)) }
}

// FieldHasPrefix returns a field prefix-match selector predicate.
func FieldHasPrefix(name, prefix string) func(*Selector) {
	return func(s *Selector) { s.Where(HasPrefix(s.C(name), prefix)) }
}

// FieldHasSuffix returns a field suffix-match selector predicate.
func FieldHasSuffix(name, suffix string) func(*Selector) {
	return func(s *Selector) { s.Where(HasSuffix(s.C(name), suffix)) }
}

// FieldEqualFold returns a case-insensitive field equality selector
// predicate.
func FieldEqualFold(name, v string) func(*Selector) {
	return func(s *Selector) { s.Where(EqualFold(s.C(name), v)) }
}

// FieldIsNull returns a field IS NULL selector predicate.
func FieldIsNull(name string) func(*Selector) {
	return func(s *Selector) { s.Where(IsNull(s.C(name))) }
}

// FieldNotNull returns a field IS NOT NULL selector predicate.
func FieldNotNull(name string) func(*Selector) {
	return func(s *Selector) { s.Where(NotNull(s.C(name))) }
}

// Asc returns a column ASC ordering term.
func Asc(column string) string {
	return column + " ASC"
}

// Desc returns a column DESC ordering term.
func Desc(column string) string {
	return column + " DESC"
}

// Count returns a COUNT aggregation term for the given column.
func Count(column string) string {
	return "COUNT(" + column + ")"
}

// LockAction tells the database how to treat rows already locked by
// another transaction.
type LockAction string

const (
	// NoWait means fail immediately instead of waiting for the lock.
	NoWait LockAction = "NOWAIT"
	// SkipLocked means silently skip rows locked by other transactions.
	SkipLocked LockAction = "SKIP LOCKED"
)

// LockOptions configures row-level locking.
type LockOptions struct {
	Action LockAction
}

// LockOption is a functional option for row-level locking.
type LockOption func(*LockOptions)

// WithLockAction sets the action of the lock (NOWAIT, SKIP LOCKED).
func WithLockAction(action LockAction) LockOption {
	return func(o *LockOptions) {
		o.Action = action
	}
}

type join struct {
	kind  string // JOIN, LEFT JOIN
	table *SelectTable
	left  string
	right string
}

// Selector builds a SELECT statement.
type Selector struct {
	dialect  string
	columns  []string
	from     *SelectTable
	joins    []join
	wheres   []*Predicate
	orderBy  []string
	groupBy  []string
	having   *Predicate
	limit    *int
	offset   *int
	distinct bool
	lock     *LockOptions
}

// Select returns a new Selector for the given columns. No columns means
// SELECT *.
func Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// SetDialect sets the dialect of the selector.
func (s *Selector) SetDialect(dialect string) *Selector {
	s.dialect = dialect
	return s
}

// Dialect returns the dialect of the selector.
func (s *Selector) Dialect() string {
	return s.dialect
}

// Select replaces the selected columns.
func (s *Selector) Select(columns ...string) *Selector {
	s.columns = columns
	return s
}

// From sets the table of the selector.
func (s *Selector) From(t *SelectTable) *Selector {
	t.dialect = s.dialect
	s.from = t
	return s
}

// Distinct marks the selection as DISTINCT.
func (s *Selector) Distinct() *Selector {
	s.distinct = true
	return s
}

// C returns the column qualified with the selector's table and quoted for
// its dialect.
func (s *Selector) C(column string) string {
	if s.from != nil {
		return s.from.C(column)
	}
	b := &Builder{dialect: s.dialect}
	b.Ident(column)
	return b.String()
}

// Where appends the given predicate. Successive calls are combined with
// AND.
func (s *Selector) Where(p *Predicate) *Selector {
	if p != nil {
		s.wheres = append(s.wheres, p)
	}
	return s
}

// P returns the accumulated predicates joined with AND, or nil when the
// selector has none. Update and delete builders reuse selector-built
// predicates through it.
func (s *Selector) P() *Predicate {
	switch len(s.wheres) {
	case 0:
		return nil
	case 1:
		return s.wheres[0]
	default:
		return And(s.wheres...)
	}
}

// Join appends an INNER JOIN on the given table. Complete it with On.
func (s *Selector) Join(t *SelectTable) *Selector {
	return s.join("JOIN", t)
}

// LeftJoin appends a LEFT JOIN on the given table. Complete it with On.
func (s *Selector) LeftJoin(t *SelectTable) *Selector {
	return s.join("LEFT JOIN", t)
}

func (s *Selector) join(kind string, t *SelectTable) *Selector {
	t.dialect = s.dialect
	s.joins = append(s.joins, join{kind: kind, table: t})
	return s
}

// On sets the join condition of the last joined table. The columns are
// expected to be qualified, usually via SelectTable.C.
func (s *Selector) On(left, right string) *Selector {
	if len(s.joins) > 0 {
		s.joins[len(s.joins)-1].left = left
		s.joins[len(s.joins)-1].right = right
	}
	return s
}

// OrderBy appends ordering terms. Use Asc and Desc for explicit direction.
func (s *Selector) OrderBy(columns ...string) *Selector {
	s.orderBy = append(s.orderBy, columns...)
	return s
}

// GroupBy appends grouping terms.
func (s *Selector) GroupBy(columns ...string) *Selector {
	s.groupBy = append(s.groupBy, columns...)
	return s
}

// Having sets the HAVING predicate.
func (s *Selector) Having(p *Predicate) *Selector {
	s.having = p
	return s
}

// Limit sets the LIMIT clause.
func (s *Selector) Limit(n int) *Selector {
	s.limit = &n
	return s
}

// Offset sets the OFFSET clause.
func (s *Selector) Offset(n int) *Selector {
	s.offset = &n
	return s
}

// ForUpdate locks the selected rows with FOR UPDATE. SQLite has no
// row-level locks (its single writer already serializes updates), so the
// clause is omitted there.
func (s *Selector) ForUpdate(opts ...LockOption) *Selector {
	s.lock = &LockOptions{}
	for _, opt := range opts {
		opt(s.lock)
	}
	return s
}

// Query returns the SELECT statement and its bound arguments.
func (s *Selector) Query() (string, []any) {
	b := &Builder{dialect: s.dialect}
	b.WriteString("SELECT ")
	if s.distinct {
		b.WriteString("DISTINCT ")
	}
	if len(s.columns) > 0 {
		b.IdentComma(s.columns...)
	} else {
		b.WriteByte('*')
	}
	if s.from != nil {
		b.WriteString(" FROM ")
		s.from.ref(b)
	}
	for _, j := range s.joins {
		b.Pad().WriteString(j.kind).Pad()
		j.table.ref(b)
		b.WriteString(" ON ")
		b.WriteString(j.left)
		b.WriteString(" = ")
		b.WriteString(j.right)
	}
	if len(s.wheres) > 0 {
		b.WriteString(" WHERE ")
		And(s.wheres...).query(b)
	}
	if len(s.groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.IdentComma(s.groupBy...)
	}
	if s.having != nil {
		b.WriteString(" HAVING ")
		s.having.query(b)
	}
	if len(s.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.IdentComma(s.orderBy...)
	}
	if s.limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(*s.limit))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(*s.offset))
	}
	if s.lock != nil && s.dialect != dialect.SQLite {
		b.WriteString(" FOR UPDATE")
		if s.lock.Action != "" {
			b.Pad().WriteString(string(s.lock.Action))
		}
	}
	return b.Query()
}

// InsertBuilder builds an INSERT statement.
type InsertBuilder struct {
	dialect   string
	table     string
	columns   []string
	values    [][]any
	defaults  bool
	ignore    bool
	returning []string
}

// Insert returns a new InsertBuilder for the given table.
func Insert(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// SetDialect sets the dialect of the builder.
func (i *InsertBuilder) SetDialect(dialect string) *InsertBuilder {
	i.dialect = dialect
	return i
}

// Columns sets the columns of the insert.
func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = append(i.columns, columns...)
	return i
}

// Values appends one row of values. Call it repeatedly for a bulk insert.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.values = append(i.values, values)
	return i
}

// Default inserts a row with default values only.
func (i *InsertBuilder) Default() *InsertBuilder {
	i.defaults = true
	return i
}

// OnConflictDoNothing makes the insert a no-op when it would violate a
// unique constraint: ON CONFLICT DO NOTHING on postgres, INSERT IGNORE on
// mysql, INSERT OR IGNORE on sqlite.
func (i *InsertBuilder) OnConflictDoNothing() *InsertBuilder {
	i.ignore = true
	return i
}

// Returning adds a RETURNING clause on dialects that support it (postgres,
// sqlite). MySQL callers read LastInsertId from the exec result instead.
func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	i.returning = columns
	return i
}

// Query returns the INSERT statement and its bound arguments.
func (i *InsertBuilder) Query() (string, []any) {
	b := &Builder{dialect: i.dialect}
	b.WriteString("INSERT ")
	if i.ignore {
		switch i.dialect {
		case dialect.MySQL:
			b.WriteString("IGNORE ")
		case dialect.SQLite:
			b.WriteString("OR IGNORE ")
		}
	}
	b.WriteString("INTO ")
	b.Ident(i.table)
	switch {
	case i.defaults && i.dialect == dialect.MySQL:
		b.WriteString(" () VALUES ()")
	case i.defaults:
		b.WriteString(" DEFAULT VALUES")
	default:
		b.WriteString(" (")
		b.IdentComma(i.columns...)
		b.WriteString(") VALUES ")
		for j, row := range i.values {
			if j > 0 {
				b.Comma()
			}
			b.Nested(func(b *Builder) {
				b.Args(row...)
			})
		}
	}
	if i.ignore && i.dialect == dialect.Postgres {
		b.WriteString(" ON CONFLICT DO NOTHING")
	}
	if len(i.returning) > 0 && i.dialect != dialect.MySQL {
		b.WriteString(" RETURNING ")
		b.IdentComma(i.returning...)
	}
	return b.Query()
}

// UpdateBuilder builds an UPDATE statement.
type UpdateBuilder struct {
	dialect string
	table   string
	columns []string
	values  []any
	wheres  []*Predicate
}

// Update returns a new UpdateBuilder for the given table.
func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// SetDialect sets the dialect of the builder.
func (u *UpdateBuilder) SetDialect(dialect string) *UpdateBuilder {
	u.dialect = dialect
	return u
}

// Set assigns value to the given column.
func (u *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	u.columns = append(u.columns, column)
	u.values = append(u.values, value)
	return u
}

// Where appends the given predicate. Successive calls are combined with
// AND.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	if p != nil {
		u.wheres = append(u.wheres, p)
	}
	return u
}

// Empty reports whether the update has no assignments.
func (u *UpdateBuilder) Empty() bool {
	return len(u.columns) == 0
}

// Query returns the UPDATE statement and its bound arguments.
func (u *UpdateBuilder) Query() (string, []any) {
	b := &Builder{dialect: u.dialect}
	b.WriteString("UPDATE ")
	b.Ident(u.table)
	b.WriteString(" SET ")
	for j, col := range u.columns {
		if j > 0 {
			b.Comma()
		}
		b.Ident(col).WriteString(" = ").Arg(u.values[j])
	}
	if len(u.wheres) > 0 {
		b.WriteString(" WHERE ")
		And(u.wheres...).query(b)
	}
	return b.Query()
}

// DeleteBuilder builds a DELETE statement.
type DeleteBuilder struct {
	dialect string
	table   string
	wheres  []*Predicate
}

// Delete returns a new DeleteBuilder for the given table.
func Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

// SetDialect sets the dialect of the builder.
func (d *DeleteBuilder) SetDialect(dialect string) *DeleteBuilder {
	d.dialect = dialect
	return d
}

// Where appends the given predicate. Successive calls are combined with
// AND.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	if p != nil {
		d.wheres = append(d.wheres, p)
	}
	return d
}

// Query returns the DELETE statement and its bound arguments.
func (d *DeleteBuilder) Query() (string, []any) {
	b := &Builder{dialect: d.dialect}
	b.WriteString("DELETE FROM ")
	b.Ident(d.table)
	if len(d.wheres) > 0 {
		b.WriteString(" WHERE ")
		And(d.wheres...).query(b)
	}
	return b.Query()
}
