package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/australsoft/folio/dialect"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/schema/field"
)

// Expr is a raw default expression, e.g. Expr("CURRENT_TIMESTAMP").
// Plain string defaults are rendered as quoted literals.
type Expr string

// Migrate runs the schema bootstrap: it creates the tables that do not exist
// yet, with their indexes and foreign keys, and leaves existing tables
// untouched. Tables must be given in dependency order, referenced tables
// first.
type Migrate struct {
	drv     dialect.Driver
	dialect string
	fks     bool
}

// MigrateOption allows configuring the migration engine.
type MigrateOption func(*Migrate)

// WithForeignKeys controls whether foreign-key constraints are created.
// Defaults to true.
func WithForeignKeys(b bool) MigrateOption {
	return func(m *Migrate) {
		m.fks = b
	}
}

// NewMigrate returns a migration engine for the driver's dialect.
func NewMigrate(drv dialect.Driver, opts ...MigrateOption) (*Migrate, error) {
	m := &Migrate{drv: drv, dialect: drv.Dialect(), fks: true}
	for _, opt := range opts {
		opt(m)
	}
	switch m.dialect {
	case dialect.Postgres, dialect.MySQL, dialect.SQLite:
	default:
		return nil, fmt.Errorf("sql/schema: unsupported dialect %q", m.dialect)
	}
	return m, nil
}

// DDL renders the CREATE TABLE and CREATE INDEX statements Create would
// run against an empty database of the given dialect, without connecting
// to one. Statements come out in the order Create executes them.
func DDL(d string, tables ...*Table) ([]string, error) {
	switch d {
	case dialect.Postgres, dialect.MySQL, dialect.SQLite:
	default:
		return nil, fmt.Errorf("sql/schema: unsupported dialect %q", d)
	}
	if result := ValidateSchema(tables); result.HasErrors() {
		return nil, fmt.Errorf("sql/schema: invalid schema:\n%s", result)
	}
	m := &Migrate{dialect: d, fks: true}
	var out []string
	for _, t := range tables {
		out = append(out, m.tableDDL(t))
		for _, idx := range t.Indexes {
			out = append(out, m.indexDDL(t, idx))
		}
	}
	return out, nil
}

// Create creates all missing tables. The schema is validated first;
// definitions with duplicate columns, unknown index columns or dangling
// foreign keys abort before any DDL runs.
func (m *Migrate) Create(ctx context.Context, tables ...*Table) error {
	if m.fks {
		if result := ValidateSchema(tables); result.HasErrors() {
			return fmt.Errorf("sql/schema: invalid schema:\n%s", result)
		}
		for _, t := range tables {
			for _, fk := range t.ForeignKeys {
				if err := validateFK(t, fk); err != nil {
					return err
				}
			}
		}
	} else {
		// Constraints are not created, so references outside the given
		// table set are allowed. Tables are still checked individually.
		for _, t := range tables {
			if result := ValidateTable(t); result.HasErrors() {
				return fmt.Errorf("sql/schema: invalid table %q:\n%s", t.Name, result)
			}
		}
	}
	tx, err := m.drv.Tx(ctx)
	if err != nil {
		return err
	}
	if err := m.init(ctx, tx); err != nil {
		return rollback(tx, err)
	}
	for _, t := range tables {
		exists, err := m.tableExist(ctx, tx, t.Name)
		if err != nil {
			return rollback(tx, err)
		}
		if exists {
			continue
		}
		query := m.tableDDL(t)
		if err := tx.Exec(ctx, query, []any{}, nil); err != nil {
			return rollback(tx, fmt.Errorf("sql/schema: create table %q: %w", t.Name, err))
		}
		for _, idx := range t.Indexes {
			query := m.indexDDL(t, idx)
			if err := tx.Exec(ctx, query, []any{}, nil); err != nil {
				return rollback(tx, fmt.Errorf("sql/schema: create index %q: %w", idx.Name, err))
			}
		}
	}
	return tx.Commit()
}

func rollback(tx dialect.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		return fmt.Errorf("%w: rolling back: %v", err, rerr)
	}
	return err
}

// init verifies dialect preconditions before any DDL runs.
func (m *Migrate) init(ctx context.Context, conn dialect.ExecQuerier) error {
	if m.dialect != dialect.SQLite || !m.fks {
		return nil
	}
	rows := &sql.Rows{}
	if err := conn.Query(ctx, "PRAGMA foreign_keys", []any{}, rows); err != nil {
		return fmt.Errorf("sql/schema: check foreign_keys pragma: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return fmt.Errorf("sql/schema: check foreign_keys pragma: no rows")
	}
	var on int
	if err := rows.Scan(&on); err != nil {
		return fmt.Errorf("sql/schema: scan foreign_keys pragma: %w", err)
	}
	if on != 1 {
		return fmt.Errorf("sql/schema: foreign_keys pragma is off: add \"_pragma=foreign_keys(1)\" to the DSN")
	}
	return nil
}

// tableExist checks the dialect catalog for the table.
func (m *Migrate) tableExist(ctx context.Context, conn dialect.ExecQuerier, name string) (bool, error) {
	var (
		query string
		args  []any
	)
	switch m.dialect {
	case dialect.Postgres:
		query, args = sql.Dialect(dialect.Postgres).
			Select(sql.Count("*")).From(sql.Table("information_schema.tables")).
			Where(sql.And(
				sql.P(func(b *sql.Builder) { b.Ident("table_schema").WriteString(" = CURRENT_SCHEMA()") }),
				sql.EQ("table_name", name),
			)).Query()
	case dialect.MySQL:
		query, args = sql.Dialect(dialect.MySQL).
			Select(sql.Count("*")).From(sql.Table("INFORMATION_SCHEMA.TABLES")).
			Where(sql.And(
				sql.P(func(b *sql.Builder) { b.Ident("TABLE_SCHEMA").WriteString(" = (SELECT DATABASE())") }),
				sql.EQ("TABLE_NAME", name),
			)).Query()
	case dialect.SQLite:
		query, args = sql.Dialect(dialect.SQLite).
			Select(sql.Count("*")).From(sql.Table("sqlite_master")).
			Where(sql.And(sql.EQ("type", "table"), sql.EQ("name", name))).Query()
	}
	return exist(ctx, conn, query, args...)
}

func exist(ctx context.Context, conn dialect.ExecQuerier, query string, args ...any) (bool, error) {
	rows := &sql.Rows{}
	if err := conn.Query(ctx, query, args, rows); err != nil {
		return false, fmt.Errorf("sql/schema: reading catalog: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return false, fmt.Errorf("sql/schema: no rows returned from catalog")
	}
	var n int
	if err := rows.Scan(&n); err != nil {
		return false, fmt.Errorf("sql/schema: scanning count: %w", err)
	}
	return n > 0, nil
}

// tableDDL renders the CREATE TABLE statement for the dialect.
func (m *Migrate) tableDDL(t *Table) string {
	d := m.dialect
	b := &sql.Builder{}
	b.SetDialect(d)
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.Ident(t.Name).Pad()
	b.Nested(func(b *sql.Builder) {
		for i, c := range t.Columns {
			if i > 0 {
				b.Comma()
			}
			m.column(b, t, c)
		}
		// SQLite auto-increment keys are declared inline on the column.
		if len(t.PrimaryKey) > 0 && !(d == dialect.SQLite && t.hasIncrement()) {
			b.Comma().WriteString("PRIMARY KEY")
			b.Nested(func(b *sql.Builder) {
				for i, c := range t.PrimaryKey {
					if i > 0 {
						b.Comma()
					}
					b.Ident(c.Name)
				}
			})
		}
		if m.fks {
			for _, fk := range t.ForeignKeys {
				b.Comma()
				m.foreignKey(b, t, fk)
			}
		}
	})
	return b.String()
}

// column renders one column definition.
func (m *Migrate) column(b *sql.Builder, t *Table, c *Column) {
	d := m.dialect
	b.Ident(c.Name).Pad().WriteString(m.cType(c))
	if c.Attr != "" {
		b.Pad().WriteString(c.Attr)
	}
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	} else if d == dialect.MySQL {
		b.WriteString(" NULL")
	}
	if c.Increment {
		switch d {
		case dialect.MySQL:
			b.WriteString(" AUTO_INCREMENT")
		case dialect.SQLite:
			if t.hasIncrement() && t.PrimaryKey[0] == c {
				b.WriteString(" PRIMARY KEY AUTOINCREMENT")
			}
		}
	}
	if c.Unique && !c.PrimaryKey() {
		b.WriteString(" UNIQUE")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT ").WriteString(defaultLiteral(c.Default))
	}
	if c.Check != "" {
		b.WriteString(" CHECK (").WriteString(c.Check).WriteString(")")
	}
}

// foreignKey renders an inline foreign-key constraint.
func (m *Migrate) foreignKey(b *sql.Builder, t *Table, fk *ForeignKey) {
	b.WriteString("CONSTRAINT ").Ident(fkSymbol(t, fk))
	b.WriteString(" FOREIGN KEY")
	b.Nested(func(b *sql.Builder) {
		for i, c := range fk.Columns {
			if i > 0 {
				b.Comma()
			}
			b.Ident(c.Name)
		}
	})
	b.WriteString(" REFERENCES ").Ident(fk.RefTable.Name)
	b.Nested(func(b *sql.Builder) {
		for i, c := range fk.RefColumns {
			if i > 0 {
				b.Comma()
			}
			b.Ident(c.Name)
		}
	})
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE ").WriteString(string(fk.OnDelete))
	}
	if fk.OnUpdate != "" {
		b.WriteString(" ON UPDATE ").WriteString(string(fk.OnUpdate))
	}
}

// indexDDL renders the CREATE INDEX statement for the dialect.
func (m *Migrate) indexDDL(t *Table, idx *Index) string {
	d := m.dialect
	b := &sql.Builder{}
	b.SetDialect(d)
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	// MySQL has no IF NOT EXISTS for indexes; they are only created
	// together with a new table, so the guard is not needed there.
	if d != dialect.MySQL {
		b.WriteString("IF NOT EXISTS ")
	}
	b.Ident(idx.Name)
	b.WriteString(" ON ").Ident(t.Name)
	b.Nested(func(b *sql.Builder) {
		for i, c := range idx.Columns {
			if i > 0 {
				b.Comma()
			}
			b.Ident(c.Name)
		}
	})
	return b.String()
}

// cType returns the SQL type of the column for the dialect, honoring
// per-dialect overrides from Column.SchemaType.
func (m *Migrate) cType(c *Column) string {
	d := m.dialect
	if c.SchemaType != nil {
		if t, ok := c.SchemaType[d]; ok {
			return t
		}
	}
	switch d {
	case dialect.Postgres:
		return pgType(c)
	case dialect.MySQL:
		return mysqlType(c)
	default:
		return sqliteType(c)
	}
}

func pgType(c *Column) string {
	switch c.Type {
	case field.TypeBool:
		return "boolean"
	case field.TypeInt8, field.TypeInt16, field.TypeUint8, field.TypeUint16:
		return "smallint"
	case field.TypeInt32, field.TypeUint32:
		if c.Increment {
			return "serial"
		}
		return "int"
	case field.TypeInt, field.TypeInt64, field.TypeUint, field.TypeUint64:
		if c.Increment {
			return "bigserial"
		}
		return "bigint"
	case field.TypeFloat32:
		return "real"
	case field.TypeFloat64:
		return "double precision"
	case field.TypeTime:
		return "timestamp with time zone"
	case field.TypeJSON:
		return "jsonb"
	case field.TypeUUID:
		return "uuid"
	case field.TypeBytes:
		return "bytea"
	case field.TypeEnum:
		return "varchar"
	case field.TypeString:
		if c.Size > 0 {
			return fmt.Sprintf("varchar(%d)", c.Size)
		}
		return "varchar"
	default:
		return "varchar"
	}
}

func mysqlType(c *Column) string {
	switch c.Type {
	case field.TypeBool:
		return "bool"
	case field.TypeInt8, field.TypeUint8:
		return "tinyint"
	case field.TypeInt16, field.TypeUint16:
		return "smallint"
	case field.TypeInt32, field.TypeUint32:
		return "int"
	case field.TypeInt, field.TypeInt64, field.TypeUint, field.TypeUint64:
		return "bigint"
	case field.TypeFloat32:
		return "float"
	case field.TypeFloat64:
		return "double"
	case field.TypeTime:
		return "timestamp"
	case field.TypeJSON:
		return "json"
	case field.TypeUUID:
		return "char(36)"
	case field.TypeBytes:
		return "blob"
	case field.TypeEnum:
		values := make([]string, len(c.Enums))
		for i, e := range c.Enums {
			values[i] = "'" + strings.ReplaceAll(e, "'", "''") + "'"
		}
		return "enum(" + strings.Join(values, ", ") + ")"
	case field.TypeString:
		size := c.Size
		if size == 0 {
			size = 255
		}
		return fmt.Sprintf("varchar(%d)", size)
	default:
		return "varchar(255)"
	}
}

func sqliteType(c *Column) string {
	switch c.Type {
	case field.TypeBool:
		return "bool"
	case field.TypeInt8, field.TypeInt16, field.TypeInt32, field.TypeInt, field.TypeInt64,
		field.TypeUint8, field.TypeUint16, field.TypeUint32, field.TypeUint, field.TypeUint64:
		return "integer"
	case field.TypeFloat32, field.TypeFloat64:
		return "real"
	case field.TypeTime:
		return "datetime"
	case field.TypeJSON:
		return "json"
	case field.TypeUUID:
		return "uuid"
	case field.TypeBytes:
		return "blob"
	default:
		return "text"
	}
}

// defaultLiteral renders a DEFAULT value. Expr values are written raw,
// strings are quoted, everything else uses its Go literal form.
func defaultLiteral(v any) string {
	switch v := v.(type) {
	case Expr:
		return string(v)
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
