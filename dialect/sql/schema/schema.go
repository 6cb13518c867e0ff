// Package schema defines table descriptors and a bootstrap migration engine
// for the dialects folio runs on. Tables are declared as literals (see
// store/migrate), validated with ValidateSchema, and created idempotently
// with Migrate.Create.
package schema

import (
	"fmt"

	"github.com/australsoft/folio/schema/field"
)

// Table schema definition for SQL dialects.
type Table struct {
	Name        string
	Columns     []*Column
	columns     map[string]*Column
	Indexes     []*Index
	PrimaryKey  []*Column
	ForeignKeys []*ForeignKey
	Comment     string
}

// NewTable returns a new table with the given name.
func NewTable(name string) *Table {
	return &Table{
		Name:    name,
		columns: make(map[string]*Column),
	}
}

// AddPrimary adds a new primary key to the table.
func (t *Table) AddPrimary(c *Column) *Table {
	c.Key = PrimaryKey
	t.AddColumn(c)
	t.PrimaryKey = append(t.PrimaryKey, c)
	return t
}

// AddForeignKey adds a foreign key to the table.
func (t *Table) AddForeignKey(fk *ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return t
}

// AddColumn adds a new column to the table.
func (t *Table) AddColumn(c *Column) *Table {
	if t.columns == nil {
		t.columns = make(map[string]*Column)
	}
	t.columns[c.Name] = c
	t.Columns = append(t.Columns, c)
	return t
}

// AddIndex creates and adds a new index to the table from the given options.
func (t *Table) AddIndex(name string, unique bool, columns []string) *Table {
	idx := &Index{
		Name:    name,
		Unique:  unique,
		columns: columns,
		Columns: make([]*Column, 0, len(columns)),
	}
	for _, name := range columns {
		if c, ok := t.column(name); ok {
			idx.Columns = append(idx.Columns, c)
			c.indexes.append(idx)
		}
	}
	t.Indexes = append(t.Indexes, idx)
	return t
}

// column returns a table column by its name.
func (t *Table) column(name string) (*Column, bool) {
	if t.columns != nil {
		c, ok := t.columns[name]
		return c, ok
	}
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// index returns a table index by its exact name.
func (t *Table) index(name string) (*Index, bool) {
	for _, idx := range t.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return nil, false
}

// hasIncrement reports if the table primary key is a single auto-increment column.
func (t *Table) hasIncrement() bool {
	return len(t.PrimaryKey) == 1 && t.PrimaryKey[0].Increment
}

// Column schema definition for SQL dialects.
type Column struct {
	Name       string            // column name.
	Type       field.Type        // column type.
	SchemaType map[string]string // optional per-dialect type override.
	Attr       string            // extra attributes, e.g. "UNSIGNED".
	Size       int64             // max size parameter for string columns.
	Key        string            // key definition (PRI or UNI).
	Enums      []string          // enum values.
	Unique     bool              // column with unique constraint.
	Increment  bool              // auto increment attribute.
	Nullable   bool              // null or not null attribute.
	Default    any               // default value.
	Check      string            // column check expression.
	Comment    string            // column comment.
	indexes    Indexes
}

// UniqueKey returns boolean indicates if this column is a unique key.
func (c *Column) UniqueKey() bool { return c.Key == UniqueKey }

// PrimaryKey returns boolean indicates if this column is on of the primary key columns.
func (c *Column) PrimaryKey() bool { return c.Key == PrimaryKey }

// ForeignKey definition of a foreign key.
type ForeignKey struct {
	Symbol     string          // foreign-key name, generated if empty.
	Columns    []*Column       // table columns.
	RefTable   *Table          // referenced table.
	RefColumns []*Column       // referenced columns.
	OnUpdate   ReferenceOption // action on update.
	OnDelete   ReferenceOption // action on delete.
}

// ReferenceOption for constraint actions.
type ReferenceOption string

// Reference options (actions) specified by ON UPDATE and ON DELETE
// subclauses of the FOREIGN KEY clause.
const (
	NoAction   ReferenceOption = "NO ACTION"
	Restrict   ReferenceOption = "RESTRICT"
	Cascade    ReferenceOption = "CASCADE"
	SetNull    ReferenceOption = "SET NULL"
	SetDefault ReferenceOption = "SET DEFAULT"
)

// Index definition for table index.
type Index struct {
	Name    string    // index name.
	Unique  bool      // uniqueness.
	Columns []*Column // actual table columns.
	columns []string  // columns loaded from query scan.
}

// Indexes used for scanning all sql.Rows into a list of indexes, because
// multiple sql rows can represent the same index (multi-column index).
type Indexes []*Index

func (i *Indexes) append(idx1 *Index) {
	for _, idx2 := range *i {
		if idx2.Name == idx1.Name {
			return
		}
	}
	*i = append(*i, idx1)
}

// column and key constants.
const (
	PrimaryKey = "PRI"
	UniqueKey  = "UNI"
)

// fkSymbol returns the foreign-key symbol, deriving one from the table and
// column names when the definition left it empty.
func fkSymbol(t *Table, fk *ForeignKey) string {
	if fk.Symbol != "" {
		return fk.Symbol
	}
	name := t.Name
	for _, c := range fk.Columns {
		name += "_" + c.Name
	}
	return name
}

// validateFK reports a descriptive error for malformed foreign keys.
func validateFK(t *Table, fk *ForeignKey) error {
	if fk.RefTable == nil {
		return fmt.Errorf("sql/schema: foreign key %q on table %q has no referenced table", fkSymbol(t, fk), t.Name)
	}
	if len(fk.Columns) == 0 || len(fk.Columns) != len(fk.RefColumns) {
		return fmt.Errorf("sql/schema: foreign key %q on table %q has mismatched columns", fkSymbol(t, fk), t.Name)
	}
	return nil
}
