package schema

import (
	"fmt"
	"strings"
)

// ValidationError is a single problem found in a table definition.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult collects the problems found in one validation run.
// Errors make the schema unusable; warnings flag definitions that would
// work but deserve a look.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

func (r *ValidationResult) errf(table, column, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{
		Table:   table,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *ValidationResult) warnf(table, column, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{
		Table:   table,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether the schema cannot be created as defined.
func (r *ValidationResult) HasErrors() bool { return len(r.Errors) > 0 }

// HasWarnings reports whether anything non-fatal was flagged.
func (r *ValidationResult) HasWarnings() bool { return len(r.Warnings) > 0 }

// String renders the result the way the CLI prints it.
func (r *ValidationResult) String() string {
	if !r.HasErrors() && !r.HasWarnings() {
		return "No issues found"
	}
	var sb strings.Builder
	writeIssues(&sb, "Errors:", r.Errors)
	writeIssues(&sb, "Warnings:", r.Warnings)
	return sb.String()
}

func writeIssues(sb *strings.Builder, title string, issues []*ValidationError) {
	if len(issues) == 0 {
		return
	}
	sb.WriteString(title)
	sb.WriteString("\n")
	for _, issue := range issues {
		fmt.Fprintf(sb, "  - %s\n", issue)
	}
}

// ValidateTable checks one table definition in isolation: column and
// index integrity, primary key wiring and foreign key shape. Cross-table
// references are ValidateSchema's job.
func ValidateTable(t *Table) *ValidationResult {
	r := &ValidationResult{}
	cols := columnSet(t, r)

	if len(t.PrimaryKey) == 0 {
		r.warnf(t.Name, "", "table has no primary key")
	}
	for _, c := range t.PrimaryKey {
		if !cols[c.Name] {
			r.errf(t.Name, c.Name, "primary key references non-existent column")
		}
	}

	checkIndexes(t, cols, r)
	checkForeignKeyShape(t, cols, r)
	return r
}

// columnSet records the table's column names, flagging duplicates and
// untyped columns. A dialect-specific SchemaType override counts as a
// type.
func columnSet(t *Table, r *ValidationResult) map[string]bool {
	cols := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if cols[c.Name] {
			r.errf(t.Name, c.Name, "duplicate column name")
		}
		cols[c.Name] = true
		if !c.Type.Valid() && c.SchemaType == nil {
			r.errf(t.Name, c.Name, "column has no type")
		}
	}
	return cols
}

func checkIndexes(t *Table, cols map[string]bool, r *ValidationResult) {
	seen := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if seen[idx.Name] {
			r.errf(t.Name, "", "duplicate index name: %s", idx.Name)
		}
		seen[idx.Name] = true
		if len(idx.Columns) == 0 {
			r.errf(t.Name, "", "index %q has no columns", idx.Name)
		}
		for _, col := range idx.Columns {
			if col != nil && !cols[col.Name] {
				r.errf(t.Name, "", "index %q references non-existent column %q", idx.Name, col.Name)
			}
		}
	}
}

func checkForeignKeyShape(t *Table, cols map[string]bool, r *ValidationResult) {
	for _, fk := range t.ForeignKeys {
		if len(fk.Columns) != len(fk.RefColumns) {
			r.errf(t.Name, "", "foreign key %q has mismatched column count", fk.Symbol)
		}
		for _, col := range fk.Columns {
			if !cols[col.Name] {
				r.errf(t.Name, "", "foreign key references non-existent column %q", col.Name)
			}
		}
	}
}

// ValidateSchema checks a table set as a whole: per-table validity,
// unique table names, and foreign keys that resolve inside the set.
// Create runs it before any DDL so a bad definition cannot leave a
// half-built schema behind.
func ValidateSchema(tables []*Table) *ValidationResult {
	r := &ValidationResult{}
	names := make(map[string]bool, len(tables))
	for _, t := range tables {
		if names[t.Name] {
			r.errf(t.Name, "", "duplicate table name")
		}
		names[t.Name] = true

		tr := ValidateTable(t)
		r.Errors = append(r.Errors, tr.Errors...)
		r.Warnings = append(r.Warnings, tr.Warnings...)
	}

	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			switch {
			case fk.RefTable == nil:
				r.errf(t.Name, "", "foreign key %q has no referenced table", fk.Symbol)
			case !names[fk.RefTable.Name]:
				r.errf(t.Name, "", "foreign key references non-existent table %q", fk.RefTable.Name)
			}
		}
	}
	return r
}
