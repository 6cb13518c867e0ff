package schema

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/australsoft/folio/dialect"
	"github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/schema/field"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var (
	vendorsColumns = []*Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "rut", Type: field.TypeString, Size: 12, Unique: true},
		{Name: "name", Type: field.TypeString},
		{Name: "active", Type: field.TypeBool, Default: true},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "deleted_at", Type: field.TypeTime, Nullable: true},
	}
	vendorsTable = &Table{
		Name:       "vendors",
		Columns:    vendorsColumns,
		PrimaryKey: []*Column{vendorsColumns[0]},
		Indexes: []*Index{
			{Name: "vendors_name", Columns: []*Column{vendorsColumns[2]}},
		},
	}
	vendorNotesColumns = []*Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "vendor_id", Type: field.TypeInt64},
		{Name: "body", Type: field.TypeString},
	}
	vendorNotesTable = &Table{
		Name:       "vendor_notes",
		Columns:    vendorNotesColumns,
		PrimaryKey: []*Column{vendorNotesColumns[0]},
		ForeignKeys: []*ForeignKey{
			{
				Symbol:     "vendor_notes_vendor_id",
				Columns:    []*Column{vendorNotesColumns[1]},
				RefColumns: []*Column{vendorsColumns[0]},
				OnDelete:   Cascade,
			},
		},
	}
	testTables = []*Table{vendorsTable, vendorNotesTable}
)

func init() {
	vendorNotesTable.ForeignKeys[0].RefTable = vendorsTable
}

func escape(query string) string {
	rows := strings.Split(query, "\n")
	for i := range rows {
		rows[i] = strings.TrimPrefix(rows[i], " ")
	}
	query = strings.Join(rows, " ")
	return strings.TrimSpace(regexp.QuoteMeta(query)) + "$"
}

func TestMigrate_CreatePostgres(t *testing.T) {
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mk.ExpectBegin()
	mk.ExpectQuery(escape(`SELECT COUNT(*) FROM "information_schema"."tables" WHERE "table_schema" = CURRENT_SCHEMA() AND "table_name" = $1`)).
		WithArgs("vendors").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mk.ExpectExec(escape(`CREATE TABLE IF NOT EXISTS "vendors" ("id" bigserial NOT NULL, "rut" varchar(12) NOT NULL UNIQUE, "name" varchar NOT NULL, "active" boolean NOT NULL DEFAULT true, "created_at" timestamp with time zone NOT NULL, "deleted_at" timestamp with time zone, PRIMARY KEY("id"))`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectExec(escape(`CREATE INDEX IF NOT EXISTS "vendors_name" ON "vendors"("name")`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectQuery(escape(`SELECT COUNT(*) FROM "information_schema"."tables" WHERE "table_schema" = CURRENT_SCHEMA() AND "table_name" = $1`)).
		WithArgs("vendor_notes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mk.ExpectExec(escape(`CREATE TABLE IF NOT EXISTS "vendor_notes" ("id" bigserial NOT NULL, "vendor_id" bigint NOT NULL, "body" varchar NOT NULL, PRIMARY KEY("id"), CONSTRAINT "vendor_notes_vendor_id" FOREIGN KEY("vendor_id") REFERENCES "vendors"("id") ON DELETE CASCADE)`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectCommit()

	m, err := NewMigrate(sql.OpenDB(dialect.Postgres, db))
	require.NoError(t, err)
	require.NoError(t, m.Create(context.Background(), testTables...))
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestMigrate_CreateMySQL(t *testing.T) {
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mk.ExpectBegin()
	mk.ExpectQuery(escape("SELECT COUNT(*) FROM `INFORMATION_SCHEMA`.`TABLES` WHERE `TABLE_SCHEMA` = (SELECT DATABASE()) AND `TABLE_NAME` = ?")).
		WithArgs("vendors").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mk.ExpectExec(escape("CREATE TABLE IF NOT EXISTS `vendors` (`id` bigint NOT NULL AUTO_INCREMENT, `rut` varchar(12) NOT NULL UNIQUE, `name` varchar(255) NOT NULL, `active` bool NOT NULL DEFAULT true, `created_at` timestamp NOT NULL, `deleted_at` timestamp NULL, PRIMARY KEY(`id`))")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectExec(escape("CREATE INDEX `vendors_name` ON `vendors`(`name`)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectQuery(escape("SELECT COUNT(*) FROM `INFORMATION_SCHEMA`.`TABLES` WHERE `TABLE_SCHEMA` = (SELECT DATABASE()) AND `TABLE_NAME` = ?")).
		WithArgs("vendor_notes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mk.ExpectExec(escape("CREATE TABLE IF NOT EXISTS `vendor_notes` (`id` bigint NOT NULL AUTO_INCREMENT, `vendor_id` bigint NOT NULL, `body` varchar(255) NOT NULL, PRIMARY KEY(`id`), CONSTRAINT `vendor_notes_vendor_id` FOREIGN KEY(`vendor_id`) REFERENCES `vendors`(`id`) ON DELETE CASCADE)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectCommit()

	m, err := NewMigrate(sql.OpenDB(dialect.MySQL, db))
	require.NoError(t, err)
	require.NoError(t, m.Create(context.Background(), testTables...))
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestMigrate_ExistingTablesAreSkipped(t *testing.T) {
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mk.ExpectBegin()
	mk.ExpectQuery(escape(`SELECT COUNT(*) FROM "information_schema"."tables" WHERE "table_schema" = CURRENT_SCHEMA() AND "table_name" = $1`)).
		WithArgs("vendors").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mk.ExpectCommit()

	m, err := NewMigrate(sql.OpenDB(dialect.Postgres, db))
	require.NoError(t, err)
	require.NoError(t, m.Create(context.Background(), vendorsTable))
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestMigrate_WithoutForeignKeys(t *testing.T) {
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mk.ExpectBegin()
	mk.ExpectQuery(escape(`SELECT COUNT(*) FROM "information_schema"."tables" WHERE "table_schema" = CURRENT_SCHEMA() AND "table_name" = $1`)).
		WithArgs("vendor_notes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mk.ExpectExec(escape(`CREATE TABLE IF NOT EXISTS "vendor_notes" ("id" bigserial NOT NULL, "vendor_id" bigint NOT NULL, "body" varchar NOT NULL, PRIMARY KEY("id"))`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mk.ExpectCommit()

	m, err := NewMigrate(sql.OpenDB(dialect.Postgres, db), WithForeignKeys(false))
	require.NoError(t, err)
	// The referenced table is managed elsewhere; without FK wiring the
	// dangling reference must not be validated against this table set.
	require.NoError(t, m.Create(context.Background(), vendorNotesTable))
	require.NoError(t, mk.ExpectationsWereMet())
}

func TestMigrate_InvalidSchema(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	bad := &Table{
		Name: "dup",
		Columns: []*Column{
			{Name: "id", Type: field.TypeInt64},
			{Name: "id", Type: field.TypeInt64},
		},
		PrimaryKey: []*Column{{Name: "id", Type: field.TypeInt64}},
	}
	m, err := NewMigrate(sql.OpenDB(dialect.Postgres, db))
	require.NoError(t, err)
	err = m.Create(context.Background(), bad)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate column name")
}

func TestMigrate_UnsupportedDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewMigrate(sql.OpenDB("oracle", db))
	require.Error(t, err)
}

func TestMigrate_SQLite(t *testing.T) {
	drv, err := sql.Open(dialect.SQLite, "file:migrate_test?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	defer drv.Close()
	drv.DB().SetMaxOpenConns(1)

	ctx := context.Background()
	m, err := NewMigrate(drv)
	require.NoError(t, err)
	require.NoError(t, m.Create(ctx, testTables...))
	// Idempotent: a second run sees the tables and leaves them alone.
	require.NoError(t, m.Create(ctx, testTables...))

	err = drv.Exec(ctx, "INSERT INTO vendors (rut, name, active, created_at) VALUES (?, ?, ?, ?)",
		[]any{"76543210-K", "Acme SpA", true, "2026-01-02 15:04:05"}, nil)
	require.NoError(t, err)
	err = drv.Exec(ctx, "INSERT INTO vendor_notes (vendor_id, body) VALUES (?, ?)", []any{1, "hello"}, nil)
	require.NoError(t, err)

	// FK is enforced: a note pointing at a missing vendor must fail.
	err = drv.Exec(ctx, "INSERT INTO vendor_notes (vendor_id, body) VALUES (?, ?)", []any{999, "dangling"}, nil)
	require.Error(t, err)
	require.True(t, sql.IsForeignKeyConstraintError(err))

	// Unique column is enforced.
	err = drv.Exec(ctx, "INSERT INTO vendors (rut, name, active, created_at) VALUES (?, ?, ?, ?)",
		[]any{"76543210-K", "Clone SpA", true, "2026-01-02 15:04:05"}, nil)
	require.Error(t, err)
	require.True(t, sql.IsUniqueConstraintError(err))
}

func TestMigrate_SQLitePragmaOff(t *testing.T) {
	drv, err := sql.Open(dialect.SQLite, "file:pragma_off_test?mode=memory")
	require.NoError(t, err)
	defer drv.Close()
	drv.DB().SetMaxOpenConns(1)

	m, err := NewMigrate(drv)
	require.NoError(t, err)
	err = m.Create(context.Background(), testTables...)
	require.Error(t, err)
	require.Contains(t, err.Error(), "foreign_keys pragma is off")
}

func TestDDL(t *testing.T) {
	stmts, err := DDL(dialect.Postgres, testTables...)
	require.NoError(t, err)
	require.Equal(t, []string{
		`CREATE TABLE IF NOT EXISTS "vendors" ("id" bigserial NOT NULL, "rut" varchar(12) NOT NULL UNIQUE, "name" varchar NOT NULL, "active" boolean NOT NULL DEFAULT true, "created_at" timestamp with time zone NOT NULL, "deleted_at" timestamp with time zone, PRIMARY KEY("id"))`,
		`CREATE INDEX IF NOT EXISTS "vendors_name" ON "vendors"("name")`,
		`CREATE TABLE IF NOT EXISTS "vendor_notes" ("id" bigserial NOT NULL, "vendor_id" bigint NOT NULL, "body" varchar NOT NULL, PRIMARY KEY("id"), CONSTRAINT "vendor_notes_vendor_id" FOREIGN KEY("vendor_id") REFERENCES "vendors"("id") ON DELETE CASCADE)`,
	}, stmts)

	stmts, err = DDL(dialect.MySQL, vendorsTable)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[0], "AUTO_INCREMENT")

	_, err = DDL("mssql", testTables...)
	require.Error(t, err)

	dup := &Table{Name: "dup", Columns: []*Column{
		{Name: "id", Type: field.TypeInt64},
		{Name: "id", Type: field.TypeInt64},
	}}
	_, err = DDL(dialect.Postgres, dup)
	require.Error(t, err)
}
