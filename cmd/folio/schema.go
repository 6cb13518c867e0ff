package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/australsoft/folio/dialect"
	foliosql "github.com/australsoft/folio/dialect/sql"
	"github.com/australsoft/folio/dialect/sql/schema"
	"github.com/australsoft/folio/store"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect and bootstrap the database schema",
	}
	cmd.AddCommand(
		newSchemaDDLCmd(),
		newSchemaMigrateCmd(),
		newSchemaSeedCmd(),
	)
	return cmd
}

func newSchemaDDLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print the schema DDL without connecting",
		Long: `Print the CREATE statements migrate would run against an empty
database, for review or for manually managed installations. No
connection is made; the dialect defaults to the configured one.`,
		Example: `  folio schema ddl --dialect postgres`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, _ := cmd.Flags().GetString("dialect")
			if d == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				d = cfg.Storage.Dialect
			}
			stmts, err := schema.DDL(d, store.Tables()...)
			if err != nil {
				return err
			}
			for _, s := range stmts {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", s)
			}
			return nil
		},
	}
	cmd.Flags().String("dialect", "", "Target dialect: postgres, mysql or sqlite (default from configuration)")
	return cmd
}

func newSchemaMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables, indexes and foreign keys",
		Long: `Create the tables that do not exist yet in the configured database,
with their indexes and foreign keys. Existing tables are left untouched,
so running migrate on an up-to-date database is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newSchemaSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the seed rows the services depend on",
		Long: `Insert the document status catalog and the base lookup rows into the
configured database. The schema is migrated first; rows that already
exist are kept, so seeding is safe to repeat.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Migrate(cmd.Context()); err != nil {
				return err
			}
			if err := st.Seed(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed data in place")
			return nil
		},
	}
}

// openStore connects to the configured database: the registered driver
// opens the pool, pool limits apply, and when a slow-query threshold is
// set the driver is wrapped with query statistics and slow-query logging.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Storage.DriverName(), cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	if n := cfg.Storage.MaxOpenConns; n > 0 {
		db.SetMaxOpenConns(n)
	}
	if n := cfg.Storage.MaxIdleConns; n > 0 {
		db.SetMaxIdleConns(n)
	}
	base := foliosql.OpenDB(cfg.Storage.Dialect, db)
	var drv dialect.Driver = base
	if t := cfg.Storage.SlowQuery.Std(); t > 0 {
		drv = foliosql.NewStatsDriver(base,
			foliosql.WithSlowThreshold(t), foliosql.WithSlowQueryLog())
	}
	var opts []store.Option
	if cfg.Storage.AuditVar != "" {
		opts = append(opts, store.WithAuditVar(cfg.Storage.AuditVar))
	}
	return store.New(drv, opts...), nil
}
