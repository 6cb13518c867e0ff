// Command folio is the operations tool of the business core: it checks
// field formats with the same validators every write path runs, previews
// document numbering, and bootstraps a database (DDL dump, migrate, seed)
// from the same YAML configuration the embedding application loads.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	// Stock drivers for the supported dialects. An installation with a
	// different driver sets storage.driver in the configuration.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/australsoft/folio/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "folio",
		Short: "Operations tool for the folio business core",
		Long: `folio validates field formats, previews document numbering and
bootstraps databases for the folio business core.

Commands that touch a database read the same configuration file the
embedding application uses (--config, default folio.yaml). A dotenv
file is loaded first so the DSN can reference secrets through ${VAR}
expansion.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "folio.yaml", "Configuration file")
	root.PersistentFlags().String("env", "", "Dotenv file loaded before the configuration (default .env, if present)")
	root.AddCommand(
		newValidateCmd(),
		newSequenceCmd(),
		newSchemaCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig resolves the configuration for cmd: the dotenv file first,
// then the YAML file over the packaged defaults. A missing configuration
// file is an error only when --config was set explicitly. The process
// logger is replaced with the configured one before returning.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env")
	var err error
	if envFile != "" {
		err = config.LoadDotenv(envFile)
	} else {
		err = config.LoadDotenv()
	}
	if err != nil {
		return config.Config{}, err
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
			cfg = config.Default()
		} else {
			return config.Config{}, err
		}
	}

	h, err := cfg.Logging.Handler(os.Stderr)
	if err != nil {
		return config.Config{}, err
	}
	slog.SetDefault(slog.New(h))
	return cfg, nil
}
