// Package config loads the deployment configuration: a YAML file with
// environment expansion, plus dotenv loading for the secrets the DSN
// references. Absent fields keep the packaged defaults, so a minimal
// installation ships no file at all.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/dialect"
	"github.com/australsoft/folio/domain"
	"github.com/australsoft/folio/sequence"
)

// Config is the root of the configuration file.
type Config struct {
	Storage   Storage   `yaml:"storage"`
	Sequences Sequences `yaml:"sequences"`
	Logging   Logging   `yaml:"logging"`
}

// Storage configures the database connection.
type Storage struct {
	// Dialect is postgres, mysql or sqlite.
	Dialect string `yaml:"dialect"`
	// Driver overrides the registered database/sql driver name. Empty
	// picks the stock driver of the dialect: pgx, mysql or sqlite.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`

	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`

	// SlowQuery is the threshold above which statements are counted and
	// logged as slow ("150ms", "2s"). Zero keeps the driver default.
	SlowQuery Duration `yaml:"slow_query"`

	// AuditVar names the postgres session variable sessions tag with the
	// acting principal, for installations whose audit triggers read it.
	AuditVar string `yaml:"audit_var"`
}

// Sequences configures document numbering.
type Sequences struct {
	// Pad is the minimum digit count of the numeric segment.
	Pad int `yaml:"pad"`
	// Codes maps a document family (quote, order, delivery, sii_invoice,
	// export_invoice) to the short code its numbers open with. Families
	// left out keep their stock code.
	Codes map[string]string `yaml:"codes"`
}

// Logging configures the process logger.
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Duration unmarshals from the yaml string form ("150ms", "2s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return folio.NewValidationError("duration", err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration a file-less installation runs with: a
// local sqlite database, stock numbering and text logging at info.
func Default() Config {
	return Config{
		Storage: Storage{
			Dialect:   dialect.SQLite,
			DSN:       "file:folio.db?_pragma=foreign_keys(1)",
			SlowQuery: Duration(100 * time.Millisecond),
		},
		Sequences: Sequences{Pad: 4},
		Logging:   Logging{Level: "info", Format: "text"},
	}
}

// Load reads the YAML file at path over the defaults. ${VAR} references
// expand from the environment before parsing, so DSNs can carry secrets
// loaded through LoadDotenv.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, folio.NewInternalError(err)
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return Config{}, folio.NewValidationError("config", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotenv loads the named env files (".env" when none are given) into
// the process environment. Missing files are skipped; variables already
// set keep their value.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return folio.NewInternalError(err)
		}
	}
	return nil
}

// Validate rejects unknown dialects, levels, formats, families and
// negative pool sizes.
func (c Config) Validate() error {
	switch c.Storage.Dialect {
	case dialect.Postgres, dialect.MySQL, dialect.SQLite:
	default:
		return folio.NewValidationError("storage.dialect",
			fmt.Errorf("unknown dialect %q", c.Storage.Dialect))
	}
	if c.Storage.DSN == "" {
		return folio.NewValidationError("storage.dsn", errors.New("is required"))
	}
	if c.Storage.MaxOpenConns < 0 {
		return folio.NewValidationError("storage.max_open_conns", errors.New("must not be negative"))
	}
	if c.Storage.MaxIdleConns < 0 {
		return folio.NewValidationError("storage.max_idle_conns", errors.New("must not be negative"))
	}
	if c.Storage.SlowQuery < 0 {
		return folio.NewValidationError("storage.slow_query", errors.New("must not be negative"))
	}
	if c.Sequences.Pad < 0 {
		return folio.NewValidationError("sequences.pad", errors.New("must not be negative"))
	}
	if _, err := c.Sequences.Options(); err != nil {
		return err
	}
	if _, err := c.Logging.Handler(io.Discard); err != nil {
		return err
	}
	return nil
}

// DriverName resolves the database/sql driver to open: the explicit
// override, or the stock driver of the dialect.
func (s Storage) DriverName() string {
	if s.Driver != "" {
		return s.Driver
	}
	switch s.Dialect {
	case dialect.Postgres:
		return "pgx"
	case dialect.MySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

// Options renders the section as sequence generator options. Families
// missing from Codes keep their stock code, so a file can rebrand one
// family alone.
func (s Sequences) Options() ([]sequence.Option, error) {
	var opts []sequence.Option
	if len(s.Codes) > 0 {
		codes := make(map[domain.DocumentFamily]string, len(sequence.DefaultCodes))
		for name, code := range s.Codes {
			f, err := domain.ParseDocumentFamily(name)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(code) == "" {
				return nil, folio.NewValidationError("sequences.codes",
					fmt.Errorf("empty code for family %s", f))
			}
			codes[f] = code
		}
		for f, code := range sequence.DefaultCodes {
			if _, ok := codes[f]; !ok {
				codes[f] = code
			}
		}
		opts = append(opts, sequence.WithCodes(codes))
	}
	if s.Pad > 0 {
		opts = append(opts, sequence.WithPad(s.Pad))
	}
	return opts, nil
}

// Handler builds the slog handler the section describes.
func (l Logging) Handler(w io.Writer) (slog.Handler, error) {
	var level slog.Level
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "", "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, folio.NewValidationError("logging.level",
			fmt.Errorf("unknown level %q", l.Level))
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(strings.TrimSpace(l.Format)) {
	case "", "text":
		return slog.NewTextHandler(w, opts), nil
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, folio.NewValidationError("logging.format",
			fmt.Errorf("unknown format %q", l.Format))
	}
}
