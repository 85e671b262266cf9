package config

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jbweber/homelab/samba/internal/migrations"
	_ "modernc.org/sqlite"
)

// EnvironmentVar names the variable consulted when no environment is given
const EnvironmentVar = "SAMBA_ENVIRONMENT"

// Config holds the runtime settings of the samba tool
type Config struct {
	DBPath      string
	Port        string
	Environment string
	// TemplatePath overrides the embedded boot-config template when set
	TemplatePath string
	LogLevel     string
	LogFormat    string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		DBPath:      "~/.samba/data/plans.db",
		Port:        "8080",
		Environment: "dev",
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// ResolveEnvironment prefers an explicitly set environment, then
// SAMBA_ENVIRONMENT, then the default.
func (c *Config) ResolveEnvironment(explicit bool, lookup func(string) (string, bool)) string {
	if explicit {
		return c.Environment
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if env, ok := lookup(EnvironmentVar); ok && env != "" {
		c.Environment = env
	}
	return c.Environment
}

// Validate checks the settings that have a closed set of values
func (c *Config) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", s)
	}
}

// NewLogger builds a slog.Logger writing to w at the configured level and format
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// LoadTemplate returns the boot-config template at TemplatePath, or fallback
// when no path is configured.
func (c *Config) LoadTemplate(fallback string) (string, error) {
	if c.TemplatePath == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(c.expandPath(c.TemplatePath))
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}

// InitializeDatabase creates and configures the database connection
func (c *Config) InitializeDatabase() (*sql.DB, error) {
	db, err := c.OpenDatabase()
	if err != nil {
		return nil, err
	}

	if err := c.runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// OpenDatabase opens the journal database without migrating it
func (c *Config) OpenDatabase() (*sql.DB, error) {
	dbPath := c.expandPath(c.DBPath)

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	configureConnection(db)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return db, nil
}

// configureConnection sizes the pool for a single-user CLI and server
func configureConnection(db *sql.DB) {
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return nil
}

// expandPath expands ~ to home directory
func (c *Config) expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(homeDir, path[2:])
}

func (c *Config) runMigrations(db *sql.DB) error {
	return PlanMigrator(db).RunMigrations()
}

// PlanMigrator returns a migrator loaded with the plan journal schema
func PlanMigrator(db *sql.DB) *migrations.Migrator {
	migrator := migrations.NewMigrator(db)
	for _, migration := range migrations.GetPlanMigrations() {
		migrator.AddMigration(migration)
	}
	return migrator
}
