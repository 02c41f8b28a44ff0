// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends understood by infra.Open.
const (
	BackendBigQuery = "bigquery"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Default values, overridable through the environment.
const (
	DefaultBackend      = BackendBigQuery
	DefaultDataset      = "finance"
	DefaultAuditWorkers = 12
	DefaultReportDir    = "."
	DefaultDateLayout   = "2006-01-02"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Config holds every setting the commands need.
type Config struct {
	Backend     string
	BQProject   string
	BQDataset   string
	PostgresDSN string

	AuditWorkers int
	ReportDir    string
	ReportBucket string // empty disables report upload
	BatchBucket  string

	KafkaBrokers []string // empty disables event publishing

	DateLayout string
	LogLevel   string
	LogFormat  string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: reading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Backend:      strings.ToLower(valueOr(getenv("LEDGER_BACKEND"), DefaultBackend)),
		BQProject:    getenv("BQ_PROJECT"),
		BQDataset:    valueOr(getenv("BQ_DATASET"), DefaultDataset),
		PostgresDSN:  getenv("POSTGRES_DSN"),
		AuditWorkers: DefaultAuditWorkers,
		ReportDir:    valueOr(getenv("REPORT_DIR"), DefaultReportDir),
		ReportBucket: getenv("REPORT_BUCKET"),
		BatchBucket:  getenv("BATCH_BUCKET"),
		KafkaBrokers: splitList(getenv("KAFKA_BROKERS")),
		DateLayout:   valueOr(getenv("DEFAULT_DATE_LAYOUT"), DefaultDateLayout),
		LogLevel:     valueOr(getenv("LOG_LEVEL"), DefaultLogLevel),
		LogFormat:    valueOr(getenv("LOG_FORMAT"), DefaultLogFormat),
	}

	if raw := getenv("AUDIT_WORKERS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("config: AUDIT_WORKERS %q: %w", raw, err)
		}
		cfg.AuditWorkers = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend-specific requirements.
func (c *Config) Validate() error {
	if c.AuditWorkers < 1 {
		return fmt.Errorf("config: AUDIT_WORKERS must be positive, got %d", c.AuditWorkers)
	}
	switch c.Backend {
	case BackendBigQuery:
		if c.BQProject == "" {
			return fmt.Errorf("config: BQ_PROJECT is required for the %s backend", c.Backend)
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required for the %s backend", c.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown LEDGER_BACKEND %q", c.Backend)
	}
	return nil
}

func valueOr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
