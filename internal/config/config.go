package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the paper service.
// Environment variables are parsed from the PAPERDESK_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Store selection: "postgres" or "sqlite"
	DBDriver    string `envconfig:"DB_DRIVER" default:"postgres"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"paperdesk.db"`

	// Search backend: "store" uses the store's own full-text index,
	// "weaviate" uses an external BM25 index.
	SearchBackend  string `envconfig:"SEARCH_BACKEND" default:"store"`
	SearchIndexURL string `envconfig:"SEARCH_INDEX_URL" default:"localhost:8081"`
	// SearchMaxCandidates caps the candidate set fetched from the
	// index before filters and pagination apply.
	SearchMaxCandidates int `envconfig:"SEARCH_MAX_CANDIDATES" default:"500"`

	// Per-call timeout budget for store operations, in seconds.
	StoreTimeoutSeconds int `envconfig:"STORE_TIMEOUT_SECONDS" default:"10"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`

	// Scrape worker
	ScrapeIntervalSeconds int    `envconfig:"SCRAPE_INTERVAL_SECONDS" default:"3600"`
	ArxivAPIURL           string `envconfig:"ARXIV_API_URL" default:"https://export.arxiv.org/api/query"`
	ArxivCategories       string `envconfig:"ARXIV_CATEGORIES" default:"cs.LG;cs.CL;cs.CV;stat.ML"`
	ArxivMaxResults       int    `envconfig:"ARXIV_MAX_RESULTS" default:"200"`
	PwcLinkstarsURL       string `envconfig:"PWC_LINKSTARS_URL" default:"https://paperswithcode.com/api/linkstars"`
	PwcUser               string `envconfig:"PWC_USER" default:""`
	PwcPassword           string `envconfig:"PWC_PASSWORD" default:""`
}

// ResolveDefaults validates driver and backend selections.
func (c *Config) ResolveDefaults() error {
	allowedDB := map[string]bool{"postgres": true, "sqlite": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	allowedSearch := map[string]bool{"store": true, "weaviate": true}
	if !allowedSearch[c.SearchBackend] {
		return fmt.Errorf("unsupported SEARCH_BACKEND: %s", c.SearchBackend)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("PAPERDESK_POSTGRES_DSN is required when DB_DRIVER=postgres")
	}
	if c.SearchMaxCandidates <= 0 {
		return fmt.Errorf("SEARCH_MAX_CANDIDATES must be positive")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with PAPERDESK_, e.g. PAPERDESK_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PAPERDESK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("db_driver", cfg.DBDriver).
		Str("search_backend", cfg.SearchBackend).
		Int("port", cfg.HTTPPort).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		DBDriver:                  "sqlite",
		SQLitePath:                ":memory:",
		SearchBackend:             "store",
		SearchIndexURL:            "localhost:8081",
		SearchMaxCandidates:       500,
		StoreTimeoutSeconds:       10,
		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
		BootstrapTimeoutSeconds:   5,
		ScrapeIntervalSeconds:     3600,
		ArxivAPIURL:               "https://export.arxiv.org/api/query",
		ArxivCategories:           "cs.LG",
		ArxivMaxResults:           50,
		PwcLinkstarsURL:           "https://paperswithcode.com/api/linkstars",
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool { return c.Environment == EnvTesting }

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool { return c.Environment == EnvProduction }

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
