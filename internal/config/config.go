// Package config loads service configuration from the environment. Values
// are resolved once at startup and immutable afterwards: a .env file is
// loaded first (never overriding real environment variables), envconfig
// populates the struct from tags, and go-playground/validator rejects
// malformed values before anything else starts.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the top-level configuration for the service. Sub-components
// receive only the subsets they need.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`

	Server   ServerConfig
	Sources  SourcesConfig
	Pipeline PipelineConfig
}

// ServerConfig holds the HTTP listener and shutdown tuning.
type ServerConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// SourcesConfig holds upstream credentials and endpoints. Every key is
// optional: a missing credential makes that tier fail fast and the chain
// fall through, it never blocks startup.
type SourcesConfig struct {
	KOSISAPIKey string `envconfig:"KOSIS_API_KEY"`
	KOSISItemID string `envconfig:"KOSIS_ITEM_ID"`

	SGISAccessKey string `envconfig:"SGIS_ACCESS_KEY"`
	SGISSecretKey string `envconfig:"SGIS_SECRET_KEY"`

	OpenDataServiceKey string `envconfig:"OPENDATA_SERVICE_KEY"`
	OpenDataEndpoint   string `envconfig:"OPENDATA_ENDPOINT" validate:"omitempty,url"`

	PopulationSnapshotURL string `envconfig:"POPULATION_SNAPSHOT_URL" validate:"omitempty,url"`
	EventsSnapshotURL     string `envconfig:"EVENTS_SNAPSHOT_URL" validate:"omitempty,url"`
	BoundaryURL           string `envconfig:"BOUNDARY_URL" validate:"omitempty,url"`

	FetchTimeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"20s"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	BoundaryTTL   time.Duration `envconfig:"BOUNDARY_TTL" default:"24h"`
	SyntheticSeed int64         `envconfig:"SYNTHETIC_SEED" default:"42"`
}

// PipelineConfig holds the default snapshot parameters. Requests may
// override them per call within the same bounds.
type PipelineConfig struct {
	StartYear  int     `envconfig:"START_YEAR" default:"2015" validate:"min=1900,max=2999"`
	EndYear    int     `envconfig:"END_YEAR" validate:"omitempty,min=1900,max=2999"` // 0 means the current year
	Window     int     `envconfig:"SMOOTH_WINDOW" default:"1" validate:"min=1,max=10"`
	Unit       string  `envconfig:"DISPLAY_UNIT" default:"명"`
	IndexScale float64 `envconfig:"INDEX_SCALE" default:"1"`
}

// Load reads a .env file if present, populates Config from the environment,
// and validates it. Any invalid value fails startup.
func Load() (*Config, error) {
	// Never overrides variables already set in the real environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}
