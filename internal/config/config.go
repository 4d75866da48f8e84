// Package config provides configuration loading and validation for the service and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every externally supplied setting. Values come from the process
// environment and may be overlaid by an optional JSON file.
type Config struct {
	// Remote collaborators
	DatabaseURL string `json:"database_url,omitempty" env:"DATABASE_URL"`           // PostgreSQL URL for the campaigns table
	SupabaseURL string `json:"supabase_url,omitempty" env:"SUPABASE_URL"`           // Project URL, used for storage
	SupabaseKey string `json:"supabase_anon_key,omitempty" env:"SUPABASE_ANON_KEY"` // Storage API key
	APIKey      string `json:"api_key,omitempty" env:"GEMINI_API_KEY"`              // Gemini API key
	APIKeyAlias string `json:"-" env:"API_KEY"`

	// Enrichment
	Model                string        `json:"model,omitempty" env:"GEMINI_MODEL"`
	ModelTier            string        `json:"model_tier,omitempty" env:"GEMINI_TIER" envDefault:"standard"`
	BrandName            string        `json:"brand_name,omitempty" env:"BRAND_NAME" envDefault:"Buyside"`
	EnrichmentTimeout    time.Duration `json:"-" env:"ENRICHMENT_TIMEOUT" envDefault:"60s"`
	SequentialEnrichment bool          `json:"sequential_enrichment,omitempty" env:"ENRICHMENT_SEQUENTIAL"`

	// Storage
	AssetBucket string `json:"asset_bucket,omitempty" env:"ASSET_BUCKET" envDefault:"campaign-assets"`
	CachePath   string `json:"cache_path,omitempty" env:"BUYSIDE_CACHE_PATH" envDefault:"buyside_cache.db"`

	// Ambient
	LogLevel     string `json:"log_level,omitempty" env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint string `json:"otlp_endpoint,omitempty" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AuthEnabled  bool   `json:"auth_enabled,omitempty" env:"AUTH_ENABLED"`
}

// LoadFromEnv parses the process environment into a Config.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = cfg.APIKeyAlias
	}
	return &cfg, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load reads the environment and, when path is non-empty, overlays the JSON file on top.
func Load(path string) (*Config, error) {
	envCfg, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return envCfg, nil
	}

	fileCfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	merged := fileCfg.MergeWithDefaults(*envCfg)
	return &merged, nil
}

// Validate checks that the configuration has valid values.
// Missing credentials are not errors; see MissingRemote.
func (c *Config) Validate() error {
	if c.EnrichmentTimeout < 0 {
		return fmt.Errorf("config error: 'enrichment_timeout' must be non-negative")
	}
	switch c.ModelTier {
	case "", "lite", "standard", "advanced":
	default:
		return fmt.Errorf("config error: 'model_tier' must be lite, standard or advanced, got %q", c.ModelTier)
	}
	if c.AssetBucket == "" {
		return fmt.Errorf("config error: 'asset_bucket' must not be empty")
	}
	if c.CachePath == "" {
		return fmt.Errorf("config error: 'cache_path' must not be empty")
	}
	return nil
}

// MissingRemote lists the remote settings that are unset. Startup only warns about
// these; the affected calls fail when first used.
func (c *Config) MissingRemote() []string {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.SupabaseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.SupabaseKey == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}
	if c.APIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	return missing
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply environment values beneath a config file.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SupabaseURL == "" {
		result.SupabaseURL = defaults.SupabaseURL
	}
	if result.SupabaseKey == "" {
		result.SupabaseKey = defaults.SupabaseKey
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.ModelTier == "" {
		result.ModelTier = defaults.ModelTier
	}
	if result.BrandName == "" {
		result.BrandName = defaults.BrandName
	}
	if result.AssetBucket == "" {
		result.AssetBucket = defaults.AssetBucket
	}
	if result.CachePath == "" {
		result.CachePath = defaults.CachePath
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.OTLPEndpoint == "" {
		result.OTLPEndpoint = defaults.OTLPEndpoint
	}

	if result.EnrichmentTimeout == 0 {
		result.EnrichmentTimeout = defaults.EnrichmentTimeout
	}

	// Bool fields: either source may switch them on
	result.SequentialEnrichment = result.SequentialEnrichment || defaults.SequentialEnrichment
	result.AuthEnabled = result.AuthEnabled || defaults.AuthEnabled

	return result
}
