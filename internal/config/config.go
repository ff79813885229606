// Package config loads and validates migration configuration.
//
// Load order (later sources override earlier):
//  1. Built-in defaults
//  2. Config file (.kontent-migrate.yaml, or --config path)
//  3. Environment variables (KONTENT_*)
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	merrors "github.com/Enngage/kontent-ai-migration-toolkit/internal/errors"
)

// ConfigFileName is the default config file searched in the working directory.
const ConfigFileName = ".kontent-migrate.yaml"

// DefaultConcurrency bounds parallel reference resolution and asset downloads.
const DefaultConcurrency = 5

// EnvironmentConfig identifies one Kontent.ai environment and its
// Management API credentials.
type EnvironmentConfig struct {
	EnvironmentID string `yaml:"environment_id"`
	APIKey        string `yaml:"api_key"`
	// BaseURL overrides the Management API endpoint. Empty uses production.
	BaseURL string `yaml:"base_url,omitempty"`
}

// Config is the full migration configuration.
type Config struct {
	Source EnvironmentConfig `yaml:"source"`
	Target EnvironmentConfig `yaml:"target"`

	// SkipFailedItems continues past per-item failures instead of aborting.
	SkipFailedItems bool `yaml:"skip_failed_items"`
	// ReplaceInvalidLinks downgrades unresolvable rich-text links to plain
	// text instead of failing the item.
	ReplaceInvalidLinks bool `yaml:"replace_invalid_links"`
	// FetchAssetDetails downloads asset binaries during export.
	FetchAssetDetails bool `yaml:"fetch_asset_details"`
	// Concurrency bounds parallel API calls. Zero means the default.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{Concurrency: DefaultConcurrency}
}

// Load reads configuration from path (or the default file when path is
// empty), then applies KONTENT_* environment overrides. A missing default
// file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = ConfigFileName
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, merrors.ErrConfigInvalid(path, err.Error())
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults plus env vars is a valid configuration.
	default:
		return nil, merrors.ErrConfigInvalid(path, err.Error())
	}

	applyEnvVars(cfg)

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return cfg, nil
}

// applyEnvVars overlays KONTENT_* environment variables onto cfg.
func applyEnvVars(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("KONTENT_SOURCE_ENVIRONMENT_ID", &cfg.Source.EnvironmentID)
	setString("KONTENT_SOURCE_API_KEY", &cfg.Source.APIKey)
	setString("KONTENT_SOURCE_BASE_URL", &cfg.Source.BaseURL)
	setString("KONTENT_TARGET_ENVIRONMENT_ID", &cfg.Target.EnvironmentID)
	setString("KONTENT_TARGET_API_KEY", &cfg.Target.APIKey)
	setString("KONTENT_TARGET_BASE_URL", &cfg.Target.BaseURL)

	setBool("KONTENT_SKIP_FAILED_ITEMS", &cfg.SkipFailedItems)
	setBool("KONTENT_REPLACE_INVALID_LINKS", &cfg.ReplaceInvalidLinks)
	setBool("KONTENT_FETCH_ASSET_DETAILS", &cfg.FetchAssetDetails)

	if v := os.Getenv("KONTENT_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Concurrency = n
		}
	}
}

// ValidateSource checks that source environment credentials are present.
func (c *Config) ValidateSource() error {
	if c.Source.EnvironmentID == "" {
		return merrors.ErrConfigMissing("source.environment_id")
	}
	if c.Source.APIKey == "" {
		return merrors.ErrConfigMissing("source.api_key")
	}
	return nil
}

// ValidateTarget checks that target environment credentials are present.
func (c *Config) ValidateTarget() error {
	if c.Target.EnvironmentID == "" {
		return merrors.ErrConfigMissing("target.environment_id")
	}
	if c.Target.APIKey == "" {
		return merrors.ErrConfigMissing("target.api_key")
	}
	return nil
}
