// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, importer) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the AIHub API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for operator token signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Operator credentials for the admin endpoints
	OperatorUsername     string `env:"OPERATOR_USERNAME" envDefault:"admin"`
	OperatorPasswordHash string `env:"OPERATOR_PASSWORD_HASH,required"`

	// Cross-Origin Resource Sharing (comma separated, "*" allows any origin)
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`

	// Import pacing and media acquisition budgets
	BatchItemDelay      time.Duration `env:"BATCH_ITEM_DELAY"      envDefault:"500ms"`
	MediaAttemptTimeout time.Duration `env:"MEDIA_ATTEMPT_TIMEOUT" envDefault:"5s"`
	MediaBudget         time.Duration `env:"MEDIA_BUDGET"          envDefault:"20s"`
	MediaMaxBytes       int64         `env:"MEDIA_MAX_BYTES"       envDefault:"10485760"`

	// PublicBaseURL prefixes the canonical tool page URL (https://host/tools/{slug}).
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	// RecommendPolicyPath optionally replaces the built-in category keyword groups.
	RecommendPolicyPath string `env:"RECOMMEND_POLICY_PATH"`

	// BootstrapDemoKey creates a demo API key on first start when no key exists.
	BootstrapDemoKey bool `env:"BOOTSTRAP_DEMO_KEY" envDefault:"true"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.MediaBudget < cfg.MediaAttemptTimeout {
		return nil, fmt.Errorf("config: MEDIA_BUDGET (%s) must not be shorter than MEDIA_ATTEMPT_TIMEOUT (%s)", cfg.MediaBudget, cfg.MediaAttemptTimeout)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Origins splits [Config.AllowedOrigins] into the list the CORS middleware expects.
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
