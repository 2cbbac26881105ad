// Package config loads engine configuration from defaults, an optional YAML
// file, and COMPLIANCE_-prefixed environment variables, in that order of
// precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`

	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Redis      RedisConfig      `koanf:"redis"`
	Compliance ComplianceConfig `koanf:"compliance"`
	Sanctions  SanctionsConfig  `koanf:"sanctions"`
}

// ServerConfig configures the operational HTTP listener (metrics, health)
type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxConns        int           `koanf:"max_conns"`
	MinConns        int           `koanf:"min_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// ComplianceConfig carries the decision pipeline thresholds
type ComplianceConfig struct {
	SanctionsMatchThreshold float64       `koanf:"sanctions_match_threshold"`
	SanctionsBlockThreshold float64       `koanf:"sanctions_block_threshold"`
	ReviewRiskScore         int           `koanf:"review_risk_score"`
	CheckTTL                time.Duration `koanf:"check_ttl"`
	RuleCacheTTL            time.Duration `koanf:"rule_cache_ttl"`
}

// SanctionsConfig configures the watchlist dataset source
type SanctionsConfig struct {
	DatasetPath    string        `koanf:"dataset_path"`
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// Load reads configuration with the path defaulting to configs/config.yaml.
// The file is optional; environment variables always win.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := &Config{
		Version:     "dev",
		Environment: "development",
		LogLevel:    "info",
		Server: ServerConfig{
			Port:            8090,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns:        25,
			MinConns:        5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Compliance: ComplianceConfig{
			SanctionsMatchThreshold: 0.85,
			SanctionsBlockThreshold: 0.95,
			ReviewRiskScore:         75,
			CheckTTL:                24 * time.Hour,
			RuleCacheTTL:            15 * time.Minute,
		},
		Sanctions: SanctionsConfig{
			ReloadInterval: 6 * time.Hour,
		},
	}

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		path = "configs/config.yaml"
	}
	// The config file is optional; a missing file falls through to env vars.
	_ = k.Load(file.Provider(path), yaml.Parser())

	// Double underscores separate nesting levels so keys that themselves
	// contain underscores stay addressable:
	// COMPLIANCE_COMPLIANCE__REVIEW_RISK_SCORE -> compliance.review_risk_score
	if err := k.Load(env.Provider("COMPLIANCE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "COMPLIANCE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Compliance.SanctionsMatchThreshold <= 0 || c.Compliance.SanctionsMatchThreshold > 1 {
		return fmt.Errorf("sanctions match threshold %.2f outside (0,1]", c.Compliance.SanctionsMatchThreshold)
	}
	if c.Compliance.SanctionsBlockThreshold < c.Compliance.SanctionsMatchThreshold {
		return fmt.Errorf("sanctions block threshold %.2f below match threshold %.2f",
			c.Compliance.SanctionsBlockThreshold, c.Compliance.SanctionsMatchThreshold)
	}
	if c.Compliance.ReviewRiskScore < 1 || c.Compliance.ReviewRiskScore > 100 {
		return fmt.Errorf("review risk score %d outside [1,100]", c.Compliance.ReviewRiskScore)
	}
	return nil
}

// IsProduction reports whether the engine runs in a production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
