// Package config loads powerforge's tool-level configuration: the settings
// that govern how the orchestrator runs (cache, metrics, audit policy, event
// publishing) as distinct from the per-run pipeline document parsed by
// internal/pipeline.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level tool configuration, normally loaded from
// powerforge.yaml (or a path given via --config).
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Audit   AuditConfig   `yaml:"audit"`
	Metrics MetricsConfig `yaml:"metrics"`
	Events  EventsConfig  `yaml:"events"`
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig controls the persistent fingerprint cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// AuditConfig holds the default gate policy applied to audit/verify/doctor
// steps. A step's own `failOnWarnings` field in the pipeline document
// overrides fail_on_warnings for that step; max_errors has no per-step form.
type AuditConfig struct {
	FailOnWarnings bool   `yaml:"fail_on_warnings"`
	MaxErrors      int    `yaml:"max_errors"`
	Baseline       string `yaml:"baseline,omitempty"`
	HistoryDB      string `yaml:"history_db,omitempty"`
}

// MetricsConfig controls the optional Prometheus HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
}

// EventsConfig controls best-effort NATS publishing of step results.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug|info|warn|error
	Format string `yaml:"format,omitempty"` // text|json
}

// Load reads and validates the tool configuration at configPath. A .env (or
// .env.local) file in the working directory is loaded first via godotenv so
// ${VAR} references in the YAML can be expanded; a missing .env file is not
// an error.
func Load(configPath string) (*Config, error) {
	for _, envFile := range []string{".env", ".env.local"} {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "powerforge: no %s file loaded: %v\n", envFile, err)
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Cache.Path == "" {
		cfg.Cache.Path = ".powerforge/cache.json"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "powerforge.steps"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Init writes a starter configuration file to configPath, refusing to
// overwrite an existing one unless force is set.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	example := Config{
		Cache: CacheConfig{Enabled: true, Path: ".powerforge/cache.json"},
		Audit: AuditConfig{FailOnWarnings: false, MaxErrors: 0},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Events: EventsConfig{Enabled: false, Subject: "powerforge.steps"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
