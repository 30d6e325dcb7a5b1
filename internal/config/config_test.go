package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "powerforge.yaml")
	if err := os.WriteFile(path, []byte("cache:\n  enabled: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Cache.Path != ".powerforge/cache.json" {
		t.Fatalf("expected default cache path, got %q", cfg.Cache.Path)
	}
	if cfg.Metrics.Addr != ":9090" {
		t.Fatalf("expected default metrics addr, got %q", cfg.Metrics.Addr)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("expected default logging level/format, got %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("POWERFORGE_TEST_ADDR", ":7777")
	dir := t.TempDir()
	path := filepath.Join(dir, "powerforge.yaml")
	content := "metrics:\n  enabled: true\n  addr: \"${POWERFORGE_TEST_ADDR}\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Metrics.Addr != ":7777" {
		t.Fatalf("expected expanded addr :7777, got %q", cfg.Metrics.Addr)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "powerforge.yaml")
	if err := os.WriteFile(path, []byte("audit:\n  max_errors: -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for negative max_errors")
	}
}

func TestInitWritesStarterConfigAndRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "powerforge.yaml")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	if err := Init(path, false); err == nil {
		t.Fatal("expected Init to refuse overwriting an existing file without --force")
	}
	if err := Init(path, true); err != nil {
		t.Fatalf("expected Init to overwrite with force=true, got: %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid empty config", Config{}, false},
		{"cache enabled without path", Config{Cache: CacheConfig{Enabled: true}}, true},
		{"negative max errors", Config{Audit: AuditConfig{MaxErrors: -1}}, true},
		{"metrics enabled without addr", Config{Metrics: MetricsConfig{Enabled: true}}, true},
		{"invalid log level", Config{Logging: LoggingConfig{Level: "verbose"}}, true},
		{"invalid log format", Config{Logging: LoggingConfig{Format: "xml"}}, true},
	}
	for _, tc := range cases {
		err := ValidateConfig(&tc.cfg)
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: expected no error, got %v", tc.name, err)
		}
	}
}
