package tasks

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestDoctorAggregatesSubSteps(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "index.md"), []byte("# Hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := Request{Raw: map[string]any{"config": "src", "out": "out", "siteRoot": "src"}, BaseDir: dir, Logger: slog.Default()}
	outcome, err := Doctor(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Fatal("expected doctor to succeed")
	}
	for _, key := range []string{"build", "verify", "audit"} {
		if _, ok := outcome.Details[key]; !ok {
			t.Errorf("expected details.%s to be populated, got %+v", key, outcome.Details)
		}
	}
}

func TestDoctorSkipsDisabledSubSteps(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}

	req := Request{
		Raw:     map[string]any{"config": "src", "out": "out", "siteRoot": "src", "runBuild": false, "runVerify": false},
		BaseDir: dir,
		Logger:  slog.Default(),
	}
	outcome, err := Doctor(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := outcome.Details["build"]; ok {
		t.Error("expected build sub-step to be skipped")
	}
	if _, ok := outcome.Details["verify"]; ok {
		t.Error("expected verify sub-step to be skipped")
	}
	if _, ok := outcome.Details["audit"]; !ok {
		t.Error("expected audit sub-step to still run")
	}
}
