package tasks

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestVerifyFindsBrokenLink(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "index.html"), []byte(`<a href="missing.html">x</a>`), 0o644); err != nil {
		t.Fatal(err)
	}

	req := Request{Raw: map[string]any{"config": "src"}, BaseDir: dir, Logger: slog.Default()}
	outcome, err := Verify(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Details["warningCount"] != 1 {
		t.Fatalf("expected 1 warning, got %v", outcome.Details["warningCount"])
	}
}

func TestVerifyIgnoresExternalLinks(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "index.html"), []byte(`<a href="https://example.com">x</a><a href="mailto:a@b.com">y</a>`), 0o644); err != nil {
		t.Fatal(err)
	}

	req := Request{Raw: map[string]any{"config": "src"}, BaseDir: dir, Logger: slog.Default()}
	outcome, err := Verify(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Details["warningCount"] != 0 {
		t.Fatalf("expected 0 warnings for external/mailto links, got %v", outcome.Details["warningCount"])
	}
}

func TestVerifyPassesOnValidLink(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "other.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "index.html"), []byte(`<a href="other.html">x</a>`), 0o644); err != nil {
		t.Fatal(err)
	}

	req := Request{Raw: map[string]any{"config": "src"}, BaseDir: dir, Logger: slog.Default()}
	outcome, err := Verify(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Details["warningCount"] != 0 {
		t.Fatalf("expected 0 warnings for a valid relative link, got %v", outcome.Details["warningCount"])
	}
}

func TestVerifyRequiresSource(t *testing.T) {
	if _, err := Verify(context.Background(), Request{Raw: map[string]any{}, BaseDir: t.TempDir(), Logger: slog.Default()}); err == nil {
		t.Fatal("expected an error when config is missing")
	}
}
