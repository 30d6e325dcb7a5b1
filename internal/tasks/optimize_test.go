package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOptimizeWritesManifestAndHeaders(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := Request{Raw: map[string]any{"siteRoot": "src"}, BaseDir: dir}
	outcome, err := Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Details["fileCount"] != 1 {
		t.Fatalf("expected fileCount 1 (manifest.json is written after the walk completes), got %v", outcome.Details["fileCount"])
	}

	data, err := os.ReadFile(filepath.Join(src, "_headers"))
	if err != nil {
		t.Fatalf("expected _headers to be written: %v", err)
	}
	if len(data) == 0 || !contains(string(data), "Cache-Control") {
		t.Fatalf("expected cache-control headers, got: %s", data)
	}
}

func TestOptimizeRequiresSource(t *testing.T) {
	if _, err := Optimize(context.Background(), Request{Raw: map[string]any{}, BaseDir: t.TempDir()}); err == nil {
		t.Fatal("expected an error when siteRoot is missing")
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
