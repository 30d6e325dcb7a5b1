package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLLMsTxtListsPagesAndWritesAllVariants(t *testing.T) {
	dir := t.TempDir()
	site := filepath.Join(dir, "site")
	if err := os.MkdirAll(filepath.Join(site, "blog"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(site, "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(site, "blog", "post.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := Request{Raw: map[string]any{"siteRoot": "site", "output": "llms"}, BaseDir: dir}
	outcome, err := LLMsTxt(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Details["pageCount"] != 2 || len(outcome.Outputs) != 3 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	for _, f := range []string{"llms.txt", "llms-full.txt", "llms.json"} {
		if _, err := os.Stat(filepath.Join(dir, "llms", f)); err != nil {
			t.Fatalf("expected %s to be written: %v", f, err)
		}
	}
}

func TestLLMsTxtRequiresSiteRootAndOutput(t *testing.T) {
	if _, err := LLMsTxt(context.Background(), Request{Raw: map[string]any{}, BaseDir: t.TempDir()}); err == nil {
		t.Fatal("expected an error when siteRoot/output are missing")
	}
}
