package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSitemapListsHTMLPages(t *testing.T) {
	dir := t.TempDir()
	site := filepath.Join(dir, "site")
	if err := os.MkdirAll(site, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(site, "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := Request{Raw: map[string]any{"siteRoot": "site", "output": "sitemap.xml", "baseUrl": "https://example.com"}, BaseDir: dir}
	outcome, err := Sitemap(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Details["urlCount"] != 1 {
		t.Fatalf("expected urlCount 1, got %v", outcome.Details["urlCount"])
	}
	data, err := os.ReadFile(filepath.Join(dir, "sitemap.xml"))
	if err != nil {
		t.Fatalf("expected sitemap.xml to exist: %v", err)
	}
	if !contains(string(data), "https://example.com/index.html") {
		t.Fatalf("expected absolute url in sitemap, got: %s", data)
	}
}

func TestSitemapWritesVariants(t *testing.T) {
	dir := t.TempDir()
	site := filepath.Join(dir, "site")
	if err := os.MkdirAll(site, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(site, "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := Request{Raw: map[string]any{"siteRoot": "site", "output": "sitemap.xml", "variants": []any{"news", "image"}}, BaseDir: dir}
	outcome, err := Sitemap(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcome.Outputs) != 3 {
		t.Fatalf("expected main + 2 variant sitemaps, got %d", len(outcome.Outputs))
	}
	for _, f := range []string{"sitemap-news.xml", "sitemap-image.xml"} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Fatalf("expected variant %s to exist: %v", f, err)
		}
	}
}

func TestSitemapRequiresSiteRootAndOutput(t *testing.T) {
	if _, err := Sitemap(context.Background(), Request{Raw: map[string]any{}, BaseDir: t.TempDir()}); err == nil {
		t.Fatal("expected an error when siteRoot/output are missing")
	}
}
