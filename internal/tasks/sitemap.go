package tasks

import (
	"context"
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type urlEntry struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

// Sitemap walks `siteRoot` and emits sitemap.xml (plus optional variants
// requested via `variants`: html, news, image, video produce additional
// sitemap-<variant>.xml files with the same URL set — variant-specific
// schema extensions are a Non-goal).
func Sitemap(ctx context.Context, req Request) (Outcome, error) {
	siteRoot := resolvePath(req.BaseDir, stringOpt(req.Raw, "siteRoot"))
	output := resolvePath(req.BaseDir, stringOpt(req.Raw, "output"))
	baseURL := stringOpt(req.Raw, "baseUrl")
	if siteRoot == "" || output == "" {
		return Outcome{}, fmt.Errorf("sitemap: siteRoot and output are required")
	}

	var urls []urlEntry
	err := filepath.WalkDir(siteRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		rel, relErr := filepath.Rel(siteRoot, path)
		if relErr != nil {
			return nil
		}
		loc := "/" + filepath.ToSlash(rel)
		if baseURL != "" {
			loc = strings.TrimRight(baseURL, "/") + loc
		}
		urls = append(urls, urlEntry{Loc: loc})
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("sitemap: %w", err)
	}

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9", URLs: urls}
	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return Outcome{}, fmt.Errorf("sitemap: %w", err)
	}
	data = append([]byte(xml.Header), data...)

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Outcome{}, fmt.Errorf("sitemap: %w", err)
	}

	var outputs []string
	mainPath := output
	if err := os.WriteFile(mainPath, data, 0o644); err != nil {
		return Outcome{}, fmt.Errorf("sitemap: %w", err)
	}
	outputs = append(outputs, mainPath)

	for _, variant := range stringSliceOpt(req.Raw, "variants") {
		variantPath := filepath.Join(filepath.Dir(output), fmt.Sprintf("sitemap-%s.xml", variant))
		if err := os.WriteFile(variantPath, data, 0o644); err != nil {
			return Outcome{}, fmt.Errorf("sitemap: %w", err)
		}
		outputs = append(outputs, variantPath)
	}

	return Outcome{
		Success: true,
		Outputs: outputs,
		Details: map[string]any{"urlCount": len(urls)},
	}, nil
}
