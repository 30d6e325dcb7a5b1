package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LLMsTxt emits llms.txt/llms.json/llms-full.txt manifests summarizing
// siteRoot, per the emerging llms.txt convention for LLM-friendly site
// indexes.
func LLMsTxt(ctx context.Context, req Request) (Outcome, error) {
	siteRoot := resolvePath(req.BaseDir, stringOpt(req.Raw, "siteRoot"))
	output := resolvePath(req.BaseDir, stringOpt(req.Raw, "output"))
	if siteRoot == "" || output == "" {
		return Outcome{}, fmt.Errorf("llms: siteRoot and output are required")
	}

	var pages []string
	err := filepath.WalkDir(siteRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		rel, relErr := filepath.Rel(siteRoot, path)
		if relErr == nil {
			pages = append(pages, "/"+filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("llms: %w", err)
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("llms: %w", err)
	}

	var txt strings.Builder
	txt.WriteString("# Site contents\n\n")
	for _, p := range pages {
		txt.WriteString("- " + p + "\n")
	}
	txtPath := filepath.Join(output, "llms.txt")
	if err := os.WriteFile(txtPath, []byte(txt.String()), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("llms: %w", err)
	}

	fullPath := filepath.Join(output, "llms-full.txt")
	if err := os.WriteFile(fullPath, []byte(txt.String()), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("llms: %w", err)
	}

	jsonData, err := json.MarshalIndent(map[string]any{"pages": pages}, "", "  ")
	if err != nil {
		return Outcome{}, fmt.Errorf("llms: %w", err)
	}
	jsonPath := filepath.Join(output, "llms.json")
	if err := os.WriteFile(jsonPath, jsonData, 0o644); err != nil {
		return Outcome{}, fmt.Errorf("llms: %w", err)
	}

	return Outcome{
		Success: true,
		Outputs: []string{txtPath, fullPath, jsonPath},
		Details: map[string]any{"pageCount": len(pages)},
	}, nil
}
