package tasks

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Verify walks the site rendered from `config` looking for broken relative
// links in HTML output, reporting a warning for each one found. It never
// fails the step itself; the executor's audit/verify gate decides whether
// warnings trip the run.
func Verify(ctx context.Context, req Request) (Outcome, error) {
	source := resolvePath(req.BaseDir, stringOpt(req.Raw, "config"))
	if source == "" {
		return Outcome{}, fmt.Errorf("verify: config is required")
	}

	var warnings []string
	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		links, err := extractHTMLLinks(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		for _, link := range links {
			if isExternalLink(link.URL) {
				continue
			}
			target := resolveLink(path, link.URL)
			if _, err := os.Stat(target); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: broken %s link %q", path, link.Tag, link.URL))
			}
		}
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("verify: %w", err)
	}

	req.Logger.Info("verify complete", slog.Int("warningCount", len(warnings)))
	return Outcome{
		Success: true,
		Details: map[string]any{
			"warningCount": len(warnings),
			"errorCount":   0,
			"warnings":     warnings,
		},
	}, nil
}
