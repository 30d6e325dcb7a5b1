package tasks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Optimize computes a content-hash manifest over `siteRoot` and emits a
// `_headers` cache-control file keyed by that manifest. Minification itself
// is a Non-goal: files are hashed and listed, not transformed.
func Optimize(ctx context.Context, req Request) (Outcome, error) {
	source := resolvePath(req.BaseDir, stringOpt(req.Raw, "siteRoot"))
	if source == "" {
		return Outcome{}, fmt.Errorf("optimize: siteRoot is required")
	}

	manifest := map[string]string{}
	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return openErr
		}
		defer f.Close()

		h := sha256.New()
		if _, copyErr := io.Copy(h, f); copyErr != nil {
			return copyErr
		}
		rel, relErr := filepath.Rel(source, path)
		if relErr != nil {
			rel = path
		}
		manifest[filepath.ToSlash(rel)] = hex.EncodeToString(h.Sum(nil))[:16]
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("optimize: %w", err)
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Outcome{}, fmt.Errorf("optimize: %w", err)
	}
	manifestPath := filepath.Join(source, "manifest.json")
	if err := os.WriteFile(manifestPath, manifestData, 0o644); err != nil {
		return Outcome{}, fmt.Errorf("optimize: %w", err)
	}

	var paths []string
	for p := range manifest {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var headers strings.Builder
	for _, p := range paths {
		if p == "manifest.json" {
			continue
		}
		fmt.Fprintf(&headers, "/%s\n  Cache-Control: public, max-age=31536000, immutable\n  ETag: %q\n\n", p, manifest[p])
	}
	headersPath := filepath.Join(source, "_headers")
	if err := os.WriteFile(headersPath, []byte(headers.String()), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("optimize: %w", err)
	}

	return Outcome{
		Success: true,
		Outputs: []string{manifestPath, headersPath},
		Details: map[string]any{"fileCount": len(manifest)},
	}, nil
}
