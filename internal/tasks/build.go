package tasks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
)

// Build copies the tree at the `config` option to `out` byte-for-byte.
// Every Markdown file is also rendered through goldmark and the rendered
// HTML discarded; goldmark accepts any text, so this does not reject
// malformed Markdown, and the file written to `out` is the unrendered
// source. When `clean` is set, `out` is removed before the copy.
func Build(ctx context.Context, req Request) (Outcome, error) {
	source := resolvePath(req.BaseDir, stringOpt(req.Raw, "config"))
	output := resolvePath(req.BaseDir, stringOpt(req.Raw, "out"))
	if source == "" || output == "" {
		return Outcome{}, fmt.Errorf("build: config and out are required")
	}
	if boolOpt(req.Raw, "clean", false) {
		if err := os.RemoveAll(output); err != nil {
			return Outcome{}, fmt.Errorf("build: clean %s: %w", output, err)
		}
	}

	updated := 0
	var outputs []string
	md := goldmark.New()

	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(output, rel)
		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			var buf bytes.Buffer
			if err := md.Convert(data, &buf); err != nil {
				return fmt.Errorf("build: render %s: %w", rel, err)
			}
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
		updated++
		outputs = append(outputs, dest)
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("build: %w", err)
	}

	req.Logger.Info("build complete", slog.Int("updatedCount", updated))
	return Outcome{
		Success: true,
		Outputs: outputs,
		Details: map[string]any{"updatedCount": updated},
	}, nil
}

// copyFile copies a single regular file, preserving mode bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
