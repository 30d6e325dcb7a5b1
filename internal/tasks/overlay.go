package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Overlay recursively copies `source` onto `destination`, for layering
// static assets (favicons, redirect files, manual pages) over a generated
// site tree after `build` runs.
func Overlay(ctx context.Context, req Request) (Outcome, error) {
	source := resolvePath(req.BaseDir, stringOpt(req.Raw, "source"))
	destination := resolvePath(req.BaseDir, stringOpt(req.Raw, "destination"))
	if source == "" || destination == "" {
		return Outcome{}, fmt.Errorf("overlay: source and destination are required")
	}

	var outputs []string
	count := 0
	if err := overlayDir(source, destination, &outputs, &count); err != nil {
		return Outcome{}, fmt.Errorf("overlay: %w", err)
	}

	return Outcome{
		Success: true,
		Outputs: outputs,
		Details: map[string]any{"copiedCount": count},
	}, nil
}

func overlayDir(src, dst string, outputs *[]string, count *int) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := overlayDir(srcPath, dstPath, outputs, count); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(srcPath, dstPath); err != nil {
			return err
		}
		*outputs = append(*outputs, dstPath)
		*count++
	}
	return nil
}
