package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"powerforge/internal/tasks/markdownfix"
)

// MarkdownFix lints (and optionally fixes) Markdown files under `path`.
func MarkdownFix(ctx context.Context, req Request) (Outcome, error) {
	path := resolvePath(req.BaseDir, stringOpt(req.Raw, "path"))
	if path == "" {
		return Outcome{}, fmt.Errorf("markdown-fix: path is required")
	}

	result, err := markdownfix.Fix(path, stringSliceOpt(req.Raw, "include"), stringSliceOpt(req.Raw, "exclude"), boolOpt(req.Raw, "fix", false))
	if err != nil {
		return Outcome{}, fmt.Errorf("markdown-fix: %w", err)
	}

	req.Logger.Info("markdown-fix complete",
		slog.Int("filesChecked", result.FilesChecked),
		slog.Int("filesFixed", result.FilesFixed),
		slog.Int("issueCount", len(result.Issues)))

	return Outcome{
		Success: true,
		Details: map[string]any{
			"filesChecked": result.FilesChecked,
			"filesFixed":   result.FilesFixed,
			"issueCount":   len(result.Issues),
			"warningCount": len(result.Issues),
			"errorCount":   0,
		},
	}, nil
}
