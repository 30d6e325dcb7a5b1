package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Changelog assembles a CHANGELOG from fragment files (`source:"file"`) or
// defers to an external forge API (`source:"github"`, a Non-goal interface
// stub: cloud-provider integration is out of scope for the orchestrator).
func Changelog(ctx context.Context, req Request) (Outcome, error) {
	source := stringOpt(req.Raw, "source")
	output := resolvePath(req.BaseDir, stringOpt(req.Raw, "output"))
	if output == "" {
		return Outcome{}, fmt.Errorf("changelog: output is required")
	}

	switch source {
	case "", "file":
		return changelogFromFiles(req, output)
	case "github":
		return Outcome{
			Success: true,
			Details: map[string]any{"note": "github changelog source is a stub; no network call performed"},
		}, nil
	default:
		return Outcome{}, fmt.Errorf("changelog: unknown source %q", source)
	}
}

func changelogFromFiles(req Request, output string) (Outcome, error) {
	dir := resolvePath(req.BaseDir, stringOpt(req.Raw, "fragments"))
	if dir == "" {
		dir = filepath.Dir(output)
	}

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return Outcome{}, fmt.Errorf("changelog: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("# Changelog\n\n")
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteString("\n")
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Outcome{}, fmt.Errorf("changelog: %w", err)
	}
	if err := os.WriteFile(output, []byte(sb.String()), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("changelog: %w", err)
	}

	return Outcome{
		Success: true,
		Outputs: []string{output},
		Details: map[string]any{"fragmentCount": len(names)},
	}, nil
}
