package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var hostingTargets = []string{"netlify", "azure", "vercel", "apache", "nginx", "iis"}

// Hosting emits a per-target static hosting config file into `siteRoot`,
// one file per entry in `targets` ("all" or a csv/array subset of
// netlify, azure, vercel, apache, nginx, iis). The actual deployment/upload
// is a Non-goal; this only writes the config artifact each target platform
// expects. `dryRun` reports the selected targets without writing anything;
// `removeUnselected` deletes the artifact files of targets not selected;
// `strict` fails the step on an unknown target instead of skipping it.
func Hosting(ctx context.Context, req Request) (Outcome, error) {
	siteRoot := resolvePath(req.BaseDir, stringOpt(req.Raw, "siteRoot"))
	targets := csvOrSliceOpt(req.Raw, "targets")
	if siteRoot == "" || len(targets) == 0 {
		return Outcome{}, fmt.Errorf("hosting: siteRoot and targets are required")
	}
	strict := boolOpt(req.Raw, "strict", false)
	dryRun := boolOpt(req.Raw, "dryRun", false)
	removeUnselected := boolOpt(req.Raw, "removeUnselected", false)

	selected, err := resolveHostingTargets(targets, strict)
	if err != nil {
		return Outcome{}, fmt.Errorf("hosting: %w", err)
	}

	if !dryRun {
		if err := os.MkdirAll(siteRoot, 0o755); err != nil {
			return Outcome{}, fmt.Errorf("hosting: %w", err)
		}
	}

	var outputs []string
	for _, target := range selected {
		file, body, _ := hostingArtifact(target)
		path := filepath.Join(siteRoot, file)
		outputs = append(outputs, path)
		if dryRun {
			continue
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			return Outcome{}, fmt.Errorf("hosting: %w", err)
		}
	}

	if removeUnselected && !dryRun {
		for _, target := range hostingTargets {
			if slices.Contains(selected, target) {
				continue
			}
			file, _, _ := hostingArtifact(target)
			_ = os.Remove(filepath.Join(siteRoot, file))
		}
	}

	return Outcome{
		Success: true,
		Outputs: outputs,
		Details: map[string]any{"targets": selected},
	}, nil
}

// resolveHostingTargets expands "all" and validates each requested target
// against the supported set, skipping unknown ones unless strict is set.
func resolveHostingTargets(requested []string, strict bool) ([]string, error) {
	if len(requested) == 1 && strings.EqualFold(requested[0], "all") {
		out := make([]string, len(hostingTargets))
		copy(out, hostingTargets)
		return out, nil
	}
	var out []string
	for _, t := range requested {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !slices.Contains(hostingTargets, t) {
			if strict {
				return nil, fmt.Errorf("unknown target %q", t)
			}
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func hostingArtifact(target string) (file, body string, err error) {
	switch target {
	case "netlify":
		return "netlify.toml", "[build]\n  publish = \".\"\n\n[[redirects]]\n  from = \"/*\"\n  to = \"/404.html\"\n  status = 404\n", nil
	case "azure":
		return "staticwebapp.config.json", "{\n  \"navigationFallback\": {\n    \"rewrite\": \"/index.html\"\n  }\n}\n", nil
	case "vercel":
		return "vercel.json", "{\n  \"cleanUrls\": true,\n  \"trailingSlash\": false\n}\n", nil
	case "apache":
		return ".htaccess", "ErrorDocument 404 /404.html\n", nil
	case "iis":
		return "web.config", "<configuration>\n  <system.webServer>\n    <staticContent>\n      <clientCache cacheControlMode=\"UseMaxAge\" cacheControlMaxAge=\"365.00:00:00\" />\n    </staticContent>\n  </system.webServer>\n</configuration>\n", nil
	case "nginx":
		return "nginx.conf", "location / {\n  try_files $uri $uri/ =404;\n}\n", nil
	default:
		return "", "", fmt.Errorf("unknown target %q", target)
	}
}
