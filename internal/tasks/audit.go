package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"powerforge/internal/auditstore"
)

type baselineDocument struct {
	Issues []baselineIssue `json:"issues"`
}

type baselineIssue struct {
	Path     string `json:"path"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Audit checks the HTML pages under `siteRoot` for broken local links
// (href/src references that resolve to no file), comparing against a
// baseline file to report only new issues. Orphaned assets and navigation
// are not checked.
// When `historyDb` is set, every finding is additionally appended to an
// auditstore.Store for durable history.
func Audit(ctx context.Context, req Request) (Outcome, error) {
	source := resolvePath(req.BaseDir, stringOpt(req.Raw, "siteRoot"))
	if source == "" {
		return Outcome{}, fmt.Errorf("audit: siteRoot is required")
	}
	baselinePath := resolvePath(req.BaseDir, stringOpt(req.Raw, "baseline"))
	mode := stringOpt(req.Raw, "baselineMode")

	found, err := findAuditIssues(source)
	if err != nil {
		return Outcome{}, fmt.Errorf("audit: %w", err)
	}

	var baseline baselineDocument
	if baselinePath != "" {
		if data, rerr := os.ReadFile(baselinePath); rerr == nil {
			_ = json.Unmarshal(data, &baseline)
		}
	}
	known := map[string]bool{}
	for _, b := range baseline.Issues {
		known[b.Path+"|"+b.Message] = true
	}

	var newIssues []baselineIssue
	for _, f := range found {
		if !known[f.Path+"|"+f.Message] {
			newIssues = append(newIssues, f)
		}
	}

	if baselinePath != "" && (mode == "update" || mode == "generate") {
		doc := baselineDocument{Issues: found}
		data, merr := json.MarshalIndent(doc, "", "  ")
		if merr != nil {
			return Outcome{}, fmt.Errorf("audit: %w", merr)
		}
		if err := os.MkdirAll(filepath.Dir(baselinePath), 0o755); err != nil {
			return Outcome{}, fmt.Errorf("audit: %w", err)
		}
		if err := os.WriteFile(baselinePath, data, 0o644); err != nil {
			return Outcome{}, fmt.Errorf("audit: %w", err)
		}
	}

	if dbPath := stringOpt(req.Raw, "historyDb"); dbPath != "" {
		if store, serr := auditstore.Open(resolvePath(req.BaseDir, dbPath)); serr == nil {
			defer store.Close()
			runID := fmt.Sprintf("%s-%d", req.StepID, time.Now().Unix())
			for _, issue := range found {
				_ = store.Record(ctx, auditstore.Issue{
					RunID: runID, StepID: req.StepID, Severity: issue.Severity, Message: issue.Message, Path: issue.Path,
				})
			}
		}
	}

	errorCount, warningCount := 0, 0
	for _, i := range newIssues {
		if i.Severity == "error" {
			errorCount++
		} else {
			warningCount++
		}
	}

	return Outcome{
		Success: true,
		Outputs: outputsIf(baselinePath),
		Details: map[string]any{
			"issueCount":    len(found),
			"newIssueCount": len(newIssues),
			"errorCount":    errorCount,
			"warningCount":  warningCount,
		},
	}, nil
}

func outputsIf(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}

func findAuditIssues(source string) ([]baselineIssue, error) {
	var issues []baselineIssue
	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		f, oerr := os.Open(path)
		if oerr != nil {
			return oerr
		}
		links, perr := extractHTMLLinks(f)
		f.Close()
		if perr != nil {
			return fmt.Errorf("parse %s: %w", path, perr)
		}
		for _, link := range links {
			if isExternalLink(link.URL) {
				continue
			}
			target := resolveLink(path, link.URL)
			if _, serr := os.Stat(target); serr != nil {
				issues = append(issues, baselineIssue{Path: path, Severity: "error", Message: "broken " + link.Tag + " link: " + link.URL})
			}
		}
		return nil
	})
	return issues, err
}
