// Package markdownfix implements a small goldmark-based Markdown lint/fix
// pass: it parses every matched file and reports parse-level issues and
// trivial fixable problems (trailing whitespace, missing final newline)
// without reformatting prose.
package markdownfix

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// Issue is one lint finding for a single file.
type Issue struct {
	Path    string
	Line    int
	Message string
}

// Result summarizes a Fix run over a set of files.
type Result struct {
	FilesChecked int
	FilesFixed   int
	Issues       []Issue
}

// Fix walks root, processing files whose relative path matches any include
// glob (or all *.md files if includes is empty) and none of the exclude
// globs. When fix is true, trailing whitespace is stripped and a trailing
// newline is ensured; otherwise files are only linted.
func Fix(root string, includes, excludes []string, fix bool) (Result, error) {
	var result Result
	md := goldmark.New()

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if !matchesAny(rel, includes, true) || matchesAny(rel, excludes, false) {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		result.FilesChecked++

		reader := text.NewReader(data)
		doc := md.Parser().Parse(reader)
		if doc == nil {
			result.Issues = append(result.Issues, Issue{Path: path, Message: "failed to parse document"})
			return nil
		}

		fixed, changed := stripTrailingWhitespace(data)
		if changed {
			for i, line := range bytes.Split(data, []byte("\n")) {
				if len(line) > 0 && (line[len(line)-1] == ' ' || line[len(line)-1] == '\t') {
					result.Issues = append(result.Issues, Issue{Path: path, Line: i + 1, Message: "trailing whitespace"})
				}
			}
			if len(data) == 0 || data[len(data)-1] != '\n' {
				result.Issues = append(result.Issues, Issue{Path: path, Line: bytes.Count(data, []byte("\n")) + 1, Message: "missing final newline"})
			}
			if fix {
				if writeErr := os.WriteFile(path, fixed, info.Mode()); writeErr != nil {
					return writeErr
				}
				result.FilesFixed++
			}
		}
		return nil
	})
	return result, err
}

func stripTrailingWhitespace(data []byte) ([]byte, bool) {
	lines := bytes.Split(data, []byte("\n"))
	changed := false
	for i, line := range lines {
		trimmed := bytes.TrimRight(line, " \t")
		if len(trimmed) != len(line) {
			changed = true
		}
		lines[i] = trimmed
	}
	out := bytes.Join(lines, []byte("\n"))
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
		changed = true
	}
	return out, changed
}

func matchesAny(rel string, patterns []string, emptyDefault bool) bool {
	if len(patterns) == 0 {
		return emptyDefault
	}
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, filepath.Base(rel)); ok {
			return true
		}
	}
	return false
}
