package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// apiDocsBatch is one entry of `inputs[]`: a per-language doc-generation
// batch with its own output location.
type apiDocsBatch struct {
	Type     string
	XML      string
	HelpPath string
	Out      string
}

// APIDocs writes a placeholder index for `out`, plus one placeholder page
// per batch entry in `inputs[]` at its own `out` path. Real API
// documentation generation (schema parsing, language-specific doc
// generators) is out of scope for the orchestrator; this collaborator only
// exercises the dispatch/options/output contract.
func APIDocs(ctx context.Context, req Request) (Outcome, error) {
	output := resolvePath(req.BaseDir, stringOpt(req.Raw, "out"))
	if output == "" {
		return Outcome{}, fmt.Errorf("apidocs: out is required")
	}
	batches := apiDocsBatches(req.Raw)

	if err := os.MkdirAll(output, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("apidocs: %w", err)
	}

	var outputs []string
	indexPath := filepath.Join(output, "index.html")
	body := "<!doctype html><html><body><h1>API Documentation</h1><ul>"
	for _, b := range batches {
		label := b.Type
		if label == "" {
			label = b.XML + b.HelpPath
		}
		body += fmt.Sprintf("<li>%s</li>", label)
	}
	body += "</ul></body></html>"
	if err := os.WriteFile(indexPath, []byte(body), 0o644); err != nil {
		return Outcome{}, fmt.Errorf("apidocs: %w", err)
	}
	outputs = append(outputs, indexPath)

	for _, b := range batches {
		if b.Out == "" {
			continue
		}
		batchOut := resolvePath(req.BaseDir, b.Out)
		if err := os.MkdirAll(filepath.Dir(batchOut), 0o755); err != nil {
			return Outcome{}, fmt.Errorf("apidocs: %w", err)
		}
		page := fmt.Sprintf("<!doctype html><html><body><h1>%s API Documentation</h1></body></html>", b.Type)
		if err := os.WriteFile(batchOut, []byte(page), 0o644); err != nil {
			return Outcome{}, fmt.Errorf("apidocs: %w", err)
		}
		outputs = append(outputs, batchOut)
	}

	return Outcome{
		Success: true,
		Outputs: outputs,
		Details: map[string]any{"batchCount": len(batches)},
	}, nil
}

// apiDocsBatches parses the `inputs` option as a list of per-batch objects.
func apiDocsBatches(raw map[string]any) []apiDocsBatch {
	items, ok := raw["inputs"].([]any)
	if !ok {
		return nil
	}
	var out []apiDocsBatch
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, apiDocsBatch{
			Type:     stringOpt(entry, "type"),
			XML:      stringOpt(entry, "xml"),
			HelpPath: stringOpt(entry, "helpPath"),
			Out:      stringOpt(entry, "out"),
		})
	}
	return out
}
