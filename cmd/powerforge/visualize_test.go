package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVisualizeCmdWritesToStdoutByDefault(t *testing.T) {
	dir := t.TempDir()
	path := writePipeline(t, dir, minimalPipelineJSON)
	cmd := &VisualizeCmd{Pipeline: path, Format: "text"}
	if err := cmd.Run(&CLI{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestVisualizeCmdWritesToOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writePipeline(t, dir, minimalPipelineJSON)
	out := filepath.Join(dir, "dag.dot")
	cmd := &VisualizeCmd{Pipeline: path, Format: "dot", Output: out}
	if err := cmd.Run(&CLI{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("expected output file to be written: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty dot output")
	}
}

func TestVisualizeCmdRejectsUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writePipeline(t, dir, minimalPipelineJSON)
	cmd := &VisualizeCmd{Pipeline: path, Format: "svg"}
	if err := cmd.Run(&CLI{}); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}
