package main

import (
	"fmt"

	"powerforge/internal/pipeline"
)

// ValidateCmd loads and resolves a pipeline document (extends, step ids,
// dependency graph) without executing any step.
type ValidateCmd struct {
	Pipeline string `arg:"" help:"Path to the pipeline document" default:"pipeline.json"`
}

func (v *ValidateCmd) Run(root *CLI) error {
	doc, err := pipeline.Load(v.Pipeline)
	if err != nil {
		return err
	}
	defs, err := pipeline.BuildStepDefinitions(doc.Steps)
	if err != nil {
		return err
	}
	fmt.Printf("pipeline valid: %d step(s)\n", len(defs))
	return nil
}
