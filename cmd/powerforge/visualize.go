package main

import (
	"fmt"
	"os"

	"powerforge/internal/pipeline"
)

// VisualizeCmd renders the resolved step DAG to stdout or a file.
type VisualizeCmd struct {
	Pipeline string `arg:"" help:"Path to the pipeline document" default:"pipeline.json"`
	Format   string `short:"f" help:"Output format: text, mermaid, dot" default:"text" enum:"text,mermaid,dot"`
	Output   string `short:"o" help:"Write to this file instead of stdout"`
}

func (v *VisualizeCmd) Run(root *CLI) error {
	doc, err := pipeline.Load(v.Pipeline)
	if err != nil {
		return err
	}
	defs, err := pipeline.BuildStepDefinitions(doc.Steps)
	if err != nil {
		return err
	}

	rendered, err := pipeline.Visualize(defs, pipeline.VisualizationFormat(v.Format))
	if err != nil {
		return err
	}

	if v.Output == "" {
		fmt.Print(rendered)
		return nil
	}
	return os.WriteFile(v.Output, []byte(rendered), 0o644)
}
