package pipeline

import (
	"fmt"
	"strings"
)

// VisualizationFormat selects the rendering produced by Visualize.
type VisualizationFormat string

const (
	FormatText    VisualizationFormat = "text"
	FormatMermaid VisualizationFormat = "mermaid"
	FormatDOT     VisualizationFormat = "dot"
)

// Visualize renders a resolved DAG in the requested format.
func Visualize(defs []StepDefinition, format VisualizationFormat) (string, error) {
	switch format {
	case FormatText, "":
		return visualizeText(defs), nil
	case FormatMermaid:
		return visualizeMermaid(defs), nil
	case FormatDOT:
		return visualizeDOT(defs), nil
	default:
		return "", fmt.Errorf("unsupported visualization format: %s", format)
	}
}

func nodeLabel(def StepDefinition) string {
	return fmt.Sprintf("%s[%s]", def.ID, def.Task)
}

func sanitizeNode(id string) string {
	r := strings.NewReplacer("-", "_", ".", "_", "/", "_", " ", "_")
	return r.Replace(id)
}

func visualizeText(defs []StepDefinition) string {
	byIndex := map[int]StepDefinition{}
	for _, d := range defs {
		byIndex[d.Index] = d
	}

	var sb strings.Builder
	sb.WriteString("Pipeline DAG\n")
	sb.WriteString("============\n\n")
	for _, def := range defs {
		prefix := "├──"
		sb.WriteString(fmt.Sprintf("%s step %d: %s\n", prefix, def.Index, nodeLabel(def)))
		if len(def.DependencyIndexes) > 0 {
			var names []string
			for _, di := range def.DependencyIndexes {
				names = append(names, nodeLabel(byIndex[di]))
			}
			sb.WriteString(fmt.Sprintf("│     depends on: %s\n", strings.Join(names, ", ")))
		}
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %d steps\n", len(defs)))
	return sb.String()
}

func visualizeMermaid(defs []StepDefinition) string {
	byIndex := map[int]StepDefinition{}
	for _, d := range defs {
		byIndex[d.Index] = d
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\ngraph TD\n")
	for _, def := range defs {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", sanitizeNode(def.ID), nodeLabel(def)))
	}
	for _, def := range defs {
		for _, di := range def.DependencyIndexes {
			dep := byIndex[di]
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeNode(dep.ID), sanitizeNode(def.ID)))
		}
	}
	sb.WriteString("```\n")
	return sb.String()
}

func visualizeDOT(defs []StepDefinition) string {
	byIndex := map[int]StepDefinition{}
	for _, d := range defs {
		byIndex[d.Index] = d
	}

	var sb strings.Builder
	sb.WriteString("digraph Pipeline {\n    rankdir=TB;\n    node [shape=box, style=rounded];\n\n")
	for _, def := range defs {
		sb.WriteString(fmt.Sprintf("    %q;\n", nodeLabel(def)))
	}
	sb.WriteString("\n")
	for _, def := range defs {
		for _, di := range def.DependencyIndexes {
			dep := byIndex[di]
			sb.WriteString(fmt.Sprintf("    %q -> %q;\n", nodeLabel(dep), nodeLabel(def)))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
