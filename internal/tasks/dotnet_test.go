package tasks

import (
	"context"
	"testing"
)

func TestDotnetBuildRequiresProject(t *testing.T) {
	if _, err := DotnetBuild(context.Background(), Request{Raw: map[string]any{}, BaseDir: t.TempDir()}); err == nil {
		t.Fatal("expected an error when project is missing")
	}
}

func TestDotnetPublishRequiresProject(t *testing.T) {
	if _, err := DotnetPublish(context.Background(), Request{Raw: map[string]any{}, BaseDir: t.TempDir()}); err == nil {
		t.Fatal("expected an error when project is missing")
	}
}
