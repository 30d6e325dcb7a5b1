package tasks

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// DotnetBuild shells out to `dotnet build` for `project`. Reimplementing the
// .NET toolchain is a Non-goal; this collaborator only builds and runs the
// exec.Cmd and reports its outcome.
func DotnetBuild(ctx context.Context, req Request) (Outcome, error) {
	project := resolvePath(req.BaseDir, stringOpt(req.Raw, "project"))
	if project == "" {
		return Outcome{}, fmt.Errorf("dotnet-build: project is required")
	}
	args := []string{"build", project}
	if cfg := stringOpt(req.Raw, "configuration"); cfg != "" {
		args = append(args, "--configuration", cfg)
	}
	return runDotnet(ctx, args)
}

// DotnetPublish shells out to `dotnet publish` for `project`, placing output
// at `output`.
func DotnetPublish(ctx context.Context, req Request) (Outcome, error) {
	project := resolvePath(req.BaseDir, stringOpt(req.Raw, "project"))
	output := resolvePath(req.BaseDir, stringOpt(req.Raw, "output"))
	if project == "" {
		return Outcome{}, fmt.Errorf("dotnet-publish: project is required")
	}
	args := []string{"publish", project}
	if output != "" {
		args = append(args, "--output", output)
	}
	if cfg := stringOpt(req.Raw, "configuration"); cfg != "" {
		args = append(args, "--configuration", cfg)
	}
	out, err := runDotnet(ctx, args)
	if err == nil && output != "" {
		out.Outputs = []string{output}
	}
	return out, err
}

func runDotnet(ctx context.Context, args []string) (Outcome, error) {
	cmd := exec.CommandContext(ctx, "dotnet", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Outcome{}, fmt.Errorf("dotnet %v: %w: %s", args, err, stderr.String())
	}

	return Outcome{
		Success: true,
		Details: map[string]any{"stdout": stdout.String()},
	}, nil
}
