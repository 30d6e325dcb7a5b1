package tasks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"powerforge/internal/observability"
	"powerforge/internal/retry"
)

// Cloudflare is an interface stub for purge/deploy calls against the
// Cloudflare API. Cloud-provider integration is an explicit Non-goal; this
// reports success with a descriptive message so the orchestrator's dispatch
// and non-cacheable semantics are still exercised.
func Cloudflare(ctx context.Context, req Request) (Outcome, error) {
	zone := stringOpt(req.Raw, "zone")
	return Outcome{
		Success: true,
		Details: map[string]any{"note": fmt.Sprintf("cloudflare call stubbed for zone %q", zone)},
	}, nil
}

// IndexNow is an interface stub for submitting URLs to IndexNow-participating
// search engines.
func IndexNow(ctx context.Context, req Request) (Outcome, error) {
	urls := stringSliceOpt(req.Raw, "urls")
	return Outcome{
		Success: true,
		Details: map[string]any{"note": "indexnow submission stubbed", "urlCount": len(urls)},
	}, nil
}

// Exec runs a configured shell command via os/exec and reports its output.
// It retries on failure per the step's retries/retryMode/retryInitialMS/
// retryMaxMS fields.
func Exec(ctx context.Context, req Request) (Outcome, error) {
	command := stringOpt(req.Raw, "command")
	if command == "" {
		return Outcome{}, fmt.Errorf("exec: command is required")
	}
	args := stringSliceOpt(req.Raw, "args")
	return runCommandWithRetry(ctx, req, command, args)
}

// Hook runs a configured shell command, the same as Exec, under the `hook`
// task name used for pre/post lifecycle integrations.
func Hook(ctx context.Context, req Request) (Outcome, error) {
	command := stringOpt(req.Raw, "command")
	if command == "" {
		return Outcome{}, fmt.Errorf("hook: command is required")
	}
	args := stringSliceOpt(req.Raw, "args")
	return runCommandWithRetry(ctx, req, command, args)
}

func runCommandWithRetry(ctx context.Context, req Request, command string, args []string) (Outcome, error) {
	policy := retry.NewPolicy(
		retry.BackoffMode(stringOpt(req.Raw, "retryMode")),
		time.Duration(intOpt(req.Raw, "retryInitialMS", 0))*time.Millisecond,
		time.Duration(intOpt(req.Raw, "retryMaxMS", 0))*time.Millisecond,
		intOpt(req.Raw, "retries", 0),
	)

	var outcome Outcome
	var err error
	for attempt := 0; ; attempt++ {
		outcome, err = runCommand(ctx, req.BaseDir, command, args)
		if err == nil || attempt >= policy.MaxRetries {
			return outcome, err
		}
		delay := policy.Delay(attempt + 1)
		observability.WarnContext(ctx, "command failed, retrying",
			slog.String("command", command), slog.Int("attempt", attempt+1), slog.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func runCommand(ctx context.Context, dir, command string, args []string) (Outcome, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Outcome{}, fmt.Errorf("command %q: %w: %s", command, err, stderr.String())
	}
	return Outcome{
		Success: true,
		Details: map[string]any{"stdout": stdout.String()},
	}, nil
}

// HTMLTransform is an interface stub for arbitrary user-supplied HTML
// post-processing (e.g. an external transform plugin). Specific transform
// algorithms are a Non-goal.
func HTMLTransform(ctx context.Context, req Request) (Outcome, error) {
	return Outcome{
		Success: true,
		Details: map[string]any{"note": "html-transform stubbed; no transform plugin wired"},
	}, nil
}

// DataTransform is an interface stub for structured-data (JSON/YAML/CSV)
// post-processing.
func DataTransform(ctx context.Context, req Request) (Outcome, error) {
	return Outcome{
		Success: true,
		Details: map[string]any{"note": "data-transform stubbed; no transform plugin wired"},
	}, nil
}
