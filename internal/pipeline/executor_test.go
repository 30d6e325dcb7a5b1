package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"powerforge/internal/tasks"
	"powerforge/internal/util/sets"
)

func okFunc(outputs []string, details map[string]any) tasks.Func {
	return func(ctx context.Context, req tasks.Request) (tasks.Outcome, error) {
		return tasks.Outcome{Success: true, Outputs: outputs, Details: details}, nil
	}
}

func failFunc(msg string) tasks.Func {
	return func(ctx context.Context, req tasks.Request) (tasks.Outcome, error) {
		return tasks.Outcome{}, errString(msg)
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func newTestDefs(t *testing.T, steps []Step) []StepDefinition {
	t.Helper()
	defs, err := BuildStepDefinitions(steps)
	if err != nil {
		t.Fatalf("BuildStepDefinitions failed: %v", err)
	}
	return defs
}

func TestExecutorRunsStepsInOrder(t *testing.T) {
	registry := tasks.Registry{
		"build":  okFunc(nil, nil),
		"verify": okFunc(nil, nil),
	}
	defs := newTestDefs(t, []Step{
		step("build", nil),
		step("verify", map[string]any{"dependsOn": "1"}),
	})
	exec := NewExecutor(registry, Options{})
	result, err := exec.Run(context.Background(), defs, &CacheState{Entries: map[string]CacheEntry{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || len(result.Steps) != 2 {
		t.Fatalf("expected successful 2-step run, got %+v", result)
	}
}

func TestExecutorStopsOnDependencyFailure(t *testing.T) {
	registry := tasks.Registry{
		"build":  failFunc("boom"),
		"verify": okFunc(nil, nil),
	}
	defs := newTestDefs(t, []Step{
		step("build", nil),
		step("verify", map[string]any{"dependsOn": "1"}),
	})
	exec := NewExecutor(registry, Options{})
	result, err := exec.Run(context.Background(), defs, &CacheState{Entries: map[string]CacheEntry{}})
	if err != nil {
		t.Fatalf("unexpected gate error: %v", err)
	}
	if result.Success {
		t.Fatal("expected run to fail")
	}
	if len(result.Steps) != 1 {
		t.Fatalf("expected executor to stop after the failing step, got %d steps", len(result.Steps))
	}
}

func TestExecutorSkipsBlocklistedTask(t *testing.T) {
	registry := tasks.Registry{"build": failFunc("should never run")}
	defs := newTestDefs(t, []Step{step("build", nil)})
	exec := NewExecutor(registry, Options{Blocklist: sets.New("build")})
	result, err := exec.Run(context.Background(), defs, &CacheState{Entries: map[string]CacheEntry{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || !result.Steps[0].Skipped {
		t.Fatalf("expected blocklisted step to be skipped successfully, got %+v", result.Steps[0])
	}
}

func TestExecutorOnlyFilterSkipsOthers(t *testing.T) {
	registry := tasks.Registry{
		"build":  okFunc(nil, nil),
		"verify": failFunc("should be skipped"),
	}
	defs := newTestDefs(t, []Step{step("build", nil), step("verify", nil)})
	exec := NewExecutor(registry, Options{Only: sets.New("build")})
	result, err := exec.Run(context.Background(), defs, &CacheState{Entries: map[string]CacheEntry{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Steps[1].Skipped != true || result.Steps[1].SkipReason != "not in --only set" {
		t.Fatalf("expected verify step skipped by --only, got %+v", result.Steps[1])
	}
}

func TestExecutorModeMismatchSkips(t *testing.T) {
	registry := tasks.Registry{"build": failFunc("should be skipped")}
	defs := newTestDefs(t, []Step{step("build", map[string]any{"mode": "prod"})})
	exec := NewExecutor(registry, Options{RunMode: "dev"})
	result, err := exec.Run(context.Background(), defs, &CacheState{Entries: map[string]CacheEntry{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Steps[0].Skipped || result.Steps[0].SkipReason != "mode mismatch" {
		t.Fatalf("expected step skipped for mode mismatch, got %+v", result.Steps[0])
	}
}

func TestExecutorCacheHitAvoidsRerun(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.html")
	if err := os.WriteFile(out, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	calls := 0
	registry := tasks.Registry{"build": func(ctx context.Context, req tasks.Request) (tasks.Outcome, error) {
		calls++
		return tasks.Outcome{Success: true, Outputs: []string{out}}, nil
	}}
	steps := []Step{{Raw: map[string]any{"task": "build"}, BaseDir: dir}}
	defs := newTestDefs(t, steps)

	cache := &CacheState{Entries: map[string]CacheEntry{}}
	exec := NewExecutor(registry, Options{CacheOn: true})

	if _, err := exec.Run(context.Background(), defs, cache); err != nil {
		t.Fatalf("first run error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected first run to invoke the task once, got %d", calls)
	}

	result, err := exec.Run(context.Background(), defs, cache)
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected cache hit to avoid a second invocation, got %d calls", calls)
	}
	if !result.Steps[0].CacheHit {
		t.Fatalf("expected cache hit on second run, got %+v", result.Steps[0])
	}
}

func TestExecutorNonCacheableTaskAlwaysReruns(t *testing.T) {
	calls := 0
	registry := tasks.Registry{"exec": func(ctx context.Context, req tasks.Request) (tasks.Outcome, error) {
		calls++
		return tasks.Outcome{Success: true}, nil
	}}
	defs := newTestDefs(t, []Step{step("exec", nil)})
	cache := &CacheState{Entries: map[string]CacheEntry{}}
	exec := NewExecutor(registry, Options{CacheOn: true})

	for i := 0; i < 2; i++ {
		if _, err := exec.Run(context.Background(), defs, cache); err != nil {
			t.Fatalf("run %d error: %v", i, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected exec task to run every time, got %d calls", calls)
	}
}

func TestExecutorGateTripsOnErrorCount(t *testing.T) {
	registry := tasks.Registry{"audit": okFunc(nil, map[string]any{"errorCount": 5, "warningCount": 0})}
	defs := newTestDefs(t, []Step{step("audit", nil)})
	exec := NewExecutor(registry, Options{Policy: AuditPolicy{MaxErrors: 1}})
	result, err := exec.Run(context.Background(), defs, &CacheState{Entries: map[string]CacheEntry{}})
	if err == nil {
		t.Fatal("expected gate trip error")
	}
	if result.Success {
		t.Fatal("expected run to be marked unsuccessful")
	}
}

func TestExecutorGateTripsOnWarningsWhenConfigured(t *testing.T) {
	registry := tasks.Registry{"verify": okFunc(nil, map[string]any{"errorCount": 0, "warningCount": 3})}
	defs := newTestDefs(t, []Step{step("verify", nil)})
	exec := NewExecutor(registry, Options{Policy: AuditPolicy{FailOnWarnings: true}})
	_, err := exec.Run(context.Background(), defs, &CacheState{Entries: map[string]CacheEntry{}})
	if err == nil {
		t.Fatal("expected gate trip error for warnings")
	}
}

func TestExecutorContextCancellationAbortsRun(t *testing.T) {
	registry := tasks.Registry{"build": okFunc(nil, nil)}
	defs := newTestDefs(t, []Step{step("build", nil), step("build", nil)})
	exec := NewExecutor(registry, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := exec.Run(ctx, defs, &CacheState{Entries: map[string]CacheEntry{}})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if result.Success {
		t.Fatal("expected unsuccessful result on cancellation")
	}
}

func TestModeMatches(t *testing.T) {
	cases := []struct {
		stepMode, runMode string
		want              bool
	}{
		{"", "prod", true},
		{"prod", "prod", true},
		{"Prod", "prod", true},
		{"prod", "dev", false},
	}
	for _, tc := range cases {
		if got := modeMatches(tc.stepMode, tc.runMode); got != tc.want {
			t.Errorf("modeMatches(%q, %q) = %v, want %v", tc.stepMode, tc.runMode, got, tc.want)
		}
	}
}

func TestBuildAuditFailureSummaryMentionsCounts(t *testing.T) {
	msg := BuildAuditFailureSummary("audit-1", 3, 2)
	if msg == "" {
		t.Fatal("expected a non-empty summary")
	}
	if !strings.Contains(msg, "3 error(s)") || !strings.Contains(msg, "2 warning(s)") {
		t.Fatalf("expected summary to mention both counts, got %q", msg)
	}
}
