package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"powerforge/internal/observability"
	"powerforge/internal/pferrors"
	"powerforge/internal/tasks"
	"powerforge/internal/util/sets"
)

// nonCacheableTasks are side-effecting task kinds that always re-run,
// regardless of fingerprint match or cache state (spec §6).
var nonCacheableTasks = map[string]bool{
	"cloudflare":     true,
	"indexnow":       true,
	"exec":           true,
	"hook":           true,
	"html-transform": true,
	"data-transform": true,
	"git-sync":       true,
}

// AuditPolicy configures the audit/verify gate evaluated after each matching
// step completes.
type AuditPolicy struct {
	FailOnWarnings bool
	MaxErrors      int
}

// Options configures one Executor run.
type Options struct {
	FastMode  bool
	CacheOn   bool
	Blocklist sets.Set[string]
	Only      sets.Set[string]
	Skip      sets.Set[string]
	RunMode   string
	Policy    AuditPolicy
	Logger    *slog.Logger
	Recorder  Recorder
	Publisher Publisher
}

// Recorder observes executor-internal events for metrics reporting. See
// internal/metrics for the Prometheus-backed implementation; NoopRecorder
// below is the zero-dependency default.
type Recorder interface {
	StepStarted(task string)
	StepFinished(task string, cacheHit, success bool, duration time.Duration)
	GateTripped(kind string)
}

// Publisher emits a StepResult somewhere external (see
// internal/pipeline/events.go for the NATS-backed implementation).
type Publisher interface {
	Publish(result StepResult)
}

// NoopRecorder discards every event. It is always safe to call on a nil
// *NoopRecorder.
type NoopRecorder struct{}

func (*NoopRecorder) StepStarted(string)                            {}
func (*NoopRecorder) StepFinished(string, bool, bool, time.Duration) {}
func (*NoopRecorder) GateTripped(string)                             {}

// Executor runs a resolved DAG of steps against a task registry.
type Executor struct {
	registry tasks.Registry
	opts     Options
}

// NewExecutor builds an Executor. A nil registry defaults to tasks.Default().
func NewExecutor(registry tasks.Registry, opts Options) *Executor {
	if registry == nil {
		registry = tasks.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = &NoopRecorder{}
	}
	return &Executor{registry: registry, opts: opts}
}

// Run executes every step definition in order, honoring dependency,
// cache-eligibility, and mode/only/skip filtering rules, and returns the
// aggregate Result. Run never returns a bare Go error for task-level
// failures: those are captured per-step in the Result. It returns an error
// only for gate trips and context cancellation, both of which abort the run.
func (e *Executor) Run(ctx context.Context, defs []StepDefinition, cache *CacheState) (Result, error) {
	started := time.Now()
	ctx = observability.WithRunID(ctx, uuid.NewString())
	observability.InfoContext(ctx, "pipeline run started", slog.Int("steps", len(defs)))
	result := Result{Steps: make([]StepResult, 0, len(defs))}
	stepSuccess := make(map[int]bool, len(defs))
	stepCacheHit := make(map[int]bool, len(defs))

	for _, def := range defs {
		select {
		case <-ctx.Done():
			result.Success = false
			result.Duration = time.Since(started).Milliseconds()
			return result, ctx.Err()
		default:
		}

		sr, gateErr := e.runOne(ctx, def, cache, stepSuccess, stepCacheHit)
		result.Steps = append(result.Steps, sr)
		stepSuccess[def.Index] = sr.Success || sr.Skipped
		stepCacheHit[def.Index] = sr.CacheHit

		if gateErr != nil {
			result.Success = false
			result.Duration = time.Since(started).Milliseconds()
			return result, gateErr
		}
		if !sr.Success && !sr.Skipped {
			result.Success = false
			result.Duration = time.Since(started).Milliseconds()
			return result, nil
		}
	}

	result.Success = true
	result.Duration = time.Since(started).Milliseconds()
	return result, nil
}

func (e *Executor) runOne(ctx context.Context, def StepDefinition, cache *CacheState, stepSuccess, stepCacheHit map[int]bool) (StepResult, error) {
	ctx = observability.WithStepID(observability.WithTask(ctx, def.Task), def.ID)
	logger := e.opts.Logger.With(slog.String("task", def.Task), slog.String("id", def.ID), slog.Int("step", def.Index))
	sr := StepResult{ID: def.ID, Task: def.Task, Index: def.Index, StartedAt: time.Now()}

	if e.opts.Blocklist.Has(def.Task) {
		sr.Skipped = true
		sr.SkipReason = "blocklisted"
		sr.Success = true
		sr.FinishedAt = time.Now()
		logger.Info("step blocklisted")
		return sr, nil
	}
	if len(e.opts.Only) > 0 && !e.opts.Only.Has(def.Task) {
		sr.Skipped = true
		sr.SkipReason = "not in --only set"
		sr.Success = true
		sr.FinishedAt = time.Now()
		return sr, nil
	}
	if e.opts.Skip.Has(def.Task) {
		sr.Skipped = true
		sr.SkipReason = "skipped by flag"
		sr.Success = true
		sr.FinishedAt = time.Now()
		return sr, nil
	}
	if !modeMatches(stringField(def.Element.Raw, "mode"), e.opts.RunMode) {
		sr.Skipped = true
		sr.SkipReason = "mode mismatch"
		sr.Success = true
		sr.FinishedAt = time.Now()
		return sr, nil
	}

	for _, depIndex := range def.DependencyIndexes {
		if !stepSuccess[depIndex] {
			sr.Success = false
			sr.Error = pferrors.New(pferrors.CategoryDependency, pferrors.CodeDependencyFailed, "dependency did not succeed").
				WithContext("dependsOnIndex", depIndex).Error()
			sr.FinishedAt = time.Now()
			observability.ErrorContext(ctx, "dependency failed", slog.Int("dependsOnIndex", depIndex))
			return sr, nil
		}
	}

	fp, err := Fingerprint(def, e.opts.FastMode)
	if err != nil {
		sr.Success = false
		sr.Error = err.Error()
		sr.FinishedAt = time.Now()
		return sr, nil
	}
	sr.Fingerprint = fp

	cacheable := e.opts.CacheOn && !nonCacheableTasks[def.Task]
	cacheKey := fmt.Sprintf("%d:%s", def.Index, def.Task)

	if cacheable {
		if entry, ok := cache.Entries[cacheKey]; ok && entry.Fingerprint == fp && allDepsCacheHit(def, stepCacheHit) && outputsPresent(entry.Outputs) {
			sr.CacheHit = true
			sr.Success = true
			sr.Outputs = entry.Outputs
			sr.FinishedAt = time.Now()
			sr.DurationMS = sr.FinishedAt.Sub(sr.StartedAt).Milliseconds()
			e.opts.Recorder.StepFinished(def.Task, true, true, 0)
			if e.opts.Publisher != nil {
				e.opts.Publisher.Publish(sr)
			}
			observability.InfoContext(ctx, "cache hit")
			return sr, nil
		}
	}

	e.opts.Recorder.StepStarted(def.Task)
	fn, ok := e.registry[def.Task]
	if !ok {
		sr.Success = false
		sr.Error = pferrors.New(pferrors.CategoryTask, pferrors.CodeTaskFailed, "unknown task kind").WithContext("task", def.Task).Error()
		sr.FinishedAt = time.Now()
		return sr, nil
	}

	outcome, err := fn(ctx, tasks.Request{
		StepID:   def.ID,
		Task:     def.Task,
		Raw:      def.Element.Raw,
		BaseDir:  def.Element.BaseDir,
		FastMode: e.opts.FastMode,
		Logger:   logger,
	})
	sr.FinishedAt = time.Now()
	sr.DurationMS = sr.FinishedAt.Sub(sr.StartedAt).Milliseconds()

	if err != nil {
		sr.Success = false
		sr.Error = err.Error()
		observability.ErrorContext(ctx, "task failed", slog.String("error", err.Error()))
		e.opts.Recorder.StepFinished(def.Task, false, false, sr.FinishedAt.Sub(sr.StartedAt))
		return sr, nil
	}

	sr.Success = outcome.Success
	sr.Outputs = outcome.Outputs
	sr.Details = outcome.Details
	e.opts.Recorder.StepFinished(def.Task, false, sr.Success, sr.FinishedAt.Sub(sr.StartedAt))

	if sr.Success && cacheable {
		cache.Entries[cacheKey] = CacheEntry{Fingerprint: fp, Outputs: sr.Outputs}
	}

	if gateErr := e.evaluateGate(def, sr); gateErr != nil {
		gateCode := pferrors.CodeAuditGateTripped
		if pe, ok := pferrors.As(gateErr); ok {
			gateCode = pe.Code
		}
		e.opts.Recorder.GateTripped(string(gateCode))
		observability.ErrorContext(ctx, "gate tripped", slog.String("error", gateErr.Error()))
		if e.opts.Publisher != nil {
			e.opts.Publisher.Publish(sr)
		}
		return sr, gateErr
	}

	if e.opts.Publisher != nil {
		e.opts.Publisher.Publish(sr)
	}
	observability.InfoContext(ctx, "step finished", slog.Bool("success", sr.Success))
	return sr, nil
}

// evaluateGate applies the audit/verify policy gate to a completed step's
// details, per spec §7 (AuditGateTripped/VerifyPolicyTripped).
func (e *Executor) evaluateGate(def StepDefinition, sr StepResult) error {
	if def.Task != "audit" && def.Task != "verify" && def.Task != "doctor" {
		return nil
	}
	if sr.Details == nil {
		return nil
	}
	errCount, _ := sr.Details["errorCount"].(int)
	warnCount, _ := sr.Details["warningCount"].(int)

	policy := e.opts.Policy
	if v, ok := def.Element.Raw["failOnWarnings"].(bool); ok {
		policy.FailOnWarnings = v
	}

	if policy.MaxErrors > 0 && errCount > policy.MaxErrors {
		code := pferrors.CodeAuditGateTripped
		if def.Task == "verify" {
			code = pferrors.CodeVerifyPolicyTripped
		}
		return pferrors.New(pferrors.CategoryGate, code, BuildAuditFailureSummary(def.ID, errCount, warnCount)).
			WithContext("errorCount", errCount).WithContext("maxErrors", policy.MaxErrors)
	}
	if policy.FailOnWarnings && warnCount > 0 {
		code := pferrors.CodeAuditGateTripped
		if def.Task == "verify" {
			code = pferrors.CodeVerifyPolicyTripped
		}
		return pferrors.New(pferrors.CategoryGate, code, BuildAuditFailureSummary(def.ID, errCount, warnCount)).
			WithContext("warningCount", warnCount)
	}
	return nil
}

// BuildAuditFailureSummary composes the human-readable message for a gate
// trip, bounded to keep CLI output readable (spec §5 resource bounds).
func BuildAuditFailureSummary(stepID string, errCount, warnCount int) string {
	return fmt.Sprintf("step %q tripped the gate: %d error(s), %d warning(s)", stepID, errCount, warnCount)
}

func allDepsCacheHit(def StepDefinition, stepCacheHit map[int]bool) bool {
	for _, depIndex := range def.DependencyIndexes {
		if !stepCacheHit[depIndex] {
			return false
		}
	}
	return true
}

func outputsPresent(outputs []string) bool {
	for _, p := range outputs {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// modeMatches implements the Open Question resolution: exact
// case-insensitive match, empty step mode matches any run mode.
func modeMatches(stepMode, runMode string) bool {
	if stepMode == "" {
		return true
	}
	return strings.EqualFold(stepMode, runMode)
}
