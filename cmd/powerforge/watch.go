package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"powerforge/internal/config"
	"powerforge/internal/pipeline"
)

// WatchCmd re-runs a pipeline whenever one of its fingerprinted inputs
// changes, with the fingerprint cache always enabled so unrelated steps
// stay fast between iterations.
type WatchCmd struct {
	Pipeline string   `arg:"" help:"Path to the pipeline document" default:"pipeline.json"`
	Mode     string   `help:"Run mode; steps whose mode doesn't match are skipped" default:""`
	Only     []string `help:"Run only these task kinds"`
	Skip     []string `help:"Skip these task kinds"`
}

func (w *WatchCmd) Run(root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, cfgErr := config.Load(root.Config)
	if cfgErr != nil {
		slog.Warn("no tool configuration loaded, using defaults", slog.String("error", cfgErr.Error()))
		cfg = &config.Config{}
	}

	doc, err := pipeline.Load(w.Pipeline)
	if err != nil {
		return err
	}
	defs, err := pipeline.BuildStepDefinitions(doc.Steps)
	if err != nil {
		return err
	}

	cache, err := pipeline.LoadCache(resolveRelative(doc.Root, doc.CachePath))
	if err != nil {
		return err
	}

	executor := pipeline.NewExecutor(nil, pipeline.Options{
		CacheOn: true,
		Only:    toSet(w.Only),
		Skip:    toSet(w.Skip),
		RunMode: w.Mode,
		Policy: pipeline.AuditPolicy{
			FailOnWarnings: cfg.Audit.FailOnWarnings,
			MaxErrors:      cfg.Audit.MaxErrors,
		},
		Logger: slog.Default(),
	})

	run := func(ctx context.Context) error {
		result, runErr := executor.Run(ctx, defs, cache)
		if serr := pipeline.SaveCache(doc.Root, resolveRelative(doc.Root, doc.CachePath), cache); serr != nil {
			slog.Warn("failed to persist cache", slog.String("error", serr.Error()))
		}
		if runErr != nil {
			return runErr
		}
		if !result.Success {
			slog.Warn("pipeline run failed", slog.Int("failedSteps", len(result.Failed())))
		}
		return nil
	}

	return pipeline.Watch(ctx, defs, run, slog.Default())
}
