package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"powerforge/internal/config"
	"powerforge/internal/pipeline"
)

var errSchedulerRequiresTrigger = errors.New("schedule: one of --cron or --interval is required")

// ScheduleCmd runs a pipeline repeatedly on a cron expression or fixed
// interval, for a long-lived host that wants periodic rebuilds without an
// external cron entry.
type ScheduleCmd struct {
	Pipeline string        `arg:"" help:"Path to the pipeline document" default:"pipeline.json"`
	Cron     string        `help:"Standard 5-field cron expression; mutually exclusive with --interval"`
	Interval time.Duration `help:"Fixed interval between runs; mutually exclusive with --cron"`
	Mode     string        `help:"Run mode; steps whose mode doesn't match are skipped" default:""`
	Only     []string      `help:"Run only these task kinds"`
	Skip     []string      `help:"Skip these task kinds"`
}

func (s *ScheduleCmd) Run(root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, cfgErr := config.Load(root.Config)
	if cfgErr != nil {
		slog.Warn("no tool configuration loaded, using defaults", slog.String("error", cfgErr.Error()))
		cfg = &config.Config{}
	}

	doc, err := pipeline.Load(s.Pipeline)
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
		Only:    toSet(s.Only),
		Skip:    toSet(s.Skip),
		RunMode: s.Mode,
		Policy: pipeline.AuditPolicy{
			FailOnWarnings: cfg.Audit.FailOnWarnings,
			MaxErrors:      cfg.Audit.MaxErrors,
		},
		Logger: slog.Default(),
	})

	run := func(runCtx context.Context) error {
		result, runErr := executor.Run(runCtx, defs, cache)
		if serr := pipeline.SaveCache(doc.Root, resolveRelative(doc.Root, doc.CachePath), cache); serr != nil {
			slog.Warn("failed to persist cache", slog.String("error", serr.Error()))
		}
		if runErr != nil {
			return runErr
		}
		if !result.Success {
			slog.Warn("scheduled pipeline run failed", slog.Int("failedSteps", len(result.Failed())))
		}
		return nil
	}

	scheduler, err := pipeline.NewScheduler(slog.Default())
	if err != nil {
		return err
	}

	switch {
	case s.Cron != "" && s.Interval > 0:
		return errors.New("schedule: --cron and --interval are mutually exclusive")
	case s.Cron != "":
		if err := scheduler.ScheduleCron(s.Cron, run); err != nil {
			return err
		}
	case s.Interval > 0:
		if err := scheduler.ScheduleInterval(s.Interval, run); err != nil {
			return err
		}
	default:
		return errSchedulerRequiresTrigger
	}

	scheduler.Start()
	<-ctx.Done()
	return scheduler.Shutdown()
}
