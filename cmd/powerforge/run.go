package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"powerforge/internal/auditstore"
	"powerforge/internal/config"
	"powerforge/internal/metrics"
	"powerforge/internal/pferrors"
	"powerforge/internal/pipeline"
	"powerforge/internal/util/sets"
)

// RunCmd implements the 'run' command: load, resolve, and execute a pipeline
// document once.
type RunCmd struct {
	Pipeline string   `arg:"" help:"Path to the pipeline document" default:"pipeline.json"`
	Mode     string   `help:"Run mode; steps whose mode doesn't match are skipped" default:""`
	Fast     bool     `help:"Enable fast mode (separately salted fingerprints)"`
	NoCache  bool     `name:"no-cache" help:"Disable the fingerprint cache even if the document enables it"`
	Only     []string `help:"Run only these task kinds"`
	Skip     []string `help:"Skip these task kinds"`
	Block    []string `name:"block" help:"Blocklist these task kinds entirely"`
}

func (r *RunCmd) Run(root *CLI) error {
	ctx := context.Background()

	cfg, cfgErr := config.Load(root.Config)
	if cfgErr != nil {
		slog.Warn("no tool configuration loaded, using defaults", slog.String("error", cfgErr.Error()))
		cfg = &config.Config{}
	}

	doc, err := pipeline.Load(r.Pipeline)
	if err != nil {
		return err
	}
	defs, err := pipeline.BuildStepDefinitions(doc.Steps)
	if err != nil {
		return err
	}

	recorder := pipeline.Recorder(&pipeline.NoopRecorder{})
	if cfg.Metrics.Enabled {
		reg := prometheusRegistry()
		pr := metrics.NewPrometheusRecorder(reg)
		recorder = pr
		srv := metrics.NewServer(cfg.Metrics.Addr, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("metrics server exited", slog.String("error", err.Error()))
			}
		}()
	}

	var publisher pipeline.Publisher
	if cfg.Events.Enabled {
		np := pipeline.NewNATSPublisher(cfg.Events.URL, cfg.Events.Subject, slog.Default())
		defer np.Close()
		publisher = np
	}

	cacheOn := doc.Cache && !r.NoCache
	var cache *pipeline.CacheState
	if cacheOn {
		cachePath := doc.CachePath
		if cache, err = pipeline.LoadCache(resolveRelative(doc.Root, cachePath)); err != nil {
			return err
		}
	} else {
		cache = &pipeline.CacheState{Entries: map[string]pipeline.CacheEntry{}}
	}

	if cfg.Audit.HistoryDB != "" {
		store, serr := auditstore.Open(resolveRelative(doc.Root, cfg.Audit.HistoryDB))
		if serr != nil {
			slog.Warn("audit history store unavailable", slog.String("error", serr.Error()))
		} else {
			defer store.Close()
		}
	}

	executor := pipeline.NewExecutor(nil, pipeline.Options{
		FastMode:  r.Fast,
		CacheOn:   cacheOn,
		Blocklist: toSet(r.Block),
		Only:      toSet(r.Only),
		Skip:      toSet(r.Skip),
		RunMode:   r.Mode,
		Policy: pipeline.AuditPolicy{
			FailOnWarnings: cfg.Audit.FailOnWarnings,
			MaxErrors:      cfg.Audit.MaxErrors,
		},
		Logger:    slog.Default(),
		Recorder:  recorder,
		Publisher: publisher,
	})

	result, runErr := executor.Run(ctx, defs, cache)

	if cacheOn {
		if serr := pipeline.SaveCache(doc.Root, resolveRelative(doc.Root, doc.CachePath), cache); serr != nil {
			slog.Warn("failed to persist cache", slog.String("error", serr.Error()))
		}
	}
	if perr := pipeline.WriteProfile(doc, result, runErr); perr != nil {
		slog.Warn("failed to write profile", slog.String("error", perr.Error()))
	}

	for _, step := range result.Steps {
		status := "ok"
		switch {
		case step.Skipped:
			status = "skipped: " + step.SkipReason
		case !step.Success:
			status = "FAILED: " + step.Error
		case step.CacheHit:
			status = "cached"
		}
		fmt.Fprintf(os.Stderr, "[%d] %s (%s): %s\n", step.Index, step.ID, step.Task, status)
	}

	if runErr == nil && !result.Success {
		return pferrors.New(pferrors.CategoryTask, pferrors.CodeTaskFailed,
			fmt.Sprintf("pipeline failed: %d step(s) failed", len(result.Failed())))
	}
	return runErr
}

func toSet(values []string) sets.Set[string] {
	if len(values) == 0 {
		return nil
	}
	out := sets.New[string]()
	for _, v := range values {
		out.Add(strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}
