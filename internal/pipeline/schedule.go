package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs a pipeline on a cron or interval schedule, for long-lived
// hosts that want a periodic rebuild without an external cron entry.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
}

// NewScheduler creates a Scheduler. Callers must call Start to begin
// executing jobs and Shutdown to release resources.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// ScheduleCron registers run on the given standard 5-field cron expression.
func (s *Scheduler) ScheduleCron(expr string, run RunFunc) error {
	_, err := s.scheduler.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(func() {
			if err := run(context.Background()); err != nil {
				s.logger.Error("scheduled run failed", slog.String("error", err.Error()))
			}
		}),
	)
	return err
}

// ScheduleInterval registers run to execute every interval.
func (s *Scheduler) ScheduleInterval(interval time.Duration, run RunFunc) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := run(context.Background()); err != nil {
				s.logger.Error("scheduled run failed", slog.String("error", err.Error()))
			}
		}),
	)
	return err
}

// Start begins executing scheduled jobs asynchronously.
func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Shutdown stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Shutdown() error {
	return s.scheduler.Shutdown()
}
