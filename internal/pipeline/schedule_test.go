package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSchedulerRunsOnInterval(t *testing.T) {
	scheduler, err := NewScheduler(nil)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}

	var mu sync.Mutex
	calls := 0
	run := func(ctx context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}

	if err := scheduler.ScheduleInterval(20*time.Millisecond, run); err != nil {
		t.Fatalf("ScheduleInterval returned error: %v", err)
	}
	scheduler.Start()
	time.Sleep(100 * time.Millisecond)
	if err := scheduler.Shutdown(); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	mu.Lock()
	got := calls
	mu.Unlock()
	if got == 0 {
		t.Fatal("expected at least one scheduled run to execute")
	}
}

func TestSchedulerToleratesRunError(t *testing.T) {
	scheduler, err := NewScheduler(nil)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}

	run := func(ctx context.Context) error { return errString("boom") }
	if err := scheduler.ScheduleInterval(20*time.Millisecond, run); err != nil {
		t.Fatalf("ScheduleInterval returned error: %v", err)
	}
	scheduler.Start()
	time.Sleep(50 * time.Millisecond)
	if err := scheduler.Shutdown(); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}

func TestSchedulerRejectsInvalidCron(t *testing.T) {
	scheduler, err := NewScheduler(nil)
	if err != nil {
		t.Fatalf("NewScheduler returned error: %v", err)
	}
	defer scheduler.Shutdown()

	err = scheduler.ScheduleCron("not a cron expression", func(ctx context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected an error for an invalid cron expression")
	}
}
