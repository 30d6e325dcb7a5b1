package main

import "testing"

func TestScheduleCmdRequiresCronOrInterval(t *testing.T) {
	dir := t.TempDir()
	path := writePipeline(t, dir, minimalPipelineJSON)
	cmd := &ScheduleCmd{Pipeline: path}
	root := &CLI{Config: "does-not-exist.yaml"}
	if err := cmd.Run(root); err != errSchedulerRequiresTrigger {
		t.Fatalf("expected errSchedulerRequiresTrigger, got %v", err)
	}
}

func TestScheduleCmdRejectsMissingPipeline(t *testing.T) {
	cmd := &ScheduleCmd{Pipeline: "does-not-exist.json", Interval: 0, Cron: "* * * * *"}
	root := &CLI{Config: "does-not-exist.yaml"}
	if err := cmd.Run(root); err == nil {
		t.Fatal("expected an error for a missing pipeline file")
	}
}
