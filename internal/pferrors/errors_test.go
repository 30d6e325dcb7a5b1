package pferrors

import (
	"errors"
	"testing"
)

func TestNewAndError(t *testing.T) {
	err := New(CategoryConfig, CodeConfigMissing, "no pipeline file")
	if err.Category != CategoryConfig {
		t.Fatalf("expected category config, got %s", err.Category)
	}
	if err.Error() != "ConfigMissing: no pipeline file" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWrapIncludesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(cause, CategoryCache, CodeStateTooLarge, "cache write failed")
	want := "StateTooLarge: cache write failed: disk full"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find wrapped cause")
	}
}

func TestWithContextChaining(t *testing.T) {
	err := New(CategoryDependency, CodeDependencyFailed, "dep failed").
		WithContext("dependsOnIndex", 2).
		WithContext("step", "build")
	if err.Context["dependsOnIndex"] != 2 {
		t.Fatalf("expected context value 2, got %v", err.Context["dependsOnIndex"])
	}
	if err.Context["step"] != "build" {
		t.Fatalf("expected context value build, got %v", err.Context["step"])
	}
}

func TestAs(t *testing.T) {
	var err error = New(CategoryGate, CodeAuditGateTripped, "gate tripped")
	pe, ok := As(err)
	if !ok {
		t.Fatalf("expected As to succeed on a *PipelineError")
	}
	if pe.Code != CodeAuditGateTripped {
		t.Fatalf("expected code AuditGateTripped, got %s", pe.Code)
	}

	if _, ok := As(errors.New("plain error")); ok {
		t.Fatalf("expected As to fail on a plain error")
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), 1},
		{"config missing", New(CategoryConfig, CodeConfigMissing, "x"), 2},
		{"config invalid", New(CategoryConfig, CodeConfigInvalid, "x"), 2},
		{"extends cycle", New(CategoryConfig, CodeExtendsCycle, "x"), 2},
		{"dependency failed", New(CategoryDependency, CodeDependencyFailed, "x"), 1},
		{"gate tripped", New(CategoryGate, CodeAuditGateTripped, "x"), 1},
	}
	for _, tc := range cases {
		if got := ExitCode(tc.err); got != tc.want {
			t.Errorf("%s: expected exit code %d, got %d", tc.name, tc.want, got)
		}
	}
}
