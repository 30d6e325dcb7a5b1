package main

import (
	"path/filepath"
	"testing"
)

func TestResolveRelative(t *testing.T) {
	if got := resolveRelative("/root", ""); got != "" {
		t.Errorf("expected empty path preserved, got %q", got)
	}
	if got := resolveRelative("/root", "/abs"); got != "/abs" {
		t.Errorf("expected absolute path preserved, got %q", got)
	}
	want := filepath.Join("/root", "rel")
	if got := resolveRelative("/root", "rel"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestPrometheusRegistryIsFresh(t *testing.T) {
	a := prometheusRegistry()
	b := prometheusRegistry()
	if a == b {
		t.Fatal("expected a new registry on every call")
	}
}
