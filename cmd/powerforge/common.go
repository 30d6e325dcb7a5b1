package main

import (
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"
)

// resolveRelative joins path onto root unless it is already absolute.
func resolveRelative(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// prometheusRegistry builds a fresh registry for one process's /metrics
// endpoint; powerforge never shares a registry across runs.
func prometheusRegistry() *prom.Registry {
	return prom.NewRegistry()
}
