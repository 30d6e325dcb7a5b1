package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"powerforge/internal/pferrors"
)

// maxCacheStateBytes bounds the on-disk cache file so a runaway pipeline
// can never grow it without limit (spec §4.4).
const maxCacheStateBytes = 10 * 1024 * 1024

// CacheEntry records the last successful fingerprint and declared outputs
// for one step, keyed by `<index>:<task>` (for example `2:build`).
type CacheEntry struct {
	Fingerprint string   `json:"fingerprint"`
	Outputs     []string `json:"outputs,omitempty"`
}

// CacheState is the full persisted cache document.
type CacheState struct {
	Entries map[string]CacheEntry `json:"entries"`
}

// LoadCache reads the cache file at path. A missing file yields an empty,
// usable state. A corrupt or oversized file is tolerated the same way: the
// cache is treated as empty rather than failing the run, since the cache is
// an optimization, not a source of truth.
func LoadCache(path string) (*CacheState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &CacheState{Entries: map[string]CacheEntry{}}, nil
		}
		return &CacheState{Entries: map[string]CacheEntry{}}, nil
	}
	if len(data) > maxCacheStateBytes {
		return &CacheState{Entries: map[string]CacheEntry{}}, nil
	}

	var state CacheState
	if err := json.Unmarshal(data, &state); err != nil {
		return &CacheState{Entries: map[string]CacheEntry{}}, nil
	}
	if state.Entries == nil {
		state.Entries = map[string]CacheEntry{}
	}
	return &state, nil
}

// SaveCache persists the cache state to path, rejecting paths that would
// escape root (spec §4.4 path containment) and documents that would exceed
// the size cap.
func SaveCache(root, path string, state *CacheState) error {
	if err := ensureContained(root, path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return pferrors.Wrap(err, pferrors.CategoryCache, pferrors.CodeTaskFailed, "marshal cache state")
	}
	if len(data) > maxCacheStateBytes {
		return pferrors.New(pferrors.CategoryCache, pferrors.CodeStateTooLarge, "cache state exceeds size limit").WithContext("bytes", len(data))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return pferrors.Wrap(err, pferrors.CategoryCache, pferrors.CodeTaskFailed, "create cache directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return pferrors.Wrap(err, pferrors.CategoryCache, pferrors.CodeTaskFailed, "write cache state")
	}
	return nil
}

// ensureContained rejects any resolved path that falls outside root, to stop
// a pipeline document (however it was produced) from directing cache/profile
// writes elsewhere on disk.
func ensureContained(root, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return pferrors.Wrap(err, pferrors.CategoryCache, pferrors.CodePathEscape, "resolve root")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return pferrors.Wrap(err, pferrors.CategoryCache, pferrors.CodePathEscape, "resolve path").WithContext("path", path)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return pferrors.New(pferrors.CategoryCache, pferrors.CodePathEscape, "path escapes pipeline root").
			WithContext("root", absRoot).WithContext("path", absPath)
	}
	return nil
}
