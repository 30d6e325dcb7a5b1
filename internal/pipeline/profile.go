package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"powerforge/internal/pferrors"
)

// Profile is the persisted run-report document written to ProfilePath.
type Profile struct {
	RunID      string       `json:"runId"`
	Success    bool         `json:"success"`
	DurationMS int64        `json:"durationMs"`
	StepCount  int          `json:"stepCount"`
	Steps      []StepResult `json:"steps"`
}

// WriteProfile persists a run profile to path if doc.Profile is set, or if
// the run failed and doc.ProfileOnFail is set. Cache/profile I/O errors are
// downgraded to warnings per spec §7: the caller logs but does not fail the
// run over a profile write error.
func WriteProfile(doc *Document, result Result, err error) error {
	shouldWrite := doc.Profile || ((err != nil || !result.Success) && doc.ProfileOnFail)
	if !shouldWrite {
		return nil
	}

	path := doc.ProfilePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(doc.Root, path)
	}
	if cerr := ensureContained(doc.Root, path); cerr != nil {
		return cerr
	}

	profile := Profile{
		RunID:      uuid.NewString(),
		Success:    result.Success,
		DurationMS: result.Duration,
		StepCount:  len(result.Steps),
		Steps:      result.Steps,
	}

	data, merr := json.MarshalIndent(profile, "", "  ")
	if merr != nil {
		return pferrors.Wrap(merr, pferrors.CategoryCache, pferrors.CodeTaskFailed, "marshal profile")
	}
	if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
		return pferrors.Wrap(mkErr, pferrors.CategoryCache, pferrors.CodeTaskFailed, "create profile directory")
	}
	if werr := os.WriteFile(path, data, 0o644); werr != nil {
		return pferrors.Wrap(werr, pferrors.CategoryCache, pferrors.CodeTaskFailed, "write profile")
	}
	return nil
}
