package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// toolVersion salts every fingerprint so a cache built by one build of
// powerforge is never reused by an incompatible one.
const toolVersion = "powerforge/1"

// fastModeSalt further separates fast-mode fingerprints from full-mode ones,
// so a cache populated under --fast can never produce a false hit for a full
// run and vice versa (spec §4.3, fast-mode isolation).
const fastModeSalt = "fast"

// fingerprintPathKeys names the raw step fields whose values are filesystem
// paths that should be stamped as part of the step's fingerprint, resolved
// relative to the step's BaseDir. Unknown/extra raw fields never participate
// in stamping; only these contribute path-derived state.
var fingerprintPathKeys = map[string][]string{
	"build":          {"config", "out"},
	"verify":         {"config"},
	"markdown-fix":   {"path"},
	"apidocs":        {"out"},
	"changelog":      {"fragments", "output"},
	"llms":           {"siteRoot", "output"},
	"sitemap":        {"siteRoot", "output"},
	"optimize":       {"siteRoot"},
	"audit":          {"siteRoot", "baseline"},
	"doctor":         {"config", "out", "siteRoot"},
	"dotnet-build":   {"project"},
	"dotnet-publish": {"project", "output"},
	"overlay":        {"source", "destination"},
	"hosting":        {"siteRoot"},
}

const maxStampedDirEntries = 1000

// TODO: stamp directories beyond maxStampedDirEntries with a rolling Merkle
// hash instead of truncating, so very large output trees don't lose
// fingerprint precision past the cap.

// Fingerprint computes the content-addressed fingerprint for a single step:
// sha256(toolVersion [+ fastModeSalt] + raw step JSON + sorted path stamps).
// It is deterministic given the same raw step content and filesystem state.
func Fingerprint(def StepDefinition, fastMode bool) (string, error) {
	h := sha256.New()
	h.Write([]byte(toolVersion))
	if fastMode {
		h.Write([]byte(fastModeSalt))
	}

	rawJSON, err := canonicalJSON(def.Element.Raw)
	if err != nil {
		return "", err
	}
	h.Write(rawJSON)

	stamps, err := pathStamps(def)
	if err != nil {
		return "", err
	}
	sort.Strings(stamps)
	for _, s := range stamps {
		h.Write([]byte(s))
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalJSON re-marshals a raw step map with sorted keys so that key
// order in the source document never affects the fingerprint.
func canonicalJSON(raw map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		ordered = append(ordered, k, raw[k])
	}
	return json.Marshal(ordered)
}

// pathStamps produces one stamp string per configured path field of the
// step's task kind. A file stamp is `f|path|len|mtimeTicks`; a directory
// stamp is `d|path|count|maxMtimeTicks[|truncated]` bounded to
// maxStampedDirEntries files; a missing path stamps as `m|path`; an
// unreadable directory stamps as `d|path|unreadable`.
func pathStamps(def StepDefinition) ([]string, error) {
	keys := fingerprintPathKeys[def.Task]
	stamps := make([]string, 0, len(keys))
	for _, key := range keys {
		raw := stringField(def.Element.Raw, key)
		if raw == "" {
			continue
		}
		path := raw
		if !filepath.IsAbs(path) {
			path = filepath.Join(def.Element.BaseDir, path)
		}
		stamps = append(stamps, stampPath(path))
	}
	return stamps, nil
}

func stampPath(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "m|" + path
		}
		return "d|" + path + "|unreadable"
	}
	if !info.IsDir() {
		return "f|" + path + "|" + strconv.FormatInt(info.Size(), 10) + "|" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
	}

	count := 0
	var maxMTime int64
	truncated := false
	var walk func(dir string) error
	walk = func(dir string) error {
		items, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Name() < items[j].Name() })
		for _, item := range items {
			if count >= maxStampedDirEntries {
				truncated = true
				return nil
			}
			full := filepath.Join(dir, item.Name())
			if item.IsDir() {
				if err := walk(full); err != nil {
					return err
				}
				continue
			}
			info, err := item.Info()
			if err != nil {
				continue
			}
			count++
			if t := info.ModTime().UnixNano(); t > maxMTime {
				maxMTime = t
			}
		}
		return nil
	}
	if err := walk(path); err != nil {
		return "d|" + path + "|unreadable"
	}

	stamp := "d|" + path + "|" + strconv.Itoa(count) + "|" + strconv.FormatInt(maxMTime, 10)
	if truncated {
		stamp += "|truncated"
	}
	return stamp
}
