package pipeline

import "strings"

// Step is a single raw pipeline step as parsed from the pipeline document,
// annotated with the directory it should resolve relative paths against.
// BaseDir differs from the pipeline root when the step originated in a
// parent document via `extends`.
type Step struct {
	Raw     map[string]any
	BaseDir string
}

// Document is the parsed pipeline configuration, after extends-inheritance
// has been resolved. It is immutable once returned from Load.
type Document struct {
	Steps         []Step
	Profile       bool
	ProfileOnFail bool
	ProfilePath   string
	Cache         bool
	CachePath     string
	// Root is the directory containing the top-level pipeline document
	// (the one passed to Load), used for cache/profile path containment.
	Root string
}

const (
	defaultCachePath   = ".powerforge/pipeline-cache.json"
	defaultProfilePath = ".powerforge/pipeline-profile.json"
)

func (s Step) task() string {
	return strings.ToLower(strings.TrimSpace(stringField(s.Raw, "task")))
}

func (s Step) id() string {
	return stringField(s.Raw, "id")
}

func (s Step) dependsOn() []string {
	v, ok := s.Raw["dependsOn"]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		var out []string
		for _, item := range t {
			if str, ok := item.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// stringField reads a string-valued key from a raw step/document map,
// returning "" if absent or not a string.
func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func boolField(m map[string]any, key string, def bool) bool {
	if m == nil {
		return def
	}
	v, ok := m[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}
