package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"powerforge/internal/pferrors"
)

// Load reads a pipeline document from path, resolving `extends` inheritance
// recursively. Scalar fields from a child override its parent; `steps` from
// the child fully replace the parent's unless the child sets `append:true`,
// in which case parent steps precede the child's.
func Load(path string) (*Document, error) {
	return load(path, map[string]bool{})
}

func load(path string, visited map[string]bool) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, pferrors.Wrap(err, pferrors.CategoryConfig, pferrors.CodeConfigInvalid, "resolve pipeline path").WithContext("path", path)
	}
	if visited[abs] {
		return nil, pferrors.New(pferrors.CategoryConfig, pferrors.CodeExtendsCycle, "extends cycle detected").WithContext("path", abs)
	}
	visited[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pferrors.New(pferrors.CategoryConfig, pferrors.CodeConfigMissing, "pipeline config not found").WithContext("path", abs)
		}
		return nil, pferrors.Wrap(err, pferrors.CategoryConfig, pferrors.CodeConfigInvalid, "read pipeline config").WithContext("path", abs)
	}

	var raw map[string]any
	if err := json.Unmarshal(stripJSONC(data), &raw); err != nil {
		return nil, pferrors.Wrap(err, pferrors.CategoryConfig, pferrors.CodeConfigInvalid, "parse pipeline config").WithContext("path", abs)
	}

	stepsRaw, ok := raw["steps"].([]any)
	if _, present := raw["steps"]; !present || !ok {
		return nil, pferrors.New(pferrors.CategoryConfig, pferrors.CodeConfigInvalid, "pipeline config must have a steps array").WithContext("path", abs)
	}

	baseDir := filepath.Dir(abs)
	own := make([]Step, 0, len(stepsRaw))
	for _, s := range stepsRaw {
		m, ok := s.(map[string]any)
		if !ok {
			continue
		}
		own = append(own, Step{Raw: m, BaseDir: baseDir})
	}

	doc := &Document{
		Steps:         own,
		Profile:       boolField(raw, "profile", false),
		ProfileOnFail: boolField(raw, "profileOnFail", true),
		ProfilePath:   stringField(raw, "profilePath"),
		Cache:         boolField(raw, "cache", false),
		CachePath:     stringField(raw, "cachePath"),
		Root:          baseDir,
	}
	if doc.ProfilePath == "" {
		doc.ProfilePath = defaultProfilePath
	}
	if doc.CachePath == "" {
		doc.CachePath = defaultCachePath
	}

	if extends := stringField(raw, "extends"); extends != "" {
		parentPath := extends
		if !filepath.IsAbs(parentPath) {
			parentPath = filepath.Join(baseDir, parentPath)
		}
		parent, err := load(parentPath, visited)
		if err != nil {
			return nil, err
		}
		doc = mergeDocuments(parent, doc, boolField(raw, "append", false))
	}

	return doc, nil
}

// mergeDocuments applies child-over-parent scalar overrides and the
// steps-replace-unless-append rule described in spec §4.1.
func mergeDocuments(parent, child *Document, appendSteps bool) *Document {
	merged := &Document{
		Profile:       child.Profile,
		ProfileOnFail: child.ProfileOnFail,
		ProfilePath:   child.ProfilePath,
		Cache:         child.Cache,
		CachePath:     child.CachePath,
		Root:          child.Root,
	}
	if appendSteps {
		merged.Steps = append(append([]Step{}, parent.Steps...), child.Steps...)
	} else {
		merged.Steps = child.Steps
	}
	return merged
}

// stripJSONC removes `//` line comments and trailing commas before `]`/`}`
// so the config format can be plain JSON with the comfort features spec §6
// requires, without pulling in a dedicated JSONC parser.
func stripJSONC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			out = append(out, c)
			continue
		}
		if c == '/' && i+1 < len(data) && data[i+1] == '/' {
			for i < len(data) && data[i] != '\n' {
				i++
			}
			out = append(out, '\n')
			continue
		}
		out = append(out, c)
	}
	return stripTrailingCommas(out)
}

func stripTrailingCommas(data []byte) []byte {
	out := make([]byte, 0, len(data))
	inString := false
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		out = append(out, c)
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(data) && isJSONSpace(data[j]) {
				j++
			}
			if j < len(data) && (data[j] == ']' || data[j] == '}') {
				out = out[:len(out)-1]
			}
		}
	}
	return out
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
