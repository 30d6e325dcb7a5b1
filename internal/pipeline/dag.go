package pipeline

import (
	"fmt"
	"sort"
	"strconv"

	"powerforge/internal/pferrors"
)

// StepDefinition is the resolved, internal representation of a pipeline step:
// a 1-based index, its task kind, a stable id, and the already-validated
// indexes of the steps it depends on (sorted, deduplicated).
type StepDefinition struct {
	Index             int
	Task              string
	ID                string
	DependsOn         []string
	DependencyIndexes []int
	Element           Step
}

// BuildStepDefinitions assigns indexes and ids, resolves dependsOn aliases,
// and rejects duplicate/forward/self/unknown dependencies, per spec §4.2.
// The returned slice preserves input order; that order is also the canonical
// topological order, since forward references are disallowed by construction.
func BuildStepDefinitions(steps []Step) ([]StepDefinition, error) {
	defs := make([]StepDefinition, 0, len(steps))
	idIndex := map[string]int{}
	taskHashIndex := map[string]int{}
	taskFirstIndex := map[string]int{}

	index := 0
	for _, s := range steps {
		task := s.task()
		if task == "" {
			continue
		}
		index++
		id := s.id()
		if id == "" {
			id = fmt.Sprintf("%s-%d", task, index)
		}
		if _, dup := idIndex[id]; dup {
			return nil, pferrors.New(pferrors.CategoryDAG, pferrors.CodeDuplicateStepID, "duplicate step id").WithContext("id", id)
		}
		idIndex[id] = index
		hashKey := fmt.Sprintf("%s#%d", task, index)
		taskHashIndex[hashKey] = index
		if _, seen := taskFirstIndex[task]; !seen {
			taskFirstIndex[task] = index
		}

		defs = append(defs, StepDefinition{
			Index:     index,
			Task:      task,
			ID:        id,
			DependsOn: s.dependsOn(),
			Element:   s,
		})
	}

	total := len(defs)
	resolve := func(token string) (int, bool) {
		if n, err := strconv.Atoi(token); err == nil {
			return n, true
		}
		if n, ok := idIndex[token]; ok {
			return n, true
		}
		if n, ok := taskHashIndex[token]; ok {
			return n, true
		}
		if n, ok := taskFirstIndex[token]; ok {
			return n, true
		}
		return 0, false
	}

	for i := range defs {
		def := &defs[i]
		seen := map[int]bool{}
		var resolved []int
		for _, token := range def.DependsOn {
			n, ok := resolve(token)
			if !ok {
				return nil, pferrors.New(pferrors.CategoryDAG, pferrors.CodeUnknownDependency, "unknown dependency").
					WithContext("step", def.ID).WithContext("dependsOn", token)
			}
			if n < 1 || n > total {
				return nil, pferrors.New(pferrors.CategoryDAG, pferrors.CodeUnknownDependency, "dependency index out of range").
					WithContext("step", def.ID).WithContext("dependsOn", token)
			}
			if n >= def.Index {
				return nil, pferrors.New(pferrors.CategoryDAG, pferrors.CodeForwardOrSelfDependency, "forward or self dependency").
					WithContext("step", def.ID).WithContext("dependsOn", token)
			}
			if !seen[n] {
				seen[n] = true
				resolved = append(resolved, n)
			}
		}
		sort.Ints(resolved)
		def.DependencyIndexes = resolved
	}

	return defs, nil
}
