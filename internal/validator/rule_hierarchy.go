package validator

import (
	"fmt"

	"scenecore/pkg/scene"
)

// OrphanParentRule blocks scenes containing parent references that do not
// resolve to an entity within the same scene.
type OrphanParentRule struct{}

// Name implements Rule.
func (OrphanParentRule) Name() string { return "resolvable-parent" }

// Evaluate implements Rule.
func (r OrphanParentRule) Evaluate(s *scene.SerializedScene) scene.ValidationResult {
	var result scene.ValidationResult
	ids := make(map[string]struct{}, len(s.Entities))
	for _, e := range s.Entities {
		ids[e.PersistentID] = struct{}{}
	}
	for _, e := range s.Entities {
		if e.ParentPersistentID == "" {
			continue
		}
		if _, ok := ids[e.ParentPersistentID]; !ok {
			result.Violations = append(result.Violations, scene.Violation{
				Rule:     r.Name(),
				Severity: scene.SeverityBlock,
				EntityID: e.PersistentID,
				Message:  fmt.Sprintf("parent %q does not exist in scene", e.ParentPersistentID),
			})
		}
	}
	return result
}

// CycleRule blocks scenes whose parent chains form a cycle. Detection is a
// DFS with three-coloring over the parent edges; the reported entity is the
// one whose parent edge closes the cycle.
type CycleRule struct{}

// Name implements Rule.
func (CycleRule) Name() string { return "acyclic-hierarchy" }

const (
	colorWhite = iota // unvisited
	colorGray         // on the current path
	colorBlack        // fully explored
)

// Evaluate implements Rule.
func (r CycleRule) Evaluate(s *scene.SerializedScene) scene.ValidationResult {
	var result scene.ValidationResult
	parent := make(map[string]string, len(s.Entities))
	for _, e := range s.Entities {
		if e.ParentPersistentID != "" {
			parent[e.PersistentID] = e.ParentPersistentID
		}
	}
	color := make(map[string]int, len(s.Entities))
	for _, e := range s.Entities {
		if color[e.PersistentID] != colorWhite {
			continue
		}
		// Walk up the parent chain, graying the path. Reaching a gray
		// node means the current entity's chain closes a cycle.
		var path []string
		cur := e.PersistentID
		for {
			switch color[cur] {
			case colorGray:
				result.Violations = append(result.Violations, scene.Violation{
					Rule:     r.Name(),
					Severity: scene.SeverityBlock,
					EntityID: path[len(path)-1],
					Message:  fmt.Sprintf("parent chain closes a cycle through %q", cur),
				})
			case colorWhite:
				color[cur] = colorGray
				path = append(path, cur)
				next, ok := parent[cur]
				if ok {
					cur = next
					continue
				}
			}
			break
		}
		for _, id := range path {
			color[id] = colorBlack
		}
	}
	return result
}
