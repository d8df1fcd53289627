package validator

import (
	"fmt"

	"scenecore/pkg/scene"
)

// DuplicateIDRule blocks scenes in which two entities share a persistent id.
type DuplicateIDRule struct{}

// Name implements Rule.
func (DuplicateIDRule) Name() string { return "unique-persistent-id" }

// Evaluate implements Rule.
func (r DuplicateIDRule) Evaluate(s *scene.SerializedScene) scene.ValidationResult {
	var result scene.ValidationResult
	seen := make(map[string]struct{}, len(s.Entities))
	for _, e := range s.Entities {
		if e.PersistentID == "" {
			result.Violations = append(result.Violations, scene.Violation{
				Rule:     r.Name(),
				Severity: scene.SeverityBlock,
				Message:  fmt.Sprintf("entity %q has no persistent id", e.Name),
			})
			continue
		}
		if _, dup := seen[e.PersistentID]; dup {
			result.Violations = append(result.Violations, scene.Violation{
				Rule:     r.Name(),
				Severity: scene.SeverityBlock,
				EntityID: e.PersistentID,
				Message:  fmt.Sprintf("duplicate persistent id %q", e.PersistentID),
			})
			continue
		}
		seen[e.PersistentID] = struct{}{}
	}
	return result
}
