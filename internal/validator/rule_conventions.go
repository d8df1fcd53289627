package validator

import (
	"fmt"

	"scenecore/pkg/scene"
)

// DuplicateNameRule warns about entities sharing a name. Names are a
// convenience for humans and duplicates are legal, but they usually point
// at an accidental copy.
type DuplicateNameRule struct{}

// Name implements Rule.
func (DuplicateNameRule) Name() string { return "distinct-names" }

// Evaluate implements Rule.
func (r DuplicateNameRule) Evaluate(s *scene.SerializedScene) scene.ValidationResult {
	var result scene.ValidationResult
	byName := make(map[string]int, len(s.Entities))
	for _, e := range s.Entities {
		if e.Name != "" {
			byName[e.Name]++
		}
	}
	for _, e := range s.Entities {
		if e.Name != "" && byName[e.Name] > 1 {
			result.Violations = append(result.Violations, scene.Violation{
				Rule:     r.Name(),
				Severity: scene.SeverityWarn,
				EntityID: e.PersistentID,
				Message:  fmt.Sprintf("name %q is shared by %d entities", e.Name, byName[e.Name]),
			})
		}
	}
	return result
}

// MissingTransformRule warns about entities without a Transform component.
// Most tooling assumes one is present.
type MissingTransformRule struct{}

// Name implements Rule.
func (MissingTransformRule) Name() string { return "conventional-transform" }

// Evaluate implements Rule.
func (r MissingTransformRule) Evaluate(s *scene.SerializedScene) scene.ValidationResult {
	var result scene.ValidationResult
	for _, e := range s.Entities {
		if _, ok := e.Components["Transform"]; !ok {
			result.Violations = append(result.Violations, scene.Violation{
				Rule:     r.Name(),
				Severity: scene.SeverityWarn,
				EntityID: e.PersistentID,
				Message:  "entity has no Transform component",
			})
		}
	}
	return result
}
