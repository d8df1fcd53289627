package loader

import (
	"fmt"

	"scenecore/pkg/scene"
)

// CheckSchema verifies the structural shape of a serialized scene before any
// mutation happens. All violations are aggregated into one scene.SchemaError
// so callers see everything wrong at once instead of fixing one field per
// attempt.
func CheckSchema(s *scene.SerializedScene) error {
	if s == nil {
		return scene.SchemaError{Violations: []string{"scene payload is nil"}}
	}
	var violations []string
	if s.Metadata.Name == "" {
		violations = append(violations, "metadata.name is required")
	}
	if s.Metadata.Version <= 0 {
		violations = append(violations, "metadata.version must be a positive integer")
	}
	for i, e := range s.Entities {
		if e.PersistentID == "" && e.LegacyID == "" {
			violations = append(violations, fmt.Sprintf("entities[%d]: persistentId is required", i))
		}
		if e.Components == nil {
			violations = append(violations, fmt.Sprintf("entities[%d] (%s): components map is required", i, e.PersistentID))
		}
	}
	for i, m := range s.Materials {
		if m.ID == "" {
			violations = append(violations, fmt.Sprintf("materials[%d]: id is required", i))
		}
	}
	for i, p := range s.Prefabs {
		if p.ID == "" {
			violations = append(violations, fmt.Sprintf("prefabs[%d]: id is required", i))
		}
	}
	if len(violations) > 0 {
		return scene.SchemaError{Violations: violations}
	}
	return nil
}

// CheckOverridesSchema verifies the structural shape of an overrides file.
func CheckOverridesSchema(o *scene.OverridesFile) error {
	if o == nil {
		return scene.SchemaError{Violations: []string{"overrides payload is nil"}}
	}
	var violations []string
	if o.SceneID == "" {
		violations = append(violations, "sceneId is required")
	}
	for i, p := range o.Patches {
		if p.PersistentID == "" {
			violations = append(violations, fmt.Sprintf("patches[%d]: persistentId is required", i))
		}
		if p.Components == nil {
			violations = append(violations, fmt.Sprintf("patches[%d] (%s): components map is required", i, p.PersistentID))
		}
	}
	if len(violations) > 0 {
		return scene.SchemaError{Violations: violations}
	}
	return nil
}
