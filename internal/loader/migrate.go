package loader

import (
	"fmt"

	"scenecore/pkg/scene"
)

// MigrateLegacy assigns persistent ids to entities written before persistent
// ids existed. The mapping is deterministic: an entity that carried a
// session-scoped numeric id becomes "legacy-<id>", one that carried nothing
// becomes "legacy-<position>". Parent references that pointed at a legacy id
// are rewritten to the new ids, and payloads that predate the version field
// are stamped with the current version so the schema gate accepts them.
// Entities that already have a persistent id are left alone, so migrating a
// current scene is a no-op.
func MigrateLegacy(s *scene.SerializedScene) {
	if s == nil {
		return
	}
	if s.Metadata.Version <= 0 {
		s.Metadata.Version = scene.CurrentVersion
	}
	assigned := make(map[string]string)
	for i := range s.Entities {
		e := &s.Entities[i]
		if e.PersistentID != "" {
			continue
		}
		original := string(e.LegacyID)
		if original == "" {
			original = fmt.Sprintf("%d", i)
		}
		e.PersistentID = "legacy-" + original
		if string(e.LegacyID) != "" {
			assigned[string(e.LegacyID)] = e.PersistentID
		}
		e.LegacyID = ""
	}
	for i := range s.Entities {
		e := &s.Entities[i]
		if mapped, ok := assigned[e.ParentPersistentID]; ok {
			e.ParentPersistentID = mapped
		}
	}
}
