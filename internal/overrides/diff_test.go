package overrides

import (
	"testing"
	"time"

	"scenecore/pkg/scene"
)

func diffOpts() DiffOptions {
	return DiffOptions{
		SceneID: "main",
		Now:     func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func baseScene() *scene.SerializedScene {
	return &scene.SerializedScene{
		Metadata: scene.Metadata{Name: "main", Version: 1},
		Entities: []scene.SerializedEntity{{
			PersistentID: "p1",
			Name:         "Cube",
			Components: map[string]scene.ComponentData{
				"Transform": {"position": []any{0.0, 0.0, 0.0}},
			},
		}},
	}
}

func TestDiffNoChanges(t *testing.T) {
	got := DiffAgainstBase(baseScene(), baseScene(), diffOpts())
	if len(got.Patches) != 0 {
		t.Fatalf("identical scenes produced patches: %+v", got.Patches)
	}
	if got.SceneID != "main" || got.Timestamp != "2025-06-01T12:00:00Z" {
		t.Fatalf("envelope wrong: %+v", got)
	}
}

func TestDiffChangedAndAddedEntity(t *testing.T) {
	base := baseScene()
	current := baseScene()
	current.Entities[0].Components["Transform"]["position"] = []any{1.0, 0.0, 0.0}
	current.Entities = append(current.Entities, scene.SerializedEntity{
		PersistentID: "p2",
		Name:         "Light",
		Components:   map[string]scene.ComponentData{"Light": {"intensity": 2.0}},
	})

	got := DiffAgainstBase(base, current, diffOpts())
	if len(got.Patches) != 2 {
		t.Fatalf("patches %d, want 2: %+v", len(got.Patches), got.Patches)
	}

	moved := got.Patches[0]
	if moved.PersistentID != "p1" || moved.EntityName != "" {
		t.Fatalf("changed-entity patch wrong: %+v", moved)
	}
	if !scene.DeepEqual(moved.Components["Transform"]["position"], []any{1.0, 0.0, 0.0}) {
		t.Fatalf("delta wrong: %v", moved.Components)
	}
	if len(moved.Components["Transform"]) != 1 {
		t.Fatalf("unchanged keys leaked into delta: %v", moved.Components["Transform"])
	}

	added := got.Patches[1]
	if added.PersistentID != "p2" || added.EntityName != "Light" {
		t.Fatalf("added-entity patch wrong: %+v", added)
	}
	if added.Components["Light"]["intensity"] != 2.0 {
		t.Fatalf("added entity components not verbatim: %v", added.Components)
	}
}

func TestDiffRemovedEntity(t *testing.T) {
	base := baseScene()
	base.Entities = append(base.Entities, scene.SerializedEntity{
		PersistentID: "p2",
		Name:         "Light",
		Components:   map[string]scene.ComponentData{"Light": {}},
	})
	current := baseScene()

	got := DiffAgainstBase(base, current, diffOpts())
	if len(got.Patches) != 1 {
		t.Fatalf("patches %+v", got.Patches)
	}
	if got.Patches[0].PersistentID != "p2" || !got.Patches[0].Deleted() {
		t.Fatalf("expected deletion marker: %+v", got.Patches[0])
	}
}

func TestDiffComponentAddRemove(t *testing.T) {
	base := baseScene()
	current := baseScene()
	delete(current.Entities[0].Components, "Transform")
	current.Entities[0].Components["Light"] = scene.ComponentData{"intensity": 3.0}

	got := DiffAgainstBase(base, current, diffOpts())
	patch := got.Patches[0]
	if v, ok := patch.Components["Transform"]; !ok || v != nil {
		t.Fatalf("removed component must map to null: %+v", patch.Components)
	}
	if patch.Components["Light"]["intensity"] != 3.0 {
		t.Fatalf("added component must be verbatim: %+v", patch.Components)
	}
}

func TestDiffNestedKeysAndArrays(t *testing.T) {
	base := &scene.SerializedScene{Entities: []scene.SerializedEntity{{
		PersistentID: "p1",
		Name:         "Body",
		Components: map[string]scene.ComponentData{
			"RigidBody": {
				"mass":     1.0,
				"material": map[string]any{"friction": 0.7, "restitution": 0.3},
				"offsets":  []any{1.0, 2.0, 3.0},
			},
		},
	}}}
	current := base.Clone()
	rb := current.Entities[0].Components["RigidBody"]
	rb["material"].(map[string]any)["friction"] = 0.9
	delete(rb["material"].(map[string]any), "restitution")
	rb["offsets"] = []any{1.0, 2.0}

	got := DiffAgainstBase(base, current, diffOpts())
	delta := got.Patches[0].Components["RigidBody"]

	mat := delta["material"].(map[string]any)
	if mat["friction"] != 0.9 {
		t.Fatalf("nested change missing: %v", delta)
	}
	if v, ok := mat["restitution"]; !ok || v != nil {
		t.Fatalf("removed nested key must be null: %v", mat)
	}
	// Arrays replace wholesale, never element-wise.
	if !scene.DeepEqual(delta["offsets"], []any{1.0, 2.0}) {
		t.Fatalf("array not replaced wholesale: %v", delta["offsets"])
	}
	if _, ok := delta["mass"]; ok {
		t.Fatalf("unchanged key leaked: %v", delta)
	}
}

func TestDiffRenameOnly(t *testing.T) {
	base := baseScene()
	current := baseScene()
	current.Entities[0].Name = "RenamedCube"

	got := DiffAgainstBase(base, current, diffOpts())
	if len(got.Patches) != 1 {
		t.Fatalf("patches %+v", got.Patches)
	}
	patch := got.Patches[0]
	if patch.EntityName != "RenamedCube" {
		t.Fatalf("rename not recorded: %+v", patch)
	}
	if len(patch.Components) != 0 {
		t.Fatalf("rename-only patch must carry no component deltas: %+v", patch.Components)
	}
}
