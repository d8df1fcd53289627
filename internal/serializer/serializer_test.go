package serializer

import (
	"encoding/json"
	"testing"
	"time"

	"scenecore/internal/codec"
	"scenecore/internal/graph"
	"scenecore/internal/registry"
	"scenecore/pkg/scene"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testStores(t *testing.T) (*graph.Graph, *graph.ComponentStore) {
	t.Helper()
	return graph.New(), graph.NewComponentStore()
}

func TestSerializeBasicScene(t *testing.T) {
	g, comps := testStores(t)
	root, _ := g.CreateEntity("Root", graph.None, "root")
	child, _ := g.CreateEntity("Child", root, "child")
	_ = comps.Add(root, "Transform", scene.ComponentData{
		"position": []any{1.0, 0.0, 0.0},
		"rotation": []any{0.0, 0.0, 0.0},
		"scale":    []any{1.0, 1.0, 1.0},
	})
	_ = comps.Add(child, "Transform", scene.ComponentData{
		"position": []any{0.0, 0.0, 0.0},
		"rotation": []any{0.0, 0.0, 0.0},
		"scale":    []any{1.0, 1.0, 1.0},
	})

	s := New(codec.New(codec.DefaultRegistry()))
	out := s.Serialize(Input{Graph: g, Components: comps}, scene.Metadata{Name: "main"}, Options{
		CompressionEnabled: true,
		Now:                fixedNow,
	})

	if out.Metadata.Version != scene.CurrentVersion {
		t.Fatalf("version %d, want %d", out.Metadata.Version, scene.CurrentVersion)
	}
	if out.Metadata.Timestamp != "2025-06-01T12:00:00Z" {
		t.Fatalf("timestamp %q", out.Metadata.Timestamp)
	}
	if len(out.Entities) != 2 {
		t.Fatalf("entities %d, want 2", len(out.Entities))
	}
	if out.Entities[0].PersistentID != "root" || out.Entities[1].PersistentID != "child" {
		t.Fatalf("creation order not preserved: %v", out.Entities)
	}
	if out.Entities[1].ParentPersistentID != "root" {
		t.Fatalf("parent ref missing: %+v", out.Entities[1])
	}

	// Root moved from the default position; only that field survives.
	rootTransform := out.Entities[0].Components["Transform"]
	if len(rootTransform) != 1 {
		t.Fatalf("compression left %d fields: %v", len(rootTransform), rootTransform)
	}
	// Child is all defaults; its Transform compresses to empty.
	if len(out.Entities[1].Components["Transform"]) != 0 {
		t.Fatalf("all-default component not empty: %v", out.Entities[1].Components["Transform"])
	}
}

func TestSerializeFullDump(t *testing.T) {
	g, comps := testStores(t)
	h, _ := g.CreateEntity("Cube", graph.None, "cube")
	full := scene.ComponentData{
		"position": []any{0.0, 0.0, 0.0},
		"rotation": []any{0.0, 0.0, 0.0},
		"scale":    []any{1.0, 1.0, 1.0},
	}
	_ = comps.Add(h, "Transform", full)

	s := New(codec.New(codec.DefaultRegistry()))
	out := s.Serialize(Input{Graph: g, Components: comps}, scene.Metadata{Name: "main"}, Options{
		CompressionEnabled: false,
		Now:                fixedNow,
	})

	got := out.Entities[0].Components["Transform"]
	if !scene.DeepEqual(map[string]any(got), map[string]any(full)) {
		t.Fatalf("full dump altered payload: %v", got)
	}
}

func TestSerializeSideTables(t *testing.T) {
	g, comps := testStores(t)
	_, _ = g.CreateEntity("Cube", graph.None, "cube")
	materials := registry.NewMaterials()
	materials.Upsert(scene.MaterialDef{ID: "m2", Name: "Metal"})
	materials.Upsert(scene.MaterialDef{ID: "m1", Name: "Wood"})
	prefabs := registry.NewPrefabs()
	prefabs.Upsert(scene.PrefabDef{ID: "p1", Name: "Tree"})

	s := New(codec.New(codec.DefaultRegistry()))
	out := s.Serialize(Input{
		Graph:           g,
		Components:      comps,
		Materials:       materials,
		Prefabs:         prefabs,
		InputAssets:     json.RawMessage(`{"bindings":[]}`),
		LockedEntityIDs: []string{"cube"},
	}, scene.Metadata{Name: "main"}, Options{CompressionEnabled: true, Now: fixedNow})

	if len(out.Materials) != 2 || out.Materials[0].ID != "m1" {
		t.Fatalf("materials not sorted side table: %v", out.Materials)
	}
	if len(out.Prefabs) != 1 || out.Prefabs[0].ID != "p1" {
		t.Fatalf("prefabs missing: %v", out.Prefabs)
	}
	if string(out.InputAssets) != `{"bindings":[]}` {
		t.Fatalf("input assets not carried: %s", out.InputAssets)
	}
	if len(out.LockedEntityIDs) != 1 || out.LockedEntityIDs[0] != "cube" {
		t.Fatalf("locked ids not carried: %v", out.LockedEntityIDs)
	}
}

func TestSerializeExternalizesScripts(t *testing.T) {
	g, comps := testStores(t)
	a, _ := g.CreateEntity("A", graph.None, "a")
	b, _ := g.CreateEntity("B", graph.None, "b")
	code := "console:log('tick')"
	for _, h := range []graph.Handle{a, b} {
		_ = comps.Add(h, "Script", scene.ComponentData{
			"enabled":    true,
			"code":       code,
			"scriptPath": "scripts/tick.lua",
		})
	}

	s := New(codec.New(codec.DefaultRegistry()))
	out := s.Serialize(Input{Graph: g, Components: comps}, scene.Metadata{Name: "main"}, Options{
		CompressionEnabled: true,
		Now:                fixedNow,
	})

	// Two entities share the script; the reference is recorded once.
	if len(out.AssetReferences) != 1 {
		t.Fatalf("asset references %d, want 1", len(out.AssetReferences))
	}
	ref := out.AssetReferences[0]
	if ref.Path != "scripts/tick.lua" || ref.ContentHash != scene.HashContent(code) {
		t.Fatalf("reference wrong: %+v", ref)
	}
	for _, e := range out.Entities {
		if _, ok := e.Components["Script"]["code"]; ok {
			t.Fatalf("inline code leaked into %s", e.PersistentID)
		}
		if _, ok := e.Components["Script"]["scriptRef"]; !ok {
			t.Fatalf("descriptor missing on %s", e.PersistentID)
		}
	}
}
