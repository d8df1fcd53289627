package validator

import (
	"testing"

	"scenecore/pkg/scene"
)

func entity(id, parent string) scene.SerializedEntity {
	return scene.SerializedEntity{
		PersistentID:       id,
		Name:               id,
		ParentPersistentID: parent,
		Components:         map[string]scene.ComponentData{"Transform": {}},
	}
}

func TestValidScenePasses(t *testing.T) {
	e := New(Config{})
	s := &scene.SerializedScene{Entities: []scene.SerializedEntity{
		entity("a", ""),
		entity("b", "a"),
		entity("c", "b"),
	}}
	result := e.Validate(s)
	if result.HasBlocking() {
		t.Fatalf("valid scene blocked: %+v", result.Blocking())
	}
	if len(result.Warnings()) != 0 {
		t.Fatalf("unexpected warnings: %+v", result.Warnings())
	}
}

func TestDuplicateIDBlocks(t *testing.T) {
	e := New(Config{})
	s := &scene.SerializedScene{Entities: []scene.SerializedEntity{
		entity("dup", ""),
		{PersistentID: "dup", Name: "other", Components: map[string]scene.ComponentData{"Transform": {}}},
	}}
	result := e.Validate(s)
	if !result.HasBlocking() {
		t.Fatal("duplicate id must block")
	}
	found := false
	for _, v := range result.Blocking() {
		if v.Rule == "unique-persistent-id" && v.EntityID == "dup" {
			found = true
		}
	}
	if !found {
		t.Fatalf("duplicate id not reported: %+v", result.Blocking())
	}
}

func TestEmptyIDBlocks(t *testing.T) {
	e := New(Config{})
	s := &scene.SerializedScene{Entities: []scene.SerializedEntity{
		{Name: "anon", Components: map[string]scene.ComponentData{"Transform": {}}},
	}}
	if !e.Validate(s).HasBlocking() {
		t.Fatal("missing persistent id must block")
	}
}

func TestOrphanParentBlocks(t *testing.T) {
	e := New(Config{})
	s := &scene.SerializedScene{Entities: []scene.SerializedEntity{
		entity("a", "ghost"),
	}}
	result := e.Validate(s)
	if !result.HasBlocking() {
		t.Fatal("orphaned parent must block")
	}
	v := result.Blocking()[0]
	if v.Rule != "resolvable-parent" || v.EntityID != "a" {
		t.Fatalf("unexpected violation: %+v", v)
	}
}

func TestCycleBlocks(t *testing.T) {
	e := New(Config{})
	// A -> B -> C -> A parent chain.
	s := &scene.SerializedScene{Entities: []scene.SerializedEntity{
		entity("a", "b"),
		entity("b", "c"),
		entity("c", "a"),
	}}
	result := e.Validate(s)
	var cycle scene.Violation
	for _, v := range result.Blocking() {
		if v.Rule == "acyclic-hierarchy" {
			cycle = v
		}
	}
	if cycle.Rule == "" {
		t.Fatalf("cycle not reported: %+v", result.Violations)
	}
	if cycle.EntityID == "" {
		t.Fatal("cycle violation must name the closing entity")
	}
}

func TestSelfParentBlocks(t *testing.T) {
	e := New(Config{})
	s := &scene.SerializedScene{Entities: []scene.SerializedEntity{
		entity("loop", "loop"),
	}}
	blocked := false
	for _, v := range e.Validate(s).Blocking() {
		if v.Rule == "acyclic-hierarchy" {
			blocked = true
		}
	}
	if !blocked {
		t.Fatal("self-parenting must block")
	}
}

func TestDiamondIsNotACycle(t *testing.T) {
	// Two chains converging on one ancestor must not be misreported.
	e := New(Config{})
	s := &scene.SerializedScene{Entities: []scene.SerializedEntity{
		entity("root", ""),
		entity("left", "root"),
		entity("right", "root"),
		entity("leaf-l", "left"),
		entity("leaf-r", "right"),
	}}
	for _, v := range e.Validate(s).Blocking() {
		if v.Rule == "acyclic-hierarchy" {
			t.Fatalf("false cycle: %+v", v)
		}
	}
}

func TestDuplicateNamesWarn(t *testing.T) {
	e := New(Config{})
	s := &scene.SerializedScene{Entities: []scene.SerializedEntity{
		{PersistentID: "a", Name: "Cube", Components: map[string]scene.ComponentData{"Transform": {}}},
		{PersistentID: "b", Name: "Cube", Components: map[string]scene.ComponentData{"Transform": {}}},
	}}
	result := e.Validate(s)
	if result.HasBlocking() {
		t.Fatalf("duplicate names must not block: %+v", result.Blocking())
	}
	warned := 0
	for _, v := range result.Warnings() {
		if v.Rule == "distinct-names" {
			warned++
		}
	}
	if warned != 2 {
		t.Fatalf("expected 2 name warnings, got %d", warned)
	}
}

func TestMissingTransformWarns(t *testing.T) {
	e := New(Config{})
	s := &scene.SerializedScene{Entities: []scene.SerializedEntity{
		{PersistentID: "a", Name: "bare", Components: map[string]scene.ComponentData{}},
	}}
	result := e.Validate(s)
	if result.HasBlocking() {
		t.Fatal("missing Transform must not block")
	}
	if len(result.Warnings()) == 0 {
		t.Fatal("missing Transform must warn")
	}
}

func TestEntityCapPolicy(t *testing.T) {
	s := &scene.SerializedScene{Entities: []scene.SerializedEntity{
		entity("a", ""), entity("b", ""), entity("c", ""),
	}}

	warnEngine := New(Config{MaxEntities: 2})
	result := warnEngine.Validate(s)
	if result.HasBlocking() {
		t.Fatal("cap without Fatal must warn, not block")
	}
	warnings := result.Warnings()
	if len(warnings) == 0 {
		t.Fatal("cap exceeded must warn")
	}
	want := scene.ResourceLimitError{Count: 3, Limit: 2}.Error()
	if warnings[0].Message != want {
		t.Fatalf("cap message %q, want %q", warnings[0].Message, want)
	}

	fatalEngine := New(Config{MaxEntities: 2, CapFatal: true})
	if !fatalEngine.Validate(s).HasBlocking() {
		t.Fatal("cap with Fatal must block")
	}

	under := New(Config{MaxEntities: 3})
	res := under.Validate(s)
	for _, v := range res.Violations {
		if v.Rule == "entity-cap" {
			t.Fatalf("cap not exceeded but reported: %+v", v)
		}
	}
}
