// Package registry provides the string-keyed material and prefab stores the
// loader populates before entities are created. The core only depends on
// load ordering (materials before prefabs before entities); richer asset
// management belongs to the callers that own these registries.
package registry

import (
	"sort"
	"sync"

	"scenecore/pkg/scene"
)

// Materials is an upsert store of material definitions keyed by id.
type Materials struct {
	mu   sync.RWMutex
	defs map[string]scene.MaterialDef
}

// NewMaterials constructs an empty material registry.
func NewMaterials() *Materials {
	return &Materials{defs: make(map[string]scene.MaterialDef)}
}

// Upsert inserts or replaces a definition.
func (m *Materials) Upsert(def scene.MaterialDef) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if def.Properties != nil {
		def.Properties = scene.CloneMap(def.Properties)
	}
	m.defs[def.ID] = def
}

// Get retrieves a definition by id.
func (m *Materials) Get(id string) (scene.MaterialDef, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.defs[id]
	if !ok {
		return scene.MaterialDef{}, false
	}
	if def.Properties != nil {
		def.Properties = scene.CloneMap(def.Properties)
	}
	return def, true
}

// List returns all definitions sorted by id.
func (m *Materials) List() []scene.MaterialDef {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]scene.MaterialDef, 0, len(m.defs))
	for _, def := range m.defs {
		if def.Properties != nil {
			def.Properties = scene.CloneMap(def.Properties)
		}
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear removes all definitions.
func (m *Materials) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defs = make(map[string]scene.MaterialDef)
}

// Len returns the number of stored definitions.
func (m *Materials) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.defs)
}

// Prefabs is an upsert store of prefab definitions keyed by id.
type Prefabs struct {
	mu   sync.RWMutex
	defs map[string]scene.PrefabDef
}

// NewPrefabs constructs an empty prefab registry.
func NewPrefabs() *Prefabs {
	return &Prefabs{defs: make(map[string]scene.PrefabDef)}
}

// Upsert inserts or replaces a definition.
func (p *Prefabs) Upsert(def scene.PrefabDef) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defs[def.ID] = clonePrefab(def)
}

// Get retrieves a definition by id.
func (p *Prefabs) Get(id string) (scene.PrefabDef, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	def, ok := p.defs[id]
	if !ok {
		return scene.PrefabDef{}, false
	}
	return clonePrefab(def), true
}

// List returns all definitions sorted by id.
func (p *Prefabs) List() []scene.PrefabDef {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]scene.PrefabDef, 0, len(p.defs))
	for _, def := range p.defs {
		out = append(out, clonePrefab(def))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear removes all definitions.
func (p *Prefabs) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defs = make(map[string]scene.PrefabDef)
}

// Len returns the number of stored definitions.
func (p *Prefabs) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.defs)
}

func clonePrefab(def scene.PrefabDef) scene.PrefabDef {
	cp := scene.PrefabDef{ID: def.ID, Name: def.Name}
	if def.Entities != nil {
		cp.Entities = make([]scene.SerializedEntity, len(def.Entities))
		for i, e := range def.Entities {
			cp.Entities[i] = e.Clone()
		}
	}
	return cp
}
