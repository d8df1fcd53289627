package graph

import (
	"sort"

	"scenecore/pkg/scene"
)

// ComponentStore holds per-entity, per-type structured component data. At
// most one instance of a type exists per entity. Data handed out is always a
// deep copy so callers cannot alias store state.
type ComponentStore struct {
	data map[Handle]map[string]scene.ComponentData
}

// NewComponentStore constructs an empty store.
func NewComponentStore() *ComponentStore {
	return &ComponentStore{data: make(map[Handle]map[string]scene.ComponentData)}
}

// Add attaches a component of the given type. Adding a type the entity
// already carries fails with DuplicateComponentError.
func (cs *ComponentStore) Add(h Handle, componentType string, data scene.ComponentData) error {
	entity := cs.data[h]
	if entity == nil {
		entity = make(map[string]scene.ComponentData)
		cs.data[h] = entity
	}
	if _, exists := entity[componentType]; exists {
		return scene.DuplicateComponentError{Type: componentType}
	}
	entity[componentType] = scene.CloneMap(data)
	return nil
}

// Update merges delta into the existing component data: nested maps merge
// key by key, slices and primitives are replaced wholesale, a nil value
// deletes its key. Updating an absent component installs the delta as the
// full value.
func (cs *ComponentStore) Update(h Handle, componentType string, delta scene.ComponentData) {
	entity := cs.data[h]
	if entity == nil {
		entity = make(map[string]scene.ComponentData)
		cs.data[h] = entity
	}
	entity[componentType] = scene.MergeComponent(entity[componentType], delta)
}

// Remove detaches a component. Removing an absent component is a no-op.
func (cs *ComponentStore) Remove(h Handle, componentType string) {
	if entity := cs.data[h]; entity != nil {
		delete(entity, componentType)
		if len(entity) == 0 {
			delete(cs.data, h)
		}
	}
}

// Get returns a deep copy of the component data.
func (cs *ComponentStore) Get(h Handle, componentType string) (scene.ComponentData, bool) {
	entity := cs.data[h]
	if entity == nil {
		return nil, false
	}
	data, ok := entity[componentType]
	if !ok {
		return nil, false
	}
	return scene.CloneMap(data), true
}

// Has reports whether the entity carries the component type.
func (cs *ComponentStore) Has(h Handle, componentType string) bool {
	entity := cs.data[h]
	if entity == nil {
		return false
	}
	_, ok := entity[componentType]
	return ok
}

// Types returns the entity's component type tags in sorted order.
func (cs *ComponentStore) Types(h Handle) []string {
	entity := cs.data[h]
	if len(entity) == 0 {
		return nil
	}
	out := make([]string, 0, len(entity))
	for t := range entity {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// DropEntity discards all components of an entity. Called by owners when the
// entity is destroyed.
func (cs *ComponentStore) DropEntity(h Handle) {
	delete(cs.data, h)
}

// Clear discards every component of every entity.
func (cs *ComponentStore) Clear() {
	cs.data = make(map[Handle]map[string]scene.ComponentData)
}
