// Package graph owns the runtime entity handles, names and hierarchy, plus
// the per-entity component store. Handles are ephemeral arena slots and have
// no meaning outside one running session; the persistent id registered with
// each entity is the only identity that survives serialization.
package graph

import (
	"github.com/google/uuid"

	"scenecore/pkg/scene"
)

// Handle is an ephemeral arena reference to a live entity. The generation
// guards against stale handles reaching a recycled slot. The zero Handle is
// never valid.
type Handle struct {
	Index      uint32
	Generation uint32
}

// None is the invalid handle, used as "no parent".
var None = Handle{}

type slot struct {
	generation   uint32
	alive        bool
	name         string
	persistentID string
	parent       Handle
	children     []Handle
}

// Graph is the entity graph store. It is not internally locked: all mutation
// happens on one logical thread by contract.
type Graph struct {
	slots  []slot
	free   []uint32
	byID   map[string]Handle
	order  []Handle
	nextID func() string
}

// New constructs an empty graph. Persistent ids are auto-generated as UUIDs
// when the caller does not supply one.
func New() *Graph {
	return &Graph{
		byID:   make(map[string]Handle),
		nextID: func() string { return uuid.NewString() },
	}
}

// CreateEntity allocates a handle, registers the id<->handle mapping and
// attaches the entity to parent (or to the root when parent is None). An
// empty persistentID is auto-generated; a persistentID already present in
// the graph is rejected, since ids are unique within a scene.
func (g *Graph) CreateEntity(name string, parent Handle, persistentID string) (Handle, error) {
	if persistentID == "" {
		persistentID = g.nextID()
	}
	if _, exists := g.byID[persistentID]; exists {
		return None, scene.ValidationError{Result: scene.ValidationResult{Violations: []scene.Violation{{
			Rule:     "unique-persistent-id",
			Severity: scene.SeverityBlock,
			EntityID: persistentID,
			Message:  "persistent id already registered",
		}}}}
	}
	if parent != None && !g.Alive(parent) {
		return None, scene.NotFoundError{Kind: "entity", ID: "parent handle"}
	}

	var h Handle
	if n := len(g.free); n > 0 {
		idx := g.free[n-1]
		g.free = g.free[:n-1]
		s := &g.slots[idx]
		s.alive = true
		s.name = name
		s.persistentID = persistentID
		s.parent = None
		s.children = nil
		h = Handle{Index: idx, Generation: s.generation}
	} else {
		g.slots = append(g.slots, slot{
			generation:   1,
			alive:        true,
			name:         name,
			persistentID: persistentID,
		})
		h = Handle{Index: uint32(len(g.slots) - 1), Generation: 1}
	}

	g.byID[persistentID] = h
	g.order = append(g.order, h)
	if parent != None {
		g.attach(h, parent)
	}
	return h, nil
}

// Alive reports whether the handle refers to a live entity.
func (g *Graph) Alive(h Handle) bool {
	if h == None || int(h.Index) >= len(g.slots) {
		return false
	}
	s := g.slots[h.Index]
	return s.alive && s.generation == h.Generation
}

// Name returns the entity's name.
func (g *Graph) Name(h Handle) (string, bool) {
	if !g.Alive(h) {
		return "", false
	}
	return g.slots[h.Index].name, true
}

// PersistentID returns the entity's durable identifier.
func (g *Graph) PersistentID(h Handle) (string, bool) {
	if !g.Alive(h) {
		return "", false
	}
	return g.slots[h.Index].persistentID, true
}

// HandleFor resolves a persistent id to the live handle, if any.
func (g *Graph) HandleFor(persistentID string) (Handle, bool) {
	h, ok := g.byID[persistentID]
	return h, ok
}

// Parent returns the entity's parent handle, or None for root entities.
func (g *Graph) Parent(h Handle) Handle {
	if !g.Alive(h) {
		return None
	}
	return g.slots[h.Index].parent
}

// Children returns the entity's children in attachment order.
func (g *Graph) Children(h Handle) []Handle {
	if !g.Alive(h) {
		return nil
	}
	return append([]Handle(nil), g.slots[h.Index].children...)
}

// SetParent re-parents child under parent (None detaches to the root). The
// operation is rejected with a CycleError before any mutation when parent is
// child itself or one of its descendants.
func (g *Graph) SetParent(child, parent Handle) error {
	if !g.Alive(child) {
		return scene.NotFoundError{Kind: "entity", ID: "child handle"}
	}
	if parent != None {
		if !g.Alive(parent) {
			return scene.NotFoundError{Kind: "entity", ID: "parent handle"}
		}
		// Walk up from the requested parent; hitting child means the
		// child is an ancestor of the parent and the edge would close a
		// cycle.
		for cur := parent; cur != None; cur = g.slots[cur.Index].parent {
			if cur == child {
				return scene.CycleError{EntityID: g.slots[child.Index].persistentID}
			}
		}
	}
	g.detach(child)
	if parent != None {
		g.attach(child, parent)
	}
	return nil
}

// DeleteEntity destroys the entity and all its descendants and detaches the
// subtree from its parent. Deleting a dead or stale handle is a no-op.
func (g *Graph) DeleteEntity(h Handle) {
	if !g.Alive(h) {
		return
	}
	g.detach(h)
	g.destroy(h)
}

func (g *Graph) destroy(h Handle) {
	s := &g.slots[h.Index]
	for _, child := range append([]Handle(nil), s.children...) {
		if g.Alive(child) {
			g.destroy(child)
		}
	}
	delete(g.byID, s.persistentID)
	g.removeFromOrder(h)
	s.alive = false
	s.generation++
	s.name = ""
	s.persistentID = ""
	s.parent = None
	s.children = nil
	g.free = append(g.free, h.Index)
}

// Clear destroys all entities and resets the arena.
func (g *Graph) Clear() {
	g.slots = nil
	g.free = nil
	g.order = nil
	g.byID = make(map[string]Handle)
}

// Entities returns all live handles in creation order.
func (g *Graph) Entities() []Handle {
	return append([]Handle(nil), g.order...)
}

// Len returns the number of live entities.
func (g *Graph) Len() int { return len(g.order) }

// Subtree returns h and all its live descendants, depth first. Callers use
// it to clean up per-entity state in sibling stores before a cascading
// delete.
func (g *Graph) Subtree(h Handle) []Handle {
	if !g.Alive(h) {
		return nil
	}
	out := []Handle{h}
	for _, child := range g.slots[h.Index].children {
		out = append(out, g.Subtree(child)...)
	}
	return out
}

// Roots returns the live handles that have no parent, in creation order.
func (g *Graph) Roots() []Handle {
	var out []Handle
	for _, h := range g.order {
		if g.slots[h.Index].parent == None {
			out = append(out, h)
		}
	}
	return out
}

func (g *Graph) attach(child, parent Handle) {
	g.slots[child.Index].parent = parent
	g.slots[parent.Index].children = append(g.slots[parent.Index].children, child)
}

func (g *Graph) detach(child Handle) {
	parent := g.slots[child.Index].parent
	if parent == None {
		return
	}
	siblings := g.slots[parent.Index].children
	for i, c := range siblings {
		if c == child {
			g.slots[parent.Index].children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	g.slots[child.Index].parent = None
}

func (g *Graph) removeFromOrder(h Handle) {
	for i, cur := range g.order {
		if cur == h {
			g.order = append(g.order[:i], g.order[i+1:]...)
			return
		}
	}
}
