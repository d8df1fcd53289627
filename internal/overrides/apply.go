package overrides

import (
	"sort"

	"go.uber.org/zap"

	"scenecore/internal/graph"
	"scenecore/pkg/scene"
)

// Applier mutates a live graph according to an overrides file. Patches are
// applied independently: one patch failing is recorded and never blocks the
// rest.
type Applier struct {
	graph      *graph.Graph
	components *graph.ComponentStore
	logger     *zap.Logger
}

// NewApplier constructs an applier over the given stores. A nil logger
// defaults to a no-op logger.
func NewApplier(g *graph.Graph, components *graph.ComponentStore, logger *zap.Logger) *Applier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{graph: g, components: components, logger: logger}
}

// Issue records one patch item the applier skipped.
type Issue struct {
	PersistentID string
	Component    string
	Message      string
}

// Result reports the outcome of an apply.
type Result struct {
	Applied int
	Created []string
	Deleted []string
	Issues  []Issue
}

// CanApply reports whether the overrides file targets the given scene.
// A mismatched scene id is refused before any mutation.
func (a *Applier) CanApply(o *scene.OverridesFile, currentSceneID string) error {
	if o == nil {
		return scene.SchemaError{Violations: []string{"overrides payload is nil"}}
	}
	if o.SceneID != currentSceneID {
		return scene.ConflictError{ID: "sceneId", Want: currentSceneID, Got: o.SceneID}
	}
	return nil
}

// Apply applies every patch in the file. The persistent-id to handle map is
// rebuilt from the live graph on every call; handles from earlier calls are
// never trusted. Applying the same file twice leaves the graph unchanged
// the second time.
func (a *Applier) Apply(o *scene.OverridesFile) *Result {
	res := &Result{}
	if o == nil {
		return res
	}

	handles := make(map[string]graph.Handle, a.graph.Len())
	for _, h := range a.graph.Entities() {
		if id, ok := a.graph.PersistentID(h); ok {
			handles[id] = h
		}
	}

	for _, patch := range o.Patches {
		a.applyPatch(patch, handles, res)
	}
	return res
}

func (a *Applier) applyPatch(patch scene.OverridePatch, handles map[string]graph.Handle, res *Result) {
	if patch.PersistentID == "" {
		res.Issues = append(res.Issues, Issue{Message: "patch without persistent id"})
		return
	}

	if patch.Deleted() {
		h, ok := handles[patch.PersistentID]
		if !ok {
			// Already gone; deletion is idempotent.
			return
		}
		for _, d := range a.graph.Subtree(h) {
			if id, ok := a.graph.PersistentID(d); ok {
				delete(handles, id)
				res.Deleted = append(res.Deleted, id)
			}
			a.components.DropEntity(d)
		}
		a.graph.DeleteEntity(h)
		res.Applied++
		return
	}

	h, ok := handles[patch.PersistentID]
	if !ok {
		if patch.EntityName == "" {
			a.logger.Warn("patch references unknown entity without a name, skipping",
				zap.String("persistentId", patch.PersistentID))
			res.Issues = append(res.Issues, Issue{
				PersistentID: patch.PersistentID,
				Message:      "unknown entity and no name to create it with",
			})
			return
		}
		created, err := a.graph.CreateEntity(patch.EntityName, graph.None, patch.PersistentID)
		if err != nil {
			res.Issues = append(res.Issues, Issue{PersistentID: patch.PersistentID, Message: err.Error()})
			return
		}
		handles[patch.PersistentID] = created
		res.Created = append(res.Created, patch.PersistentID)
		// New entities get the patch components as full state, not deltas.
		for _, componentType := range sortedTypes(patch.Components) {
			data := patch.Components[componentType]
			if data == nil {
				continue
			}
			if err := a.components.Add(created, componentType, data); err != nil {
				res.Issues = append(res.Issues, Issue{PersistentID: patch.PersistentID, Component: componentType, Message: err.Error()})
			}
		}
		res.Applied++
		return
	}

	if patch.EntityName != "" {
		if name, ok := a.graph.Name(h); ok && name != patch.EntityName {
			// Renaming a live entity is not modeled; record the request.
			a.logger.Info("override requests entity rename, not applied",
				zap.String("persistentId", patch.PersistentID),
				zap.String("from", name),
				zap.String("to", patch.EntityName))
		}
	}

	for _, componentType := range sortedTypes(patch.Components) {
		if componentType == scene.DeletedMarker {
			continue
		}
		delta := patch.Components[componentType]
		if delta == nil {
			a.components.Remove(h, componentType)
			continue
		}
		if a.components.Has(h, componentType) {
			a.components.Update(h, componentType, delta)
			continue
		}
		if err := a.components.Add(h, componentType, delta); err != nil {
			res.Issues = append(res.Issues, Issue{PersistentID: patch.PersistentID, Component: componentType, Message: err.Error()})
		}
	}
	res.Applied++
}

func sortedTypes(components map[string]scene.ComponentData) []string {
	out := make([]string, 0, len(components))
	for t := range components {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
