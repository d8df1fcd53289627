// Package loader reconstructs a live entity graph from a serialized scene.
// Loading is phased so that nothing is mutated until the payload has passed
// the schema check and the structural validator; after that point the load
// is best-effort per entity, with every skipped item reported in the result.
package loader

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"scenecore/internal/codec"
	"scenecore/internal/graph"
	"scenecore/internal/registry"
	"scenecore/internal/scriptstore"
	"scenecore/internal/validator"
	"scenecore/pkg/scene"
)

// Target is the set of stores a scene is loaded into.
type Target struct {
	Graph      *graph.Graph
	Components *graph.ComponentStore
	Materials  *registry.Materials
	Prefabs    *registry.Prefabs
}

// Options controls one load.
type Options struct {
	// ClearBefore empties the target stores before loading. When false the
	// scene is loaded additively into whatever is already there.
	ClearBefore bool
}

// Issue records one item the loader skipped or degraded while completing the
// rest of the load.
type Issue struct {
	PersistentID string
	Component    string
	Message      string
}

// Result reports the outcome of a load.
type Result struct {
	// Handles maps persistent ids to the live handles created for them.
	Handles map[string]graph.Handle
	// InputAssets and LockedEntityIDs are carried through verbatim for the
	// caller's stores; the loader itself does not interpret them.
	InputAssets     []byte
	LockedEntityIDs []string
	// Issues lists every item that was skipped or loaded degraded.
	Issues []Issue
}

// Loader rebuilds graph state from serialized scenes.
type Loader struct {
	codec     *codec.Codec
	validator *validator.Engine
	scripts   scriptstore.Store
	logger    *zap.Logger
}

// Config wires a loader's collaborators. Validator and Scripts may be nil;
// a nil validator skips structural validation, a nil script store leaves
// external script descriptors unresolved.
type Config struct {
	Codec     *codec.Codec
	Validator *validator.Engine
	Scripts   scriptstore.Store
	Logger    *zap.Logger
}

// New constructs a loader.
func New(cfg Config) *Loader {
	c := cfg.Codec
	if c == nil {
		c = codec.New(codec.DefaultRegistry())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{codec: c, validator: cfg.Validator, scripts: cfg.Scripts, logger: logger}
}

// Load reconstructs the scene into the target stores.
//
// Phases: schema check and validation run first and fail the whole load
// without touching the target. Then materials and prefabs are upserted,
// entities are created (ids forced, no hierarchy yet), the hierarchy is
// wired, and finally components are attached. From entity creation onward
// failures are per-item: the failing entity or component is skipped,
// reported in Result.Issues, and the rest of the load completes.
func (l *Loader) Load(ctx context.Context, target Target, s *scene.SerializedScene, opts Options) (*Result, error) {
	if target.Graph == nil || target.Components == nil {
		return nil, fmt.Errorf("load target requires graph and component stores")
	}
	if err := CheckSchema(s); err != nil {
		return nil, err
	}
	if l.validator != nil {
		if result := l.validator.Validate(s); result.HasBlocking() {
			return nil, scene.ValidationError{Result: result}
		}
	}

	if opts.ClearBefore {
		target.Graph.Clear()
		target.Components.Clear()
		if target.Materials != nil {
			target.Materials.Clear()
		}
		if target.Prefabs != nil {
			target.Prefabs.Clear()
		}
	}

	if target.Materials != nil {
		for _, m := range s.Materials {
			target.Materials.Upsert(m)
		}
	}
	if target.Prefabs != nil {
		for _, p := range s.Prefabs {
			target.Prefabs.Upsert(p)
		}
	}

	res := &Result{Handles: make(map[string]graph.Handle, len(s.Entities))}
	if s.InputAssets != nil {
		res.InputAssets = append([]byte(nil), s.InputAssets...)
	}
	if s.LockedEntityIDs != nil {
		res.LockedEntityIDs = append([]string(nil), s.LockedEntityIDs...)
	}

	// Create all handles before wiring parents so forward references work
	// regardless of entity order in the payload.
	for _, e := range s.Entities {
		h, err := target.Graph.CreateEntity(e.Name, graph.None, e.PersistentID)
		if err != nil {
			l.logger.Warn("skipping entity",
				zap.String("persistentId", e.PersistentID),
				zap.Error(err))
			res.Issues = append(res.Issues, Issue{PersistentID: e.PersistentID, Message: err.Error()})
			continue
		}
		res.Handles[e.PersistentID] = h
	}

	for _, e := range s.Entities {
		h, ok := res.Handles[e.PersistentID]
		if !ok || e.ParentPersistentID == "" {
			continue
		}
		parent, ok := target.Graph.HandleFor(e.ParentPersistentID)
		if !ok {
			l.logger.Warn("parent not found, attaching entity at root",
				zap.String("persistentId", e.PersistentID),
				zap.String("parentPersistentId", e.ParentPersistentID))
			res.Issues = append(res.Issues, Issue{
				PersistentID: e.PersistentID,
				Message:      fmt.Sprintf("parent %q not found", e.ParentPersistentID),
			})
			continue
		}
		if err := target.Graph.SetParent(h, parent); err != nil {
			res.Issues = append(res.Issues, Issue{PersistentID: e.PersistentID, Message: err.Error()})
		}
	}

	for _, e := range s.Entities {
		h, ok := res.Handles[e.PersistentID]
		if !ok {
			continue
		}
		l.loadComponents(ctx, target, h, e, res)
	}
	return res, nil
}

// loadComponents attaches one entity's components in deterministic order.
func (l *Loader) loadComponents(ctx context.Context, target Target, h graph.Handle, e scene.SerializedEntity, res *Result) {
	types := make([]string, 0, len(e.Components))
	for t := range e.Components {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, componentType := range types {
		data := e.Components[componentType]
		if data == nil {
			data = scene.ComponentData{}
		}
		if !l.codec.Registry().Known(componentType) {
			l.logger.Warn("unknown component type, loading verbatim",
				zap.String("persistentId", e.PersistentID),
				zap.String("component", componentType))
			res.Issues = append(res.Issues, Issue{
				PersistentID: e.PersistentID,
				Component:    componentType,
				Message:      "unknown component type",
			})
		}
		restored := l.codec.Restore(componentType, data)
		restored = l.resolveScript(ctx, e.PersistentID, componentType, restored, res)

		// Merge over an existing instance instead of failing, so scenes can
		// layer over entities that already carry defaults.
		if target.Components.Has(h, componentType) {
			target.Components.Update(h, componentType, restored)
			continue
		}
		if err := target.Components.Add(h, componentType, restored); err != nil {
			res.Issues = append(res.Issues, Issue{PersistentID: e.PersistentID, Component: componentType, Message: err.Error()})
		}
	}
}

// resolveScript fetches externally stored script source referenced by the
// payload's descriptor. Resolution failures degrade the component (the
// descriptor stays, the code stays absent) and are reported, never fatal.
func (l *Loader) resolveScript(ctx context.Context, persistentID, componentType string, data scene.ComponentData, res *Result) scene.ComponentData {
	if componentType != codec.ScriptComponentType || l.scripts == nil {
		return data
	}
	ref, ok := codec.ExternalRef(data)
	if !ok {
		return data
	}
	content, err := l.scripts.Read(ctx, ref.ID)
	if err != nil {
		l.logger.Warn("external script unavailable",
			zap.String("persistentId", persistentID),
			zap.String("script", ref.ID),
			zap.Error(err))
		res.Issues = append(res.Issues, Issue{
			PersistentID: persistentID,
			Component:    componentType,
			Message:      fmt.Sprintf("external script %q unavailable: %v", ref.ID, err),
		})
		return data
	}
	if ref.ContentHash != "" && content.Hash != ref.ContentHash {
		conflict := scene.ConflictError{ID: ref.ID, Want: ref.ContentHash, Got: content.Hash}
		l.logger.Warn("external script hash mismatch, using stored content",
			zap.String("persistentId", persistentID),
			zap.String("script", ref.ID))
		res.Issues = append(res.Issues, Issue{
			PersistentID: persistentID,
			Component:    componentType,
			Message:      conflict.Error(),
		})
	}
	return codec.ResolveScript(data, content.Code)
}
