package serializer

import (
	"time"

	"scenecore/internal/graph"
	"scenecore/pkg/scene"
)

// serializeEntity emits one entity: identity, name, parent reference and
// its components. Identity travels as entity-level metadata, never as a
// component payload. Inline script payloads with an external counterpart
// are replaced by reference descriptors, returned for the scene-level
// assetReferences table.
func (s *Serializer) serializeEntity(g *graph.Graph, comps *graph.ComponentStore, h graph.Handle, opts Options, now time.Time) (scene.SerializedEntity, []scene.AssetReference) {
	persistentID, _ := g.PersistentID(h)
	name, _ := g.Name(h)

	out := scene.SerializedEntity{
		PersistentID: persistentID,
		Name:         name,
		Components:   make(map[string]scene.ComponentData),
	}
	if parent := g.Parent(h); parent != graph.None {
		if parentID, ok := g.PersistentID(parent); ok {
			out.ParentPersistentID = parentID
		}
	}

	var refs []scene.AssetReference
	for _, componentType := range comps.Types(h) {
		data, ok := comps.Get(h, componentType)
		if !ok {
			continue
		}
		data, ref := s.codec.ExternalizeScript(componentType, data, now)
		if ref != nil {
			refs = append(refs, *ref)
		}
		if opts.CompressionEnabled {
			data = s.codec.Compress(componentType, data)
		}
		out.Components[componentType] = data
	}
	return out, refs
}
