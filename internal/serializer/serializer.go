// Package serializer converts the live entity graph and component store
// into the portable SerializedScene representation. Material and prefab
// registries are emitted as deduplicated side tables referenced by id;
// component payloads are compressed against the defaults registry unless a
// full dump is requested.
package serializer

import (
	"encoding/json"
	"time"

	"scenecore/internal/codec"
	"scenecore/internal/graph"
	"scenecore/internal/registry"
	"scenecore/pkg/scene"
)

// Options controls a single serialization pass.
type Options struct {
	// CompressionEnabled applies default omission to component payloads.
	// Disable it for cross-tool export, where the consumer's defaults may
	// differ from ours and every field must be spelled out.
	CompressionEnabled bool
	// Now supplies the metadata timestamp; defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options used for regular saves.
func DefaultOptions() Options {
	return Options{CompressionEnabled: true}
}

// Input bundles the stores a serialization pass reads from.
type Input struct {
	Graph           *graph.Graph
	Components      *graph.ComponentStore
	Materials       *registry.Materials
	Prefabs         *registry.Prefabs
	InputAssets     json.RawMessage
	LockedEntityIDs []string
}

// Serializer orchestrates per-kind serialization units into one
// SerializedScene value.
type Serializer struct {
	codec *codec.Codec
}

// New constructs a serializer over the given codec.
func New(c *codec.Codec) *Serializer {
	return &Serializer{codec: c}
}

// Serialize emits a portable snapshot of the graph. Entities appear in
// creation order so output is stable across runs; the metadata version and
// timestamp are stamped here.
func (s *Serializer) Serialize(in Input, meta scene.Metadata, opts Options) *scene.SerializedScene {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	ts := now().UTC()

	meta.Version = scene.CurrentVersion
	meta.Timestamp = ts.Format(time.RFC3339)

	out := &scene.SerializedScene{Metadata: meta}

	var refs []scene.AssetReference
	seenRefs := make(map[string]struct{})
	for _, h := range in.Graph.Entities() {
		entity, entityRefs := s.serializeEntity(in.Graph, in.Components, h, opts, ts)
		out.Entities = append(out.Entities, entity)
		for _, ref := range entityRefs {
			if _, dup := seenRefs[ref.Path]; dup {
				continue
			}
			seenRefs[ref.Path] = struct{}{}
			refs = append(refs, ref)
		}
	}
	out.AssetReferences = refs

	if in.Materials != nil {
		out.Materials = in.Materials.List()
	}
	if in.Prefabs != nil {
		out.Prefabs = in.Prefabs.List()
	}
	if in.InputAssets != nil {
		out.InputAssets = append(json.RawMessage(nil), in.InputAssets...)
	}
	if in.LockedEntityIDs != nil {
		out.LockedEntityIDs = append([]string(nil), in.LockedEntityIDs...)
	}
	return out
}
