// Package scene defines the portable wire representation of a serialized
// scene and its override (delta) format, together with the merge and
// equality algorithms shared by the codec, the component store and the
// override applier. The package is dependency-free so that collaborators
// (stores, tools, editors) can import it without pulling in the engine.
package scene

import "encoding/json"

// CurrentVersion is stamped into Metadata.Version by the serializer.
// The loader does not branch on it; legacy payloads are handled by a
// separate best-effort migration.
const CurrentVersion = 1

// DeletedMarker is the component-map key that marks an entity as removed
// in an override patch.
const DeletedMarker = "_deleted"

// ComponentData is the structured payload of a single component instance,
// keyed by field name. Values are JSON-shaped: nested maps, []any slices,
// strings, bools, and float64/int numbers.
type ComponentData = map[string]any

// Metadata describes a serialized scene.
type Metadata struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Timestamp   string `json:"timestamp"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
}

// SerializedEntity is the portable snapshot of one entity. ParentPersistentID
// is empty for root entities. Components maps component type tags to their
// (possibly default-omitted) payloads.
type SerializedEntity struct {
	PersistentID       string                   `json:"persistentId"`
	Name               string                   `json:"name,omitempty"`
	ParentPersistentID string                   `json:"parentPersistentId,omitempty"`
	Components         map[string]ComponentData `json:"components"`

	// LegacyID is the session-scoped numeric id older writers emitted
	// before persistent ids existed. It is never written back; migration
	// derives a deterministic persistent id from it.
	LegacyID json.Number `json:"id,omitempty"`
}

// MaterialDef is a deduplicated material side-table entry referenced by id
// from component fields; material payloads are never inlined into entities.
type MaterialDef struct {
	ID         string         `json:"id"`
	Name       string         `json:"name,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// PrefabDef is a deduplicated prefab side-table entry.
type PrefabDef struct {
	ID       string             `json:"id"`
	Name     string             `json:"name,omitempty"`
	Entities []SerializedEntity `json:"entities,omitempty"`
}

// AssetReference records the logical location of an externally stored
// payload (typically script source) that was stripped from the scene body.
type AssetReference struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Path         string `json:"path"`
	ContentHash  string `json:"contentHash,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
}

// AssetSourceExternal is the Source value for content resolved through the
// external script storage collaborator.
const AssetSourceExternal = "external"

// SerializedScene is the portable snapshot of a full scene: entities in
// creation order plus deduplicated side tables and optional auxiliary
// payloads owned by the caller's stores.
type SerializedScene struct {
	Metadata        Metadata           `json:"metadata"`
	Entities        []SerializedEntity `json:"entities"`
	Materials       []MaterialDef      `json:"materials,omitempty"`
	Prefabs         []PrefabDef        `json:"prefabs,omitempty"`
	InputAssets     json.RawMessage    `json:"inputAssets,omitempty"`
	LockedEntityIDs []string           `json:"lockedEntityIds,omitempty"`
	AssetReferences []AssetReference   `json:"assetReferences,omitempty"`
}

// OverridePatch is the delta for one entity relative to a base scene. A
// component value of nil means "remove component"; a Components map holding
// only {_deleted: true} means "remove entity". EntityName is set for newly
// added entities and for detected renames.
type OverridePatch struct {
	PersistentID string                   `json:"persistentId"`
	EntityName   string                   `json:"entityName,omitempty"`
	Components   map[string]ComponentData `json:"components"`
}

// Deleted reports whether the patch marks its entity as removed.
func (p OverridePatch) Deleted() bool {
	if len(p.Components) != 1 {
		return false
	}
	marker, ok := p.Components[DeletedMarker]
	if !ok {
		return false
	}
	return markerSet(marker)
}

// markerSet reads the in-memory deletion marker. An explicit
// {"value": false} opts out; a bare marker object counts as set.
func markerSet(data ComponentData) bool {
	if v, ok := data["value"]; ok {
		b, _ := v.(bool)
		return b
	}
	return data != nil
}

// overridePatchJSON is the wire shadow of OverridePatch. On the wire the
// deletion marker is a bare boolean ({"_deleted": true}); in memory every
// components value is a ComponentData map, so both directions translate the
// marker here.
type overridePatchJSON struct {
	PersistentID string                     `json:"persistentId"`
	EntityName   string                     `json:"entityName,omitempty"`
	Components   map[string]json.RawMessage `json:"components"`
}

// MarshalJSON implements json.Marshaler, emitting the deletion marker as the
// documented boolean.
func (p OverridePatch) MarshalJSON() ([]byte, error) {
	shadow := overridePatchJSON{PersistentID: p.PersistentID, EntityName: p.EntityName}
	if p.Components != nil {
		shadow.Components = make(map[string]json.RawMessage, len(p.Components))
		for t, data := range p.Components {
			var (
				raw []byte
				err error
			)
			if t == DeletedMarker {
				raw, err = json.Marshal(markerSet(data))
			} else {
				raw, err = json.Marshal(data)
			}
			if err != nil {
				return nil, err
			}
			shadow.Components[t] = raw
		}
	}
	return json.Marshal(shadow)
}

// UnmarshalJSON implements json.Unmarshaler, accepting the marker boolean.
func (p *OverridePatch) UnmarshalJSON(b []byte) error {
	var shadow overridePatchJSON
	if err := json.Unmarshal(b, &shadow); err != nil {
		return err
	}
	p.PersistentID = shadow.PersistentID
	p.EntityName = shadow.EntityName
	p.Components = nil
	if shadow.Components == nil {
		return nil
	}
	p.Components = make(map[string]ComponentData, len(shadow.Components))
	for t, raw := range shadow.Components {
		if t == DeletedMarker {
			var flag bool
			if err := json.Unmarshal(raw, &flag); err == nil {
				p.Components[t] = ComponentData{"value": flag}
				continue
			}
		}
		var data ComponentData
		if err := json.Unmarshal(raw, &data); err != nil {
			return err
		}
		p.Components[t] = data
	}
	return nil
}

// DeletedPatch builds the canonical removal patch for an entity.
func DeletedPatch(persistentID string) OverridePatch {
	return OverridePatch{
		PersistentID: persistentID,
		Components:   map[string]ComponentData{DeletedMarker: {}},
	}
}

// OverridesFile is the set of patches that transforms a base scene into an
// edited one. SceneID must match the target scene at apply time.
type OverridesFile struct {
	SceneID   string          `json:"sceneId"`
	Timestamp string          `json:"timestamp"`
	Patches   []OverridePatch `json:"patches"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// Clone returns a deep copy of the scene. Stores hand out clones so callers
// can never mutate shared state.
func (s *SerializedScene) Clone() *SerializedScene {
	if s == nil {
		return nil
	}
	cp := &SerializedScene{Metadata: s.Metadata}
	if s.Entities != nil {
		cp.Entities = make([]SerializedEntity, len(s.Entities))
		for i, e := range s.Entities {
			cp.Entities[i] = e.Clone()
		}
	}
	if s.Materials != nil {
		cp.Materials = make([]MaterialDef, len(s.Materials))
		for i, m := range s.Materials {
			cp.Materials[i] = MaterialDef{ID: m.ID, Name: m.Name}
			if m.Properties != nil {
				cp.Materials[i].Properties = CloneMap(m.Properties)
			}
		}
	}
	if s.Prefabs != nil {
		cp.Prefabs = make([]PrefabDef, len(s.Prefabs))
		for i, p := range s.Prefabs {
			cp.Prefabs[i] = PrefabDef{ID: p.ID, Name: p.Name}
			if p.Entities != nil {
				cp.Prefabs[i].Entities = make([]SerializedEntity, len(p.Entities))
				for j, e := range p.Entities {
					cp.Prefabs[i].Entities[j] = e.Clone()
				}
			}
		}
	}
	if s.InputAssets != nil {
		cp.InputAssets = append(json.RawMessage(nil), s.InputAssets...)
	}
	if s.LockedEntityIDs != nil {
		cp.LockedEntityIDs = append([]string(nil), s.LockedEntityIDs...)
	}
	if s.AssetReferences != nil {
		cp.AssetReferences = append([]AssetReference(nil), s.AssetReferences...)
	}
	return cp
}

// Clone returns a deep copy of the entity.
func (e SerializedEntity) Clone() SerializedEntity {
	cp := e
	if e.Components != nil {
		cp.Components = make(map[string]ComponentData, len(e.Components))
		for t, data := range e.Components {
			if data == nil {
				cp.Components[t] = nil
				continue
			}
			cp.Components[t] = CloneMap(data)
		}
	}
	return cp
}

// Clone returns a deep copy of the overrides file.
func (o *OverridesFile) Clone() *OverridesFile {
	if o == nil {
		return nil
	}
	cp := &OverridesFile{SceneID: o.SceneID, Timestamp: o.Timestamp}
	if o.Patches != nil {
		cp.Patches = make([]OverridePatch, len(o.Patches))
		for i, p := range o.Patches {
			q := OverridePatch{PersistentID: p.PersistentID, EntityName: p.EntityName}
			if p.Components != nil {
				q.Components = make(map[string]ComponentData, len(p.Components))
				for t, data := range p.Components {
					if data == nil {
						q.Components[t] = nil
						continue
					}
					q.Components[t] = CloneMap(data)
				}
			}
			cp.Patches[i] = q
		}
	}
	if o.Metadata != nil {
		cp.Metadata = CloneMap(o.Metadata)
	}
	return cp
}
