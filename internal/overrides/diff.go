// Package overrides computes and applies deltas between a code-authored
// base scene and an independently edited version. The diff and the applier
// share the scene package's merge algorithm, so a computed delta applied to
// the base reproduces the edited scene.
package overrides

import (
	"time"

	"scenecore/pkg/scene"
)

// DiffOptions parameterizes a diff run.
type DiffOptions struct {
	// SceneID is stamped into the resulting overrides file and checked by
	// the applier's scene-id guard.
	SceneID string
	// Now supplies the timestamp; defaults to time.Now.
	Now func() time.Time
}

// DiffAgainstBase computes the overrides file that transforms base into
// current. Entities are matched by persistent id. An entity only in current
// becomes a full patch, one only in base becomes a deletion marker, and one
// in both becomes a per-component delta where removed components and removed
// object keys are marked null. Arrays are replaced wholesale, never diffed
// element-wise. Entities with no delta produce no patch.
func DiffAgainstBase(base, current *scene.SerializedScene, opts DiffOptions) *scene.OverridesFile {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	out := &scene.OverridesFile{
		SceneID:   opts.SceneID,
		Timestamp: now().UTC().Format(time.RFC3339),
	}

	baseByID := make(map[string]scene.SerializedEntity)
	if base != nil {
		for _, e := range base.Entities {
			baseByID[e.PersistentID] = e
		}
	}
	currentIDs := make(map[string]struct{})

	if current != nil {
		for _, cur := range current.Entities {
			currentIDs[cur.PersistentID] = struct{}{}
			baseEnt, existed := baseByID[cur.PersistentID]
			if !existed {
				out.Patches = append(out.Patches, addedEntityPatch(cur))
				continue
			}
			delta := diffComponents(baseEnt.Components, cur.Components)
			renamed := baseEnt.Name != cur.Name
			if len(delta) == 0 && !renamed {
				continue
			}
			patch := scene.OverridePatch{PersistentID: cur.PersistentID, Components: delta}
			if patch.Components == nil {
				patch.Components = map[string]scene.ComponentData{}
			}
			if renamed {
				patch.EntityName = cur.Name
			}
			out.Patches = append(out.Patches, patch)
		}
	}

	if base != nil {
		for _, e := range base.Entities {
			if _, still := currentIDs[e.PersistentID]; !still {
				out.Patches = append(out.Patches, scene.DeletedPatch(e.PersistentID))
			}
		}
	}
	return out
}

// addedEntityPatch emits the full state of a newly added entity: name plus
// every component verbatim, so the applier can recreate it without a base.
func addedEntityPatch(e scene.SerializedEntity) scene.OverridePatch {
	patch := scene.OverridePatch{
		PersistentID: e.PersistentID,
		EntityName:   e.Name,
		Components:   make(map[string]scene.ComponentData, len(e.Components)),
	}
	for t, data := range e.Components {
		patch.Components[t] = scene.CloneMap(data)
	}
	return patch
}

// diffComponents computes per-component deltas between two component maps.
// Added components appear verbatim, removed ones as nil, changed ones as a
// recursive key diff. Unchanged components are absent from the result.
func diffComponents(base, current map[string]scene.ComponentData) map[string]scene.ComponentData {
	var out map[string]scene.ComponentData
	put := func(t string, d scene.ComponentData) {
		if out == nil {
			out = make(map[string]scene.ComponentData)
		}
		out[t] = d
	}
	for t, cur := range current {
		baseData, existed := base[t]
		if !existed {
			put(t, scene.CloneMap(cur))
			continue
		}
		if delta := diffMap(baseData, cur); len(delta) > 0 {
			put(t, delta)
		}
	}
	for t := range base {
		if _, still := current[t]; !still {
			put(t, nil)
		}
	}
	return out
}

// diffMap computes the key-wise delta between two objects. Removed keys map
// to nil, nested objects recurse, and any other changed value (arrays
// included) is carried wholesale.
func diffMap(base, current map[string]any) map[string]any {
	var out map[string]any
	put := func(k string, v any) {
		if out == nil {
			out = make(map[string]any)
		}
		out[k] = v
	}
	for k, cur := range current {
		baseVal, existed := base[k]
		if !existed {
			put(k, scene.CloneValue(cur))
			continue
		}
		baseMap, baseIsMap := baseVal.(map[string]any)
		curMap, curIsMap := cur.(map[string]any)
		if baseIsMap && curIsMap {
			if nested := diffMap(baseMap, curMap); len(nested) > 0 {
				put(k, nested)
			}
			continue
		}
		if !scene.DeepEqual(baseVal, cur) {
			put(k, scene.CloneValue(cur))
		}
	}
	for k := range base {
		if _, still := current[k]; !still {
			put(k, nil)
		}
	}
	return out
}
