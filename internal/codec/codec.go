package codec

import (
	"time"

	"scenecore/pkg/scene"
)

// Codec compresses and restores component payloads against a defaults
// registry. Compress and Restore are inverses for any payload that conforms
// to its type's schema: Restore(Compress(x)) == x.
type Codec struct {
	registry *Registry
}

// New constructs a codec over the given registry.
func New(registry *Registry) *Codec {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Codec{registry: registry}
}

// Registry returns the codec's defaults registry.
func (c *Codec) Registry() *Registry { return c.registry }

// Compress omits every top-level field whose value is deep-structurally
// equal to the type's default. Passthrough fields and unknown types are
// emitted verbatim. Equality is exact; no epsilon is applied.
func (c *Codec) Compress(componentType string, data scene.ComponentData) scene.ComponentData {
	spec, ok := c.registry.types[componentType]
	if !ok {
		return scene.CloneMap(data)
	}
	out := make(scene.ComponentData, len(data))
	for field, value := range data {
		if c.registry.passthrough(componentType, field) {
			out[field] = scene.CloneValue(value)
			continue
		}
		if def, ok := spec.Defaults[field]; ok && scene.DeepEqual(value, def) {
			continue
		}
		out[field] = scene.CloneValue(value)
	}
	return out
}

// Restore reconstitutes a full component value by deep-merging the partial
// payload over the type's defaults. Unknown types are returned verbatim.
func (c *Codec) Restore(componentType string, partial scene.ComponentData) scene.ComponentData {
	spec, ok := c.registry.types[componentType]
	if !ok {
		return scene.CloneMap(partial)
	}
	return scene.MergeComponent(spec.Defaults, partial)
}

// Script component field tags used by externalization.
const (
	ScriptComponentType = "Script"
	scriptCodeField     = "code"
	scriptPathField     = "scriptPath"
	scriptRefField      = "scriptRef"
)

// ExternalizeScript strips an inline script payload that has an external
// file counterpart, replacing it with a reference descriptor. The returned
// AssetReference is non-nil when a payload was externalized; the serializer
// records it once in the scene's assetReferences. Components without an
// inline payload, and inline-only scripts with no path, are returned
// unchanged.
func (c *Codec) ExternalizeScript(componentType string, data scene.ComponentData, now time.Time) (scene.ComponentData, *scene.AssetReference) {
	if componentType != ScriptComponentType {
		return data, nil
	}
	code, ok := data[scriptCodeField].(string)
	if !ok || code == "" {
		return data, nil
	}
	path, _ := data[scriptPathField].(string)
	if path == "" {
		// Inline-only script: nothing external to point at.
		return data, nil
	}
	ref := scene.AssetReference{
		ID:           path,
		Source:       scene.AssetSourceExternal,
		Path:         path,
		ContentHash:  scene.HashContent(code),
		LastModified: now.UTC().Format(time.RFC3339),
	}
	out := scene.CloneMap(data)
	delete(out, scriptCodeField)
	out[scriptRefField] = map[string]any{
		"id":           ref.ID,
		"source":       ref.Source,
		"path":         ref.Path,
		"contentHash":  ref.ContentHash,
		"lastModified": ref.LastModified,
	}
	return out, &ref
}

// ExternalRef extracts the reference descriptor from a component payload, if
// the payload carries one with an external source.
func ExternalRef(data scene.ComponentData) (scene.AssetReference, bool) {
	raw, ok := data[scriptRefField].(map[string]any)
	if !ok {
		return scene.AssetReference{}, false
	}
	source, _ := raw["source"].(string)
	if source != scene.AssetSourceExternal {
		return scene.AssetReference{}, false
	}
	ref := scene.AssetReference{Source: source}
	ref.ID, _ = raw["id"].(string)
	ref.Path, _ = raw["path"].(string)
	ref.ContentHash, _ = raw["contentHash"].(string)
	ref.LastModified, _ = raw["lastModified"].(string)
	return ref, true
}

// ResolveScript installs resolved script content back into a component
// payload, keeping the descriptor for future saves.
func ResolveScript(data scene.ComponentData, code string) scene.ComponentData {
	out := scene.CloneMap(data)
	out[scriptCodeField] = code
	return out
}
