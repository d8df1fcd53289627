// Package codec implements the default-omission codec: component payloads
// are compressed against per-type default tables before serialization and
// restored to full values on load. It also handles externalizing inline
// script payloads into reference descriptors.
package codec

import (
	"fmt"
	"math"

	"scenecore/pkg/scene"
)

// TypeSpec describes one component type for the codec: its field defaults
// and the fields that are never subject to omission (free-form payloads and
// external resource paths whose absence is not reconstructible).
type TypeSpec struct {
	Defaults    scene.ComponentData
	Passthrough []string
}

// Registry maps component type tags to their codec specs. Types without a
// spec pass through the codec verbatim.
type Registry struct {
	types map[string]TypeSpec
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]TypeSpec)}
}

// Register adds a type spec. Re-registering a type is rejected so plugins
// cannot silently fight over a tag.
func (r *Registry) Register(componentType string, spec TypeSpec) error {
	if componentType == "" {
		return fmt.Errorf("component type tag cannot be empty")
	}
	if _, exists := r.types[componentType]; exists {
		return fmt.Errorf("component type %q already registered", componentType)
	}
	r.types[componentType] = TypeSpec{
		Defaults:    scene.CloneMap(spec.Defaults),
		Passthrough: append([]string(nil), spec.Passthrough...),
	}
	return nil
}

// Spec returns the registered spec for a type.
func (r *Registry) Spec(componentType string) (TypeSpec, bool) {
	spec, ok := r.types[componentType]
	if !ok {
		return TypeSpec{}, false
	}
	return TypeSpec{
		Defaults:    scene.CloneMap(spec.Defaults),
		Passthrough: append([]string(nil), spec.Passthrough...),
	}, true
}

// Known reports whether the type has a registered spec.
func (r *Registry) Known(componentType string) bool {
	_, ok := r.types[componentType]
	return ok
}

// Types returns the registered type tags (unordered).
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	return out
}

func (r *Registry) passthrough(componentType, field string) bool {
	spec, ok := r.types[componentType]
	if !ok {
		return true
	}
	for _, f := range spec.Passthrough {
		if f == field {
			return true
		}
	}
	return false
}

// DefaultRegistry returns the built-in component table. Field sets and
// default values mirror the engine's component schemas.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	specs := map[string]TypeSpec{
		"Transform": {
			Defaults: scene.ComponentData{
				"position": []any{0.0, 0.0, 0.0},
				"rotation": []any{0.0, 0.0, 0.0},
				"scale":    []any{1.0, 1.0, 1.0},
			},
		},
		"MeshRenderer": {
			Defaults: scene.ComponentData{
				"enabled":        true,
				"castShadows":    true,
				"receiveShadows": true,
			},
			Passthrough: []string{"meshId", "materialId", "materials", "material", "modelPath"},
		},
		"Light": {
			Defaults: scene.ComponentData{
				"lightType":     "directional",
				"color":         map[string]any{"r": 1.0, "g": 1.0, "b": 1.0},
				"intensity":     1.0,
				"enabled":       true,
				"castShadow":    true,
				"directionX":    0.0,
				"directionY":    -1.0,
				"directionZ":    0.0,
				"range":         10.0,
				"decay":         1.0,
				"angle":         math.Pi / 6,
				"penumbra":      0.1,
				"shadowMapSize": 2048.0,
				"shadowBias":    -0.0001,
				"shadowRadius":  2.0,
			},
		},
		"Camera": {
			Defaults: scene.ComponentData{
				"fov":                 60.0,
				"near":                0.1,
				"far":                 100.0,
				"isMain":              false,
				"projectionType":      "perspective",
				"orthographicSize":    10.0,
				"depth":               0.0,
				"enableSmoothing":     false,
				"smoothingSpeed":      5.0,
				"rotationSmoothing":   5.0,
				"hdr":                 false,
				"toneMappingExposure": 1.0,
				"skyboxIntensity":     1.0,
				"skyboxBlur":          0.0,
			},
			Passthrough: []string{"skyboxTexture", "followTarget", "backgroundColor"},
		},
		"RigidBody": {
			Defaults: scene.ComponentData{
				"bodyType": "dynamic",
				"mass":     1.0,
				"material": map[string]any{
					"friction":    0.7,
					"restitution": 0.3,
					"density":     1.0,
				},
			},
		},
		"MeshCollider": {
			Defaults: scene.ComponentData{
				"colliderType": "box",
				"center":       []any{0.0, 0.0, 0.0},
				"isTrigger":    false,
			},
		},
		"Script": {
			Defaults: scene.ComponentData{
				"enabled":    true,
				"parameters": map[string]any{},
			},
			Passthrough: []string{"code", "scriptPath", "scriptRef"},
		},
		"Sound": {
			Defaults: scene.ComponentData{
				"volume":       1.0,
				"pitch":        1.0,
				"playbackRate": 1.0,
				"loop":         false,
				"autoplay":     false,
				"minDistance":  1.0,
				"maxDistance":  10000.0,
			},
			Passthrough: []string{"clipPath"},
		},
	}
	for t, spec := range specs {
		if err := r.Register(t, spec); err != nil {
			panic(err)
		}
	}
	return r
}
