package scene

import (
	"fmt"
	"strings"
)

// SchemaError reports a structurally malformed payload. All violations are
// aggregated before the error is returned; nothing is mutated.
type SchemaError struct {
	Violations []string
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("scene schema invalid: %s", strings.Join(e.Violations, "; "))
}

// ValidationError reports semantic integrity failures (duplicate ids,
// orphaned parent references, hierarchy cycles) found before any mutation.
type ValidationError struct {
	Result ValidationResult
}

func (e ValidationError) Error() string {
	blocking := e.Result.Blocking()
	msgs := make([]string, len(blocking))
	for i, v := range blocking {
		msgs[i] = v.Message
	}
	return fmt.Sprintf("scene validation failed: %s", strings.Join(msgs, "; "))
}

// NotFoundError is returned when a reference cannot be resolved at apply or
// resolution time.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ConflictError is returned when stored state no longer matches what the
// caller expected: an external script whose content hash drifted, or an
// overrides file targeting a different scene id. It surfaces to the caller
// for explicit resolution (overwrite vs. reload) rather than being silently
// resolved.
type ConflictError struct {
	ID   string
	Want string
	Got  string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%q conflict: want %s, got %s", e.ID, e.Want, e.Got)
}

// IOError wraps a collaborator failure (store read/write, network).
type IOError struct {
	Op  string
	Err error
}

func (e IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e IOError) Unwrap() error { return e.Err }

// ResourceLimitError is returned when a scene exceeds the configured entity
// cap and the cap is configured as fatal.
type ResourceLimitError struct {
	Count int
	Limit int
}

func (e ResourceLimitError) Error() string {
	return fmt.Sprintf("scene has %d entities, exceeding the cap of %d", e.Count, e.Limit)
}

// CycleError is returned when a reparent operation or a serialized hierarchy
// would produce a cycle in the parent chain. EntityID names the entity that
// closes the cycle.
type CycleError struct {
	EntityID string
}

func (e CycleError) Error() string {
	return fmt.Sprintf("hierarchy cycle through entity %q", e.EntityID)
}

// DuplicateComponentError is returned when adding a component type an entity
// already carries.
type DuplicateComponentError struct {
	Type string
}

func (e DuplicateComponentError) Error() string {
	return fmt.Sprintf("component %q already present", e.Type)
}
