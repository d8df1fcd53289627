// Package validator checks the structural integrity of a serialized scene
// before the loader mutates anything. It is pure: rules only read the scene
// and report findings; blocking findings abort a load, warnings do not.
package validator

import "scenecore/pkg/scene"

// Config tunes the built-in rules.
type Config struct {
	// MaxEntities caps the entity count; zero means unlimited.
	MaxEntities int
	// CapFatal makes the entity cap a blocking finding instead of a warning.
	CapFatal bool
}

// Rule is a single structural check over a serialized scene.
type Rule interface {
	Name() string
	Evaluate(s *scene.SerializedScene) scene.ValidationResult
}

// Engine evaluates all registered rules and aggregates their findings.
type Engine struct {
	rules []Rule
}

// New constructs an engine with the built-in integrity rules.
func New(cfg Config) *Engine {
	e := &Engine{}
	e.Register(DuplicateIDRule{})
	e.Register(OrphanParentRule{})
	e.Register(CycleRule{})
	e.Register(DuplicateNameRule{})
	e.Register(MissingTransformRule{})
	if cfg.MaxEntities > 0 {
		e.Register(EntityCapRule{Limit: cfg.MaxEntities, Fatal: cfg.CapFatal})
	}
	return e
}

// Register appends a rule to the engine.
func (e *Engine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Validate runs every rule and merges their results.
func (e *Engine) Validate(s *scene.SerializedScene) scene.ValidationResult {
	var combined scene.ValidationResult
	for _, rule := range e.rules {
		combined.Merge(rule.Evaluate(s))
	}
	return combined
}
