package validator

import (
	"scenecore/pkg/scene"
)

// EntityCapRule reports scenes exceeding a configured entity count. Whether
// the finding blocks the load is a deployment policy choice (Fatal).
type EntityCapRule struct {
	Limit int
	Fatal bool
}

// Name implements Rule.
func (EntityCapRule) Name() string { return "entity-cap" }

// Evaluate implements Rule.
func (r EntityCapRule) Evaluate(s *scene.SerializedScene) scene.ValidationResult {
	if r.Limit <= 0 || len(s.Entities) <= r.Limit {
		return scene.ValidationResult{}
	}
	severity := scene.SeverityWarn
	if r.Fatal {
		severity = scene.SeverityBlock
	}
	return scene.ValidationResult{Violations: []scene.Violation{{
		Rule:     r.Name(),
		Severity: severity,
		Message:  scene.ResourceLimitError{Count: len(s.Entities), Limit: r.Limit}.Error(),
	}}}
}
