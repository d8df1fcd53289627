package scene

// Severity classifies a validation finding.
type Severity string

const (
	// SeverityBlock findings abort a load before any mutation.
	SeverityBlock Severity = "block"
	// SeverityWarn findings are reported but never abort.
	SeverityWarn Severity = "warn"
)

// Violation is a single validation finding. EntityID is empty for findings
// that concern the scene as a whole.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	EntityID string   `json:"entityId,omitempty"`
	Message  string   `json:"message"`
}

// ValidationResult aggregates findings from all validation rules.
type ValidationResult struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends findings from another result.
func (r *ValidationResult) Merge(other ValidationResult) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking reports whether any finding is blocking.
func (r ValidationResult) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Blocking returns only the blocking findings.
func (r ValidationResult) Blocking() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// Warnings returns only the non-blocking findings.
func (r ValidationResult) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarn {
			out = append(out, v)
		}
	}
	return out
}
