package engine

import "fmt"

// OutcomeKind classifies the non-fatal resolution outcomes reported
// alongside successful mappings
type OutcomeKind int

const (
	// OutcomeStructuralReference indicates a rule, default or backend lookup
	// referenced a name absent from the model
	OutcomeStructuralReference OutcomeKind = iota
	// OutcomeInvalidConditionPattern indicates a regular-expression condition
	// failed to compile; the condition never matches for this snapshot
	OutcomeInvalidConditionPattern
	// OutcomeUnmappedDomain indicates no rule matched and the frontend has no
	// default backend
	OutcomeUnmappedDomain
	// OutcomeEmptyEligibleServerSet indicates the backend resolved but has no
	// eligible servers
	OutcomeEmptyEligibleServerSet
)

// String returns the string representation of OutcomeKind
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeStructuralReference:
		return "structural_reference"
	case OutcomeInvalidConditionPattern:
		return "invalid_condition_pattern"
	case OutcomeUnmappedDomain:
		return "unmapped_domain"
	case OutcomeEmptyEligibleServerSet:
		return "empty_eligible_server_set"
	default:
		return "unknown"
	}
}

// Outcome is one non-fatal resolution finding. It is attributed to the
// narrowest scope that produced it: a frontend/rule for structural problems
// found while building the model, a (frontend, domain) pair for problems
// found while resolving.
type Outcome struct {
	Kind      OutcomeKind
	Frontend  string
	RuleIndex int // index into the frontend's rule list, -1 when not rule-scoped
	Domain    string
	Backend   string
	Condition string
	Detail    string
}

// String renders the outcome for logging
func (o Outcome) String() string {
	s := o.Kind.String()
	if o.Frontend != "" {
		s += fmt.Sprintf(" frontend=%s", o.Frontend)
	}
	if o.RuleIndex >= 0 {
		s += fmt.Sprintf(" rule=%d", o.RuleIndex)
	}
	if o.Domain != "" {
		s += fmt.Sprintf(" domain=%s", o.Domain)
	}
	if o.Backend != "" {
		s += fmt.Sprintf(" backend=%s", o.Backend)
	}
	if o.Condition != "" {
		s += fmt.Sprintf(" condition=%s", o.Condition)
	}
	if o.Detail != "" {
		s += fmt.Sprintf(" detail=%q", o.Detail)
	}
	return s
}
