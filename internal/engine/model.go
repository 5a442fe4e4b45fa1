// Package engine turns one immutable configuration snapshot into the set of
// domain-to-server mappings HAProxy would route with. It reproduces the
// proxy's own rule evaluation: source-ordered backend switching rules with
// first-match-wins, AND across the conditions of a rule, OR across the
// patterns of a condition and fallback to the frontend's default backend.
//
// The engine is a pure computation: it performs no I/O, holds no state
// across snapshots and never aborts a whole snapshot because of one bad
// rule. Expected, localized problems are reported as Outcomes next to the
// successful mappings.
package engine

import (
	"regexp"
	"strings"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/domain"
)

// compiledCondition is a ConditionDefinition prepared for evaluation:
// patterns lowercased once, regular expressions compiled once. A condition
// whose pattern failed to compile is marked broken and never matches.
type compiledCondition struct {
	def      domain.ConditionDefinition
	patterns []string // lowercased, for the non-regex kinds
	regexps  []*regexp.Regexp
	broken   bool
}

// Model is the validated, read-only form of one configuration snapshot.
// It owns the compiled pattern cache for its lifetime; nothing is shared
// between snapshots because condition definitions can change between them.
type Model struct {
	instance   domain.ProxyInstance
	frontends  []domain.Frontend
	conditions map[string]*compiledCondition
	backends   map[string]domain.Backend

	buildOutcomes []Outcome
}

// NewModel builds a Model from a snapshot. Dangling references and invalid
// regular-expression patterns are recorded as outcomes attached to the
// offending condition, rule or frontend; they never fail the build.
func NewModel(snap domain.Snapshot) *Model {
	m := &Model{
		instance:   snap.Instance,
		frontends:  snap.Frontends,
		conditions: make(map[string]*compiledCondition, len(snap.Conditions)),
		backends:   make(map[string]domain.Backend, len(snap.Backends)),
	}

	for _, def := range snap.Conditions {
		m.conditions[def.Name] = m.compileCondition(def)
	}

	for _, backend := range snap.Backends {
		m.backends[backend.Name] = backend
	}

	m.validateReferences()

	return m
}

// compileCondition lowercases the patterns of the plain-text kinds and
// compiles the regex kind. Host matching is case-insensitive throughout,
// so regex patterns are compiled with the case-insensitive flag.
func (m *Model) compileCondition(def domain.ConditionDefinition) *compiledCondition {
	c := &compiledCondition{def: def}

	if def.Kind != domain.MatchRegex {
		c.patterns = make([]string, len(def.Patterns))
		for i, p := range def.Patterns {
			c.patterns[i] = strings.ToLower(p)
		}
		return c
	}

	for _, p := range def.Patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			c.broken = true
			c.regexps = nil
			m.buildOutcomes = append(m.buildOutcomes, Outcome{
				Kind:      OutcomeInvalidConditionPattern,
				RuleIndex: -1,
				Condition: def.Name,
				Detail:    err.Error(),
			})
			break
		}
		c.regexps = append(c.regexps, re)
	}

	return c
}

// validateReferences checks every rule-to-condition, rule-to-backend and
// frontend-to-default reference, recording a structural outcome per dangling
// name. The offending rule or default is left in place: resolution skips
// rules that can never match and the rest of the frontend still resolves.
func (m *Model) validateReferences() {
	for _, fe := range m.frontends {
		for i, rule := range fe.Rules {
			for _, name := range rule.Conditions {
				if _, ok := m.conditions[name]; !ok {
					m.buildOutcomes = append(m.buildOutcomes, Outcome{
						Kind:      OutcomeStructuralReference,
						Frontend:  fe.Name,
						RuleIndex: i,
						Condition: name,
						Detail:    "rule references an undefined condition",
					})
				}
			}
			if _, ok := m.backends[rule.Backend]; !ok {
				m.buildOutcomes = append(m.buildOutcomes, Outcome{
					Kind:      OutcomeStructuralReference,
					Frontend:  fe.Name,
					RuleIndex: i,
					Backend:   rule.Backend,
					Detail:    "rule targets an undefined backend",
				})
			}
		}
		if fe.DefaultBackend != nil {
			if _, ok := m.backends[*fe.DefaultBackend]; !ok {
				m.buildOutcomes = append(m.buildOutcomes, Outcome{
					Kind:      OutcomeStructuralReference,
					Frontend:  fe.Name,
					RuleIndex: -1,
					Backend:   *fe.DefaultBackend,
					Detail:    "frontend declares an undefined default backend",
				})
			}
		}
	}
}

// Instance returns the proxy instance this model was built from
func (m *Model) Instance() domain.ProxyInstance {
	return m.instance
}

// Frontends returns the frontends in snapshot source order
func (m *Model) Frontends() []domain.Frontend {
	return m.frontends
}

// Backend looks up a backend by name
func (m *Model) Backend(name string) (domain.Backend, bool) {
	backend, ok := m.backends[name]
	return backend, ok
}

// BuildOutcomes returns the structural findings recorded while building
// the model, in discovery order.
func (m *Model) BuildOutcomes() []Outcome {
	return m.buildOutcomes
}
