package engine

import "github.com/ibrahim-dwellir/haproxy-collector/internal/domain"

// ResolveBackend selects the backend the frontend would route the given
// domain to. Rules are evaluated in source order and the first matching
// rule wins; when no rule matches, the frontend's default backend is used
// if it has one. The second return value is false when the domain has no
// route at all.
//
// A rule referencing an undefined condition can never match and is skipped;
// evaluation continues with the following rules. The dangling reference
// itself was already reported when the model was built.
func (m *Model) ResolveBackend(fe domain.Frontend, domainName string) (string, bool) {
	for _, rule := range fe.Rules {
		if m.ruleMatches(rule, domainName) {
			return rule.Backend, true
		}
	}

	if fe.DefaultBackend != nil {
		return *fe.DefaultBackend, true
	}

	return "", false
}

// ruleMatches reports whether every condition referenced by the rule
// matches the domain. A rule with no conditions matches unconditionally.
func (m *Model) ruleMatches(rule domain.SwitchingRule, domainName string) bool {
	for _, name := range rule.Conditions {
		if !m.MatchesCondition(name, domainName) {
			return false
		}
	}
	return true
}
