package engine

import (
	"strings"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/domain"
)

// MatchesCondition reports whether the named condition matches the given
// domain. An undefined or broken condition never matches (fails closed).
// Evaluation is a pure function of (condition, domain).
func (m *Model) MatchesCondition(name, domainName string) bool {
	c, ok := m.conditions[name]
	if !ok {
		return false
	}
	return c.matches(domainName)
}

// matches applies the condition's match kind against the domain; a
// condition matches when any one of its patterns matches.
func (c *compiledCondition) matches(domainName string) bool {
	if c.broken {
		return false
	}

	host := strings.ToLower(domainName)

	if c.def.Kind == domain.MatchRegex {
		for _, re := range c.regexps {
			if re.MatchString(host) {
				return true
			}
		}
		return false
	}

	for _, p := range c.patterns {
		if matchPattern(c.def.Kind, host, p) {
			return true
		}
	}
	return false
}

// matchPattern applies one plain-text pattern. Both host and pattern are
// lowercased by the callers.
func matchPattern(kind domain.MatchKind, host, pattern string) bool {
	switch kind {
	case domain.MatchExact:
		return host == pattern
	case domain.MatchPrefix:
		return strings.HasPrefix(host, pattern)
	case domain.MatchSubstring:
		return strings.Contains(host, pattern)
	default:
		return false
	}
}
