package dataplane

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/domain"
)

// destinationHeader is the header api-platform style configurations use to
// publish a backend's real endpoints through an http-request rule instead
// of a server list.
const destinationHeader = "X-Destination-Backend"

var destinationAddressPattern = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+:\d+)`)

// hostCriteria are the ACL fetch expressions that test the requested
// domain. Anything else (path, source address, ...) is not a host
// condition and is ignored by the collector.
var hostCriteria = map[string]bool{
	"hdr(host)":     true,
	"req.hdr(host)": true,
	"hdr_dom(host)": true,
	"ssl_fc_sni":    true,
	"req.ssl_sni":   true,
}

// matcherKinds maps HAProxy "-m" matcher flags to the closed set of match
// kinds the engine evaluates. "dom" (domain part match) is a containment
// test over dot-separated labels; it is folded into substring matching,
// which is what the proxy effectively answers for whole-host values.
var matcherKinds = map[string]domain.MatchKind{
	"str": domain.MatchExact,
	"beg": domain.MatchPrefix,
	"sub": domain.MatchSubstring,
	"dom": domain.MatchSubstring,
	"reg": domain.MatchRegex,
}

// parseHostACL converts one ACL line into a condition definition. The
// second return value is false for ACLs that do not test the requested
// host or use a matcher outside the supported set.
//
// The matcher flags live in the value string, e.g.
// "-i -m dom example.com || example.org".
func parseHostACL(acl ACL) (domain.ConditionDefinition, bool) {
	if acl.ACLName == "" {
		return domain.ConditionDefinition{}, false
	}
	if !hostCriteria[strings.ToLower(strings.TrimSpace(acl.Criterion))] {
		return domain.ConditionDefinition{}, false
	}

	kind := domain.MatchExact
	fields := strings.Fields(acl.Value)

	i := 0
flags:
	for i < len(fields) {
		switch fields[i] {
		case "-i", "-n", "--":
			i++
		case "-m":
			if i+1 >= len(fields) {
				return domain.ConditionDefinition{}, false
			}
			k, ok := matcherKinds[fields[i+1]]
			if !ok {
				return domain.ConditionDefinition{}, false
			}
			kind = k
			i += 2
		default:
			// first pattern token reached
			break flags
		}
	}

	rest := strings.Join(fields[i:], " ")
	var patterns []string
	for _, p := range strings.Split(rest, "||") {
		p = strings.TrimSpace(p)
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return domain.ConditionDefinition{}, false
	}

	return domain.ConditionDefinition{
		Name:     acl.ACLName,
		Kind:     kind,
		Patterns: patterns,
	}, true
}

// splitCondTest splits a switching rule's cond_test expression into the
// ordered list of ACL names it references. Negated or otherwise decorated
// tokens are kept verbatim; they resolve to no known condition and the
// rule then fails closed.
func splitCondTest(condTest string) []string {
	return strings.Fields(condTest)
}

// extractDestinationAddresses finds the unconditional http-request rule
// publishing the backend's endpoints in the destination header and pulls
// every IP:port out of its format string. It returns nil when the backend
// has no such rule.
func extractDestinationAddresses(rules []HTTPRequestRule) []string {
	for _, rule := range rules {
		if rule.HdrName != destinationHeader || rule.Cond != "" {
			continue
		}
		addresses := destinationAddressPattern.FindAllString(rule.HdrFormat, -1)
		if len(addresses) > 0 {
			return addresses
		}
	}
	return nil
}

// deriveDomains computes the set of domains a frontend is declared to
// serve: the literal patterns of every non-regex host condition referenced
// by its switching rules. Regex patterns are not literal domains and
// prefix patterns are only partial names, so both are left out. The result
// is normalized, deduplicated and sorted so identical configurations
// always produce the same snapshot.
func deriveDomains(rules []domain.SwitchingRule, conditions map[string]domain.ConditionDefinition) []string {
	seen := make(map[string]struct{})
	for _, rule := range rules {
		for _, name := range rule.Conditions {
			def, ok := conditions[name]
			if !ok {
				continue
			}
			if def.Kind != domain.MatchExact && def.Kind != domain.MatchSubstring {
				continue
			}
			for _, pattern := range def.Patterns {
				normalized, err := domain.NormalizeDomain(pattern)
				if err != nil {
					continue
				}
				seen[normalized] = struct{}{}
			}
		}
	}

	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
