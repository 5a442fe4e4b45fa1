package engine

import "github.com/ibrahim-dwellir/haproxy-collector/internal/domain"

// Result is the full output of one resolution pass: the resolved mappings
// and every non-fatal finding collected along the way. Resolving the same
// snapshot twice yields identical mapping and outcome sequences.
type Result struct {
	Mappings []domain.DomainMapping
	Outcomes []Outcome
}

// CountByKind tallies the result's outcomes per kind, for run summaries
func (r Result) CountByKind() map[string]int {
	counts := make(map[string]int)
	for _, o := range r.Outcomes {
		counts[o.Kind.String()]++
	}
	return counts
}

// Resolve drives one full mapping pass over the model: for every frontend,
// for every domain it is declared to serve, pick the winning backend and
// expand it to eligible server addresses. One mapping record is emitted per
// (domain, backend, address) triple; exact duplicates arising from domains
// that share a resolution path collapse to the first record emitted.
//
// Problems stay local to their (frontend, domain) pair: an unroutable
// domain, a rule targeting an undefined backend or an empty server pool is
// reported as an outcome and the pass continues.
func Resolve(m *Model, ownerID int64) Result {
	result := Result{
		Outcomes: append([]Outcome(nil), m.buildOutcomes...),
	}

	seen := make(map[string]struct{})

	for _, fe := range m.frontends {
		for _, domainName := range fe.Domains {
			backendName, ok := m.ResolveBackend(fe, domainName)
			if !ok {
				result.Outcomes = append(result.Outcomes, Outcome{
					Kind:      OutcomeUnmappedDomain,
					Frontend:  fe.Name,
					RuleIndex: -1,
					Domain:    domainName,
					Detail:    "no rule matched and the frontend has no default backend",
				})
				continue
			}

			addresses, ok := m.EligibleAddresses(backendName)
			if !ok {
				result.Outcomes = append(result.Outcomes, Outcome{
					Kind:      OutcomeStructuralReference,
					Frontend:  fe.Name,
					RuleIndex: -1,
					Domain:    domainName,
					Backend:   backendName,
					Detail:    "resolved backend is not defined",
				})
				continue
			}

			if len(addresses) == 0 {
				result.Outcomes = append(result.Outcomes, Outcome{
					Kind:      OutcomeEmptyEligibleServerSet,
					Frontend:  fe.Name,
					RuleIndex: -1,
					Domain:    domainName,
					Backend:   backendName,
				})
				continue
			}

			for _, address := range addresses {
				mapping := domain.DomainMapping{
					Domain:        domainName,
					InstanceID:    m.instance.ID,
					Frontend:      fe.Name,
					Backend:       backendName,
					ServerAddress: address,
					OwnerID:       ownerID,
				}
				if _, dup := seen[mapping.Key()]; dup {
					continue
				}
				seen[mapping.Key()] = struct{}{}
				result.Mappings = append(result.Mappings, mapping)
			}
		}
	}

	return result
}
