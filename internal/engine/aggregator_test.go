package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/domain"
	"github.com/ibrahim-dwellir/haproxy-collector/internal/engine"
)

const testOwnerID = int64(7)

func webInSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Instance: domain.ProxyInstance{ID: 3, Name: "edge-1"},
		Conditions: []domain.ConditionDefinition{
			{Name: "host_a", Kind: domain.MatchExact, Patterns: []string{"a.example.com"}},
		},
		Backends: []domain.Backend{
			{
				Name: "backend_a",
				Servers: []domain.Server{
					{Name: "s1", Address: "10.0.0.1:80", State: domain.StateUp},
					{Name: "s2", Address: "10.0.0.2:80", State: domain.StateMaintenance},
				},
			},
			{
				Name: "backend_default",
				Servers: []domain.Server{
					{Name: "d1", Address: "10.0.0.9:80", State: domain.StateUp},
				},
			},
		},
		Frontends: []domain.Frontend{
			{
				Name:           "web-in",
				DefaultBackend: strPtr("backend_default"),
				Rules: []domain.SwitchingRule{
					{Backend: "backend_a", Conditions: []string{"host_a"}},
				},
				Domains: []string{"a.example.com"},
			},
		},
	}
}

func TestResolve_MatchedRuleEmitsOnlyEligibleServers(t *testing.T) {
	model := engine.NewModel(webInSnapshot())
	result := engine.Resolve(model, testOwnerID)

	require.Len(t, result.Mappings, 1)
	assert.Equal(t, domain.DomainMapping{
		Domain:        "a.example.com",
		InstanceID:    3,
		Frontend:      "web-in",
		Backend:       "backend_a",
		ServerAddress: "10.0.0.1:80",
		OwnerID:       testOwnerID,
	}, result.Mappings[0])
	assert.Empty(t, result.Outcomes)
}

func TestResolve_UnmatchedDomainFallsBackToDefault(t *testing.T) {
	snap := webInSnapshot()
	snap.Frontends[0].Domains = []string{"b.example.com"}

	model := engine.NewModel(snap)
	result := engine.Resolve(model, testOwnerID)

	require.Len(t, result.Mappings, 1)
	assert.Equal(t, "backend_default", result.Mappings[0].Backend)
	assert.Equal(t, "10.0.0.9:80", result.Mappings[0].ServerAddress)
	assert.Equal(t, "b.example.com", result.Mappings[0].Domain)
}

func TestResolve_UnmappedDomainWithoutDefault(t *testing.T) {
	snap := webInSnapshot()
	snap.Frontends[0].Domains = []string{"b.example.com"}
	snap.Frontends[0].DefaultBackend = nil

	model := engine.NewModel(snap)
	result := engine.Resolve(model, testOwnerID)

	assert.Empty(t, result.Mappings)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, engine.OutcomeUnmappedDomain, result.Outcomes[0].Kind)
	assert.Equal(t, "web-in", result.Outcomes[0].Frontend)
	assert.Equal(t, "b.example.com", result.Outcomes[0].Domain)
}

func TestResolve_EmptyEligibleServerSet(t *testing.T) {
	snap := webInSnapshot()
	snap.Backends[0].Servers = []domain.Server{
		{Name: "s1", Address: "10.0.0.1:80", State: domain.StateDown},
		{Name: "s2", Address: "10.0.0.2:80", State: domain.StateDown},
	}

	model := engine.NewModel(snap)
	result := engine.Resolve(model, testOwnerID)

	assert.Empty(t, result.Mappings)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, engine.OutcomeEmptyEligibleServerSet, result.Outcomes[0].Kind)
	assert.Equal(t, "backend_a", result.Outcomes[0].Backend)
	assert.Equal(t, "a.example.com", result.Outcomes[0].Domain)
}

func TestResolve_ResolvedBackendMissingFromModel(t *testing.T) {
	snap := webInSnapshot()
	// keep the rule but drop its backend from the snapshot
	snap.Backends = snap.Backends[1:]
	snap.Frontends[0].DefaultBackend = nil

	model := engine.NewModel(snap)
	result := engine.Resolve(model, testOwnerID)

	assert.Empty(t, result.Mappings)

	// reported twice: once against the rule at build time, once against the
	// (frontend, domain) pair whose mapping was omitted
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, engine.OutcomeStructuralReference, result.Outcomes[0].Kind)
	assert.Equal(t, 0, result.Outcomes[0].RuleIndex)
	assert.Equal(t, engine.OutcomeStructuralReference, result.Outcomes[1].Kind)
	assert.Equal(t, "a.example.com", result.Outcomes[1].Domain)
	assert.Equal(t, "backend_a", result.Outcomes[1].Backend)
}

func TestResolve_DeduplicatesSharedResolutions(t *testing.T) {
	snap := domain.Snapshot{
		Instance: domain.ProxyInstance{ID: 3, Name: "edge-1"},
		Conditions: []domain.ConditionDefinition{
			{Name: "any_host", Kind: domain.MatchSubstring, Patterns: []string{"example.com"}},
		},
		Backends: []domain.Backend{
			{
				Name: "backend_a",
				Servers: []domain.Server{
					{Name: "s1", Address: "10.0.0.1:80", State: domain.StateUp},
				},
			},
		},
		Frontends: []domain.Frontend{
			{
				Name: "web-in",
				Rules: []domain.SwitchingRule{
					{Backend: "backend_a", Conditions: []string{"any_host"}},
				},
				Domains: []string{"a.example.com", "a.example.com"},
			},
			{
				Name: "web-in-tls",
				Rules: []domain.SwitchingRule{
					{Backend: "backend_a", Conditions: []string{"any_host"}},
				},
				Domains: []string{"a.example.com", "b.example.com"},
			},
		},
	}

	model := engine.NewModel(snap)
	result := engine.Resolve(model, testOwnerID)

	// a.example.com resolves identically through both frontends and is
	// listed twice in the first; only the first record survives
	require.Len(t, result.Mappings, 2)
	assert.Equal(t, "a.example.com", result.Mappings[0].Domain)
	assert.Equal(t, "web-in", result.Mappings[0].Frontend)
	assert.Equal(t, "b.example.com", result.Mappings[1].Domain)
	assert.Equal(t, "web-in-tls", result.Mappings[1].Frontend)
}

func TestResolve_IsDeterministic(t *testing.T) {
	snap := webInSnapshot()
	snap.Frontends[0].Domains = []string{"a.example.com", "b.example.com", "c.example.com"}

	first := engine.Resolve(engine.NewModel(snap), testOwnerID)
	second := engine.Resolve(engine.NewModel(snap), testOwnerID)

	assert.Equal(t, first.Mappings, second.Mappings)
	assert.Equal(t, first.Outcomes, second.Outcomes)
}

func TestResolve_PartialFailureIsolation(t *testing.T) {
	snap := webInSnapshot()
	// frontend A is structurally broken; frontend B must still resolve
	broken := domain.Frontend{
		Name: "broken-in",
		Rules: []domain.SwitchingRule{
			{Backend: "backend_gone", Conditions: []string{"host_gone"}},
		},
		Domains: []string{"x.example.com"},
	}
	snap.Frontends = append([]domain.Frontend{broken}, snap.Frontends...)

	model := engine.NewModel(snap)
	result := engine.Resolve(model, testOwnerID)

	require.Len(t, result.Mappings, 1)
	assert.Equal(t, "web-in", result.Mappings[0].Frontend)
	assert.Equal(t, "a.example.com", result.Mappings[0].Domain)

	kinds := result.CountByKind()
	assert.Equal(t, 2, kinds[engine.OutcomeStructuralReference.String()])
	assert.Equal(t, 1, kinds[engine.OutcomeUnmappedDomain.String()])
}
