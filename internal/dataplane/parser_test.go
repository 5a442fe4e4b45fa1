package dataplane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/domain"
)

func TestParseHostACL(t *testing.T) {
	tests := []struct {
		name         string
		acl          ACL
		wantKind     domain.MatchKind
		wantPatterns []string
		wantOK       bool
	}{
		{
			name: "domain_matcher_with_multiple_patterns",
			acl: ACL{
				ACLName:   "host_examples",
				Criterion: "hdr(host)",
				Value:     "-i -m dom a.example.com || b.example.com",
			},
			wantKind:     domain.MatchSubstring,
			wantPatterns: []string{"a.example.com", "b.example.com"},
			wantOK:       true,
		},
		{
			name: "exact_string_matcher",
			acl: ACL{
				ACLName:   "host_a",
				Criterion: "req.hdr(host)",
				Value:     "-i -m str a.example.com",
			},
			wantKind:     domain.MatchExact,
			wantPatterns: []string{"a.example.com"},
			wantOK:       true,
		},
		{
			name: "bare_value_defaults_to_exact",
			acl: ACL{
				ACLName:   "host_a",
				Criterion: "hdr(host)",
				Value:     "a.example.com",
			},
			wantKind:     domain.MatchExact,
			wantPatterns: []string{"a.example.com"},
			wantOK:       true,
		},
		{
			name: "prefix_matcher",
			acl: ACL{
				ACLName:   "api_hosts",
				Criterion: "hdr(host)",
				Value:     "-i -m beg api.",
			},
			wantKind:     domain.MatchPrefix,
			wantPatterns: []string{"api."},
			wantOK:       true,
		},
		{
			name: "regex_matcher",
			acl: ACL{
				ACLName:   "node_hosts",
				Criterion: "hdr(host)",
				Value:     `-m reg ^node-\d+\.example\.com$`,
			},
			wantKind:     domain.MatchRegex,
			wantPatterns: []string{`^node-\d+\.example\.com$`},
			wantOK:       true,
		},
		{
			name: "sni_criterion_is_a_host_condition",
			acl: ACL{
				ACLName:   "sni_a",
				Criterion: "ssl_fc_sni",
				Value:     "-i a.example.com",
			},
			wantKind:     domain.MatchExact,
			wantPatterns: []string{"a.example.com"},
			wantOK:       true,
		},
		{
			name: "non_host_criterion_is_skipped",
			acl: ACL{
				ACLName:   "is_api_path",
				Criterion: "path",
				Value:     "-i -m beg /api",
			},
			wantOK: false,
		},
		{
			name: "unsupported_matcher_is_skipped",
			acl: ACL{
				ACLName:   "host_end",
				Criterion: "hdr(host)",
				Value:     "-i -m end .example.com",
			},
			wantOK: false,
		},
		{
			name: "unnamed_acl_is_skipped",
			acl: ACL{
				Criterion: "hdr(host)",
				Value:     "-i -m dom example.com",
			},
			wantOK: false,
		},
		{
			name: "empty_value_is_skipped",
			acl: ACL{
				ACLName:   "host_empty",
				Criterion: "hdr(host)",
				Value:     "-i -m dom",
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := parseHostACL(tt.acl)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.acl.ACLName, def.Name)
			assert.Equal(t, tt.wantKind, def.Kind)
			assert.Equal(t, tt.wantPatterns, def.Patterns)
		})
	}
}

func TestSplitCondTest(t *testing.T) {
	assert.Equal(t, []string{"host_a"}, splitCondTest("host_a"))
	assert.Equal(t, []string{"host_a", "host_b"}, splitCondTest("host_a host_b"))
	assert.Empty(t, splitCondTest(""))
	// negated tokens stay verbatim and later fail closed against the model
	assert.Equal(t, []string{"!host_a", "host_b"}, splitCondTest("!host_a host_b"))
}

func TestExtractDestinationAddresses(t *testing.T) {
	tests := []struct {
		name  string
		rules []HTTPRequestRule
		want  []string
	}{
		{
			name: "unconditional_destination_rule",
			rules: []HTTPRequestRule{
				{
					Type:      "set-header",
					HdrName:   "X-Destination-Backend",
					HdrFormat: "10.0.0.1:8545 10.0.0.2:8545",
				},
			},
			want: []string{"10.0.0.1:8545", "10.0.0.2:8545"},
		},
		{
			name: "conditional_rule_is_ignored",
			rules: []HTTPRequestRule{
				{
					Type:      "set-header",
					HdrName:   "X-Destination-Backend",
					HdrFormat: "10.0.0.1:8545",
					Cond:      "if",
					CondTest:  "some_acl",
				},
			},
			want: nil,
		},
		{
			name: "other_headers_are_ignored",
			rules: []HTTPRequestRule{
				{Type: "set-header", HdrName: "X-Forwarded-Proto", HdrFormat: "https"},
			},
			want: nil,
		},
		{
			name: "format_without_addresses",
			rules: []HTTPRequestRule{
				{Type: "set-header", HdrName: "X-Destination-Backend", HdrFormat: "%[src]"},
			},
			want: nil,
		},
		{
			name: "no_rules",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDestinationAddresses(tt.rules))
		})
	}
}

func TestDeriveDomains(t *testing.T) {
	conditions := map[string]domain.ConditionDefinition{
		"host_a": {Name: "host_a", Kind: domain.MatchExact, Patterns: []string{"A.Example.com"}},
		"host_b": {Name: "host_b", Kind: domain.MatchSubstring, Patterns: []string{"b.example.com", "c.example.com"}},
		"api":    {Name: "api", Kind: domain.MatchPrefix, Patterns: []string{"api."}},
		"nodes":  {Name: "nodes", Kind: domain.MatchRegex, Patterns: []string{`^node-\d+\.example\.com$`}},
	}

	rules := []domain.SwitchingRule{
		{Backend: "backend_a", Conditions: []string{"host_a"}},
		{Backend: "backend_b", Conditions: []string{"host_b", "host_a"}},
		{Backend: "backend_api", Conditions: []string{"api"}},
		{Backend: "backend_nodes", Conditions: []string{"nodes"}},
		{Backend: "backend_x", Conditions: []string{"undefined_acl"}},
	}

	domains := deriveDomains(rules, conditions)

	// literal patterns only, normalized and sorted; prefix fragments,
	// regex patterns and undefined conditions contribute nothing
	assert.Equal(t, []string{"a.example.com", "b.example.com", "c.example.com"}, domains)
}

func TestDeriveDomains_NoHostConditions(t *testing.T) {
	rules := []domain.SwitchingRule{
		{Backend: "backend_a", Conditions: nil},
	}
	assert.Empty(t, deriveDomains(rules, map[string]domain.ConditionDefinition{}))
}
