package domain

import "fmt"

// ServerState represents the administrative state of a backend server
type ServerState int

const (
	// StateUp indicates the server is up and accepting traffic
	StateUp ServerState = iota
	// StateDown indicates the server is down and must not receive traffic
	StateDown
	// StateMaintenance indicates the server is disabled for maintenance
	StateMaintenance
	// StateDraining indicates the server is finishing existing connections
	// but still counts as a reachable target
	StateDraining
)

// String returns the string representation of ServerState
func (s ServerState) String() string {
	switch s {
	case StateUp:
		return "up"
	case StateDown:
		return "down"
	case StateMaintenance:
		return "maintenance"
	case StateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Eligible reports whether a server in this state contributes its address
// to domain mappings. Draining servers still hold live connections, so they
// remain reachable targets; down and maintenance servers do not.
func (s ServerState) Eligible() bool {
	return s == StateUp || s == StateDraining
}

// ParseServerState maps HAProxy runtime admin/operational state strings to
// a ServerState. The admin state wins: a server put in maintenance stays
// ineligible even while its process reports up.
func ParseServerState(adminState, operationalState string) ServerState {
	switch adminState {
	case "maint":
		return StateMaintenance
	case "drain":
		return StateDraining
	}
	if operationalState == "up" {
		return StateUp
	}
	return StateDown
}

// MatchKind represents how a condition's patterns are compared against a
// requested domain name
type MatchKind int

const (
	// MatchExact matches the whole domain, case-insensitively
	MatchExact MatchKind = iota
	// MatchPrefix matches when the domain starts with a pattern
	MatchPrefix
	// MatchSubstring matches when the domain contains a pattern
	MatchSubstring
	// MatchRegex matches a compiled regular expression pattern
	MatchRegex
)

// String returns the string representation of MatchKind
func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	case MatchSubstring:
		return "substring"
	case MatchRegex:
		return "regex"
	default:
		return "unknown"
	}
}

// ProxyInstance identifies the HAProxy instance a snapshot was collected
// from. It is the root of a snapshot and immutable for one collection run.
type ProxyInstance struct {
	ID   int64
	Name string
}

// Server is a single backend member with its address and administrative state
type Server struct {
	Name    string
	Address string // host:port
	State   ServerState
}

// Eligible reports whether this server can appear in a mapping
func (s Server) Eligible() bool {
	return s.State.Eligible()
}

// Backend is a named pool of servers in source order
type Backend struct {
	Name    string
	Servers []Server
}

// ConditionDefinition is a named predicate (an HAProxy ACL) over the
// requested domain. A condition matches when any of its patterns matches.
type ConditionDefinition struct {
	Name     string
	Kind     MatchKind
	Patterns []string
}

// SwitchingRule routes a frontend's traffic to a backend when every one of
// its referenced conditions matches. A rule with no conditions always
// matches.
type SwitchingRule struct {
	Backend    string
	Conditions []string
}

// Frontend is a proxy entry point with its ordered switching rules, an
// optional default backend and the set of domains it is declared to serve.
// Rule order is preserved from the configuration snapshot; later rules are
// only reached when earlier rules fail.
type Frontend struct {
	Name           string
	DefaultBackend *string
	Rules          []SwitchingRule
	Domains        []string
}

// Snapshot is one immutable configuration capture of a proxy instance,
// built fresh per collection run and discarded after mappings are emitted.
type Snapshot struct {
	Instance   ProxyInstance
	Frontends  []Frontend
	Conditions []ConditionDefinition
	Backends   []Backend
}

// DomainMapping is one resolved (domain, server) fact with full provenance:
// which instance, frontend and backend produced it, plus the owner id the
// run was invoked for.
type DomainMapping struct {
	Domain        string
	InstanceID    int64
	Frontend      string
	Backend       string
	ServerAddress string
	OwnerID       int64
}

// Key returns the natural identity of a mapping inside one snapshot.
// Two mappings with the same key collapse to one record.
func (m DomainMapping) Key() string {
	return fmt.Sprintf("%s|%s|%s", m.Domain, m.Backend, m.ServerAddress)
}
