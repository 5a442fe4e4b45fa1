package dataplane

import (
	"context"
	"net"
	"strconv"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/domain"
)

// BuildSnapshot fetches the full configuration and runtime state of one
// HAProxy instance and normalizes it into the engine's snapshot form. The
// snapshot preserves source order everywhere order matters: frontends,
// switching rules and servers come back exactly as configured.
//
// Any request or decode failure aborts the snapshot: the engine never sees
// a partially decoded document. Localized configuration problems (dangling
// names, bad patterns) survive into the snapshot untouched and are the
// engine's to report.
func (c *Client) BuildSnapshot(ctx context.Context, instance domain.ProxyInstance) (domain.Snapshot, error) {
	snap := domain.Snapshot{Instance: instance}

	frontends, err := c.Frontends(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	conditionsByName := make(map[string]domain.ConditionDefinition)

	for _, rawFE := range frontends {
		fe := domain.Frontend{Name: rawFE.Name}
		if rawFE.DefaultBackend != "" {
			defaultBackend := rawFE.DefaultBackend
			fe.DefaultBackend = &defaultBackend
		}

		acls, err := c.ACLs(ctx, rawFE.Name)
		if err != nil {
			return domain.Snapshot{}, err
		}
		for _, acl := range acls {
			def, ok := parseHostACL(acl)
			if !ok {
				continue
			}
			// HAProxy accumulates patterns declared under one ACL name;
			// repeated lines of the same matcher merge into one condition.
			if existing, dup := conditionsByName[def.Name]; dup && existing.Kind == def.Kind {
				existing.Patterns = append(existing.Patterns, def.Patterns...)
				conditionsByName[def.Name] = existing
				continue
			}
			conditionsByName[def.Name] = def
			snap.Conditions = append(snap.Conditions, def)
		}

		rules, err := c.BackendSwitchingRules(ctx, rawFE.Name)
		if err != nil {
			return domain.Snapshot{}, err
		}
		for _, rawRule := range rules {
			fe.Rules = append(fe.Rules, domain.SwitchingRule{
				Backend:    rawRule.Name,
				Conditions: splitCondTest(rawRule.CondTest),
			})
		}

		fe.Domains = deriveDomains(fe.Rules, conditionsByName)
		snap.Frontends = append(snap.Frontends, fe)
	}

	// Conditions accumulated patterns while frontends were walked; refresh
	// the slice so every definition carries its final pattern list.
	for i, def := range snap.Conditions {
		snap.Conditions[i] = conditionsByName[def.Name]
	}

	backends, err := c.Backends(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	for _, rawBackend := range backends {
		backend, err := c.buildBackend(ctx, rawBackend.Name)
		if err != nil {
			return domain.Snapshot{}, err
		}
		snap.Backends = append(snap.Backends, backend)
	}

	return snap, nil
}

// buildBackend assembles one backend's server pool. A backend publishing
// its endpoints through a destination-header rule gets those addresses as
// synthesized up servers; otherwise the configured server list is joined
// with runtime admin/operational state.
func (c *Client) buildBackend(ctx context.Context, name string) (domain.Backend, error) {
	backend := domain.Backend{Name: name}

	requestRules, err := c.HTTPRequestRules(ctx, name)
	if err != nil {
		return domain.Backend{}, err
	}
	if addresses := extractDestinationAddresses(requestRules); addresses != nil {
		for i, address := range addresses {
			backend.Servers = append(backend.Servers, domain.Server{
				Name:    name + "-dest-" + strconv.Itoa(i+1),
				Address: address,
				State:   domain.StateUp,
			})
		}
		return backend, nil
	}

	servers, err := c.Servers(ctx, name)
	if err != nil {
		return domain.Backend{}, err
	}

	states := make(map[string]domain.ServerState)
	runtimeServers, err := c.RuntimeServers(ctx, name)
	if err != nil {
		// Runtime state is unavailable while a backend has no live
		// process entry; configured servers then default to up.
		c.logger.WithField("backend", name).WithError(err).
			Debug("Runtime server state unavailable, assuming configured servers up")
	} else {
		for _, rs := range runtimeServers {
			states[rs.Name] = domain.ParseServerState(rs.AdminState, rs.OperationalState)
		}
	}

	for _, server := range servers {
		state, ok := states[server.Name]
		if !ok {
			state = domain.StateUp
		}
		backend.Servers = append(backend.Servers, domain.Server{
			Name:    server.Name,
			Address: joinAddress(server.Address, server.Port),
			State:   state,
		})
	}

	return backend, nil
}

// joinAddress renders host:port, leaving a bare host when the
// configuration omits the port.
func joinAddress(address string, port *int) string {
	if port == nil {
		return address
	}
	return net.JoinHostPort(address, strconv.Itoa(*port))
}
