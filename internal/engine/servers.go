package engine

// EligibleAddresses returns the addresses of the named backend's servers
// that can take traffic, preserving server source order. A known backend
// with no eligible servers yields an empty slice: "configured but currently
// unreachable" is a valid, reportable state, distinct from the unknown
// backend case signalled by the second return value.
func (m *Model) EligibleAddresses(backendName string) ([]string, bool) {
	backend, ok := m.backends[backendName]
	if !ok {
		return nil, false
	}

	addresses := make([]string, 0, len(backend.Servers))
	for _, server := range backend.Servers {
		if server.Eligible() {
			addresses = append(addresses, server.Address)
		}
	}
	return addresses, true
}
