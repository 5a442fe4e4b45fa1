package dataplane

// Raw document shapes returned by the HAProxy Dataplane API v3
// configuration and runtime endpoints. Only the fields the collector
// reads are declared.

// Frontend is one entry in /services/haproxy/configuration/frontends
type Frontend struct {
	Name           string `json:"name"`
	DefaultBackend string `json:"default_backend,omitempty"`
}

// ACL is one entry in /services/haproxy/configuration/frontends/{name}/acls.
// The matcher flags and patterns are embedded in the value string, e.g.
// "-i -m dom example.com || example.org".
type ACL struct {
	ACLName   string `json:"acl_name"`
	Criterion string `json:"criterion"`
	Value     string `json:"value"`
}

// BackendSwitchingRule is one entry in
// /services/haproxy/configuration/frontends/{name}/backend_switching_rules.
// CondTest holds the space-separated ACL names guarding the switch.
type BackendSwitchingRule struct {
	Name     string `json:"name"`
	Cond     string `json:"cond,omitempty"`
	CondTest string `json:"cond_test,omitempty"`
}

// Backend is one entry in /services/haproxy/configuration/backends
type Backend struct {
	Name string `json:"name"`
}

// Server is one entry in
// /services/haproxy/configuration/backends/{name}/servers
type Server struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Port    *int   `json:"port,omitempty"`
}

// HTTPRequestRule is one entry in
// /services/haproxy/configuration/backends/{name}/http_request_rules
type HTTPRequestRule struct {
	Type      string `json:"type"`
	HdrName   string `json:"hdr_name,omitempty"`
	HdrFormat string `json:"hdr_format,omitempty"`
	Cond      string `json:"cond,omitempty"`
	CondTest  string `json:"cond_test,omitempty"`
}

// RuntimeServer is one entry in the runtime servers endpoint; it carries
// the administrative and operational state next to the address.
type RuntimeServer struct {
	Name             string `json:"name"`
	Address          string `json:"address"`
	Port             *int   `json:"port,omitempty"`
	AdminState       string `json:"admin_state"`
	OperationalState string `json:"operational_state"`
}
