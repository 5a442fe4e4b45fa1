// Package dataplane fetches configuration and runtime state from the
// HAProxy Dataplane API and normalizes it into the snapshot form the
// resolution engine operates on.
package dataplane

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/errors"
	"github.com/ibrahim-dwellir/haproxy-collector/pkg/logger"
)

const apiPrefix = "/v3/services/haproxy"

// ClientConfig holds Dataplane API client configuration
type ClientConfig struct {
	BaseURL           string
	Username          string
	Password          string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client talks to one HAProxy Dataplane API endpoint using basic auth.
// Requests are throttled so a collection run cannot overwhelm the
// management socket behind the API.
type Client struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *logger.Logger
}

// NewClient creates a Dataplane API client
func NewClient(cfg ClientConfig, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "dataplane", "base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 20
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		logger:   log.DataplaneLogger(cfg.BaseURL),
	}, nil
}

// get performs one throttled GET and decodes the JSON response into out
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotFetch, "dataplane", "request throttling interrupted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotFetch, "dataplane", "failed to build request", err)
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotFetch, "dataplane",
			fmt.Sprintf("request to %s failed", path), err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(map[string]interface{}{
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Dataplane API request completed")

	if resp.StatusCode != http.StatusOK {
		return errors.Newf(errors.ErrCodeSnapshotFetch, "dataplane",
			"request to %s returned status %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotDecode, "dataplane",
			fmt.Sprintf("failed to decode response from %s", path), err)
	}

	return nil
}

// Frontends returns the configured frontends
func (c *Client) Frontends(ctx context.Context) ([]Frontend, error) {
	var frontends []Frontend
	err := c.get(ctx, apiPrefix+"/configuration/frontends", &frontends)
	return frontends, err
}

// ACLs returns the ACL lines of one frontend
func (c *Client) ACLs(ctx context.Context, frontend string) ([]ACL, error) {
	var acls []ACL
	err := c.get(ctx, apiPrefix+"/configuration/frontends/"+url.PathEscape(frontend)+"/acls", &acls)
	return acls, err
}

// BackendSwitchingRules returns the ordered switching rules of one frontend
func (c *Client) BackendSwitchingRules(ctx context.Context, frontend string) ([]BackendSwitchingRule, error) {
	var rules []BackendSwitchingRule
	err := c.get(ctx, apiPrefix+"/configuration/frontends/"+url.PathEscape(frontend)+"/backend_switching_rules", &rules)
	return rules, err
}

// Backends returns the configured backends
func (c *Client) Backends(ctx context.Context) ([]Backend, error) {
	var backends []Backend
	err := c.get(ctx, apiPrefix+"/configuration/backends", &backends)
	return backends, err
}

// Servers returns the configured servers of one backend
func (c *Client) Servers(ctx context.Context, backend string) ([]Server, error) {
	var servers []Server
	err := c.get(ctx, apiPrefix+"/configuration/backends/"+url.PathEscape(backend)+"/servers", &servers)
	return servers, err
}

// HTTPRequestRules returns the http-request rules of one backend
func (c *Client) HTTPRequestRules(ctx context.Context, backend string) ([]HTTPRequestRule, error) {
	var rules []HTTPRequestRule
	err := c.get(ctx, apiPrefix+"/configuration/backends/"+url.PathEscape(backend)+"/http_request_rules", &rules)
	return rules, err
}

// RuntimeServers returns the runtime state of one backend's servers
func (c *Client) RuntimeServers(ctx context.Context, backend string) ([]RuntimeServer, error) {
	var servers []RuntimeServer
	err := c.get(ctx, apiPrefix+"/runtime/backends/"+url.PathEscape(backend)+"/servers", &servers)
	return servers, err
}
