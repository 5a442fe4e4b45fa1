package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectorEnvVars lists every variable LoadConfig reads, so tests start
// from a clean environment
var collectorEnvVars = []string{
	"CONFIG_FILE",
	"HAPROXY_NAME", "HAPROXY_ID", "HAPROXY_URL", "HAPROXY_USERNAME", "HAPROXY_PASSWORD",
	"DB_URL", "RECORD_QUERIES", "OWNER_ID",
	"COLLECTOR_INTERVAL", "COLLECTOR_API_TIMEOUT", "COLLECTOR_REQUESTS_PER_SECOND",
	"STATUS_ENABLED", "STATUS_PORT",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_OUTPUT", "LOG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range collectorEnvVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("HAPROXY_NAME", "edge-1")
	t.Setenv("HAPROXY_URL", "http://127.0.0.1:5555")
	t.Setenv("HAPROXY_USERNAME", "admin")
	t.Setenv("HAPROXY_PASSWORD", "secret")
	t.Setenv("DB_URL", "postgres://collector@localhost/inventory")
	t.Setenv("OWNER_ID", "42")
	t.Setenv("COLLECTOR_INTERVAL", "5m")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.Proxies, 1)
	assert.Equal(t, "edge-1", cfg.Proxies[0].Name)
	assert.Equal(t, "http://127.0.0.1:5555", cfg.Proxies[0].URL)
	assert.Equal(t, "admin", cfg.Proxies[0].Username)
	assert.Equal(t, int64(42), cfg.OwnerID)
	assert.Equal(t, 5*time.Minute, cfg.Collector.Interval)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// defaults survive where nothing overrides them
	assert.Equal(t, 30*time.Second, cfg.Collector.APITimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Status.Enabled)
}

func TestLoadConfig_FileWithEnvOverride(t *testing.T) {
	clearEnv(t)

	configYAML := `
proxies:
  - name: edge-1
    url: http://file-url:5555
    username: file-user
    password: file-pass
  - name: edge-2
    url: http://edge-2:5555
database:
  url: postgres://file@localhost/inventory
owner_id: 7
status:
  enabled: true
  port: 9191
`
	configFile := filepath.Join(t.TempDir(), "collector.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(configYAML), 0644))

	t.Setenv("CONFIG_FILE", configFile)
	t.Setenv("HAPROXY_URL", "http://env-url:5555")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Len(t, cfg.Proxies, 2)
	// environment overlays the first proxy entry only
	assert.Equal(t, "edge-1", cfg.Proxies[0].Name)
	assert.Equal(t, "http://env-url:5555", cfg.Proxies[0].URL)
	assert.Equal(t, "file-user", cfg.Proxies[0].Username)
	assert.Equal(t, "http://edge-2:5555", cfg.Proxies[1].URL)

	assert.Equal(t, int64(7), cfg.OwnerID)
	assert.True(t, cfg.Status.Enabled)
	assert.Equal(t, 9191, cfg.Status.Port)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Proxies = []ProxyConfig{{Name: "edge-1", URL: "http://127.0.0.1:5555"}}
		cfg.Database.URL = "postgres://collector@localhost/inventory"
		cfg.OwnerID = 42
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid_config",
			mutate: func(c *Config) {},
		},
		{
			name:    "no_proxies",
			mutate:  func(c *Config) { c.Proxies = nil },
			wantErr: "no proxy instances configured",
		},
		{
			name:    "proxy_without_identity",
			mutate:  func(c *Config) { c.Proxies[0].Name = "" },
			wantErr: "either name or id is required",
		},
		{
			name:    "proxy_without_url",
			mutate:  func(c *Config) { c.Proxies[0].URL = "" },
			wantErr: "dataplane URL is required",
		},
		{
			name:    "missing_database_url",
			mutate:  func(c *Config) { c.Database.URL = "" },
			wantErr: "database URL is required",
		},
		{
			name:    "missing_owner",
			mutate:  func(c *Config) { c.OwnerID = 0 },
			wantErr: "owner id is required",
		},
		{
			name:    "negative_interval",
			mutate:  func(c *Config) { c.Collector.Interval = -time.Second },
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateByIDOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Proxies = []ProxyConfig{{ID: 12, URL: "http://127.0.0.1:5555"}}
	cfg.Database.URL = "postgres://collector@localhost/inventory"
	cfg.OwnerID = 42

	assert.NoError(t, cfg.Validate())
}
