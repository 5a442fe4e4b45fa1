package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config represents the main configuration structure
type Config struct {
	Proxies   []ProxyConfig   `yaml:"proxies"`
	Database  DatabaseConfig  `yaml:"database"`
	OwnerID   int64           `yaml:"owner_id"`
	Collector CollectorConfig `yaml:"collector"`
	Status    StatusConfig    `yaml:"status"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ProxyConfig identifies one HAProxy instance to collect from. Either the
// name or the numeric id must match a registered instance in the database.
type ProxyConfig struct {
	Name     string `yaml:"name"`
	ID       int64  `yaml:"id"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DatabaseConfig contains inventory database configuration
type DatabaseConfig struct {
	URL        string `yaml:"url"`
	LogQueries bool   `yaml:"log_queries"`
}

// CollectorConfig contains collection run configuration
type CollectorConfig struct {
	Interval          time.Duration `yaml:"interval"` // 0 runs one collection and exits
	APITimeout        time.Duration `yaml:"api_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// StatusConfig contains the status endpoint configuration
type StatusConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	File   string `yaml:"file"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Collector: CollectorConfig{
			Interval:          0,
			APITimeout:        30 * time.Second,
			RequestsPerSecond: 20,
		},
		Status: StatusConfig{
			Enabled: false,
			Port:    9090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// LoadConfig loads configuration from an optional CONFIG_FILE and applies
// environment variable overrides on top
func LoadConfig() (*Config, error) {
	config := DefaultConfig()

	if configFile := os.Getenv("CONFIG_FILE"); configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	config.applyEnvironment()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvironment overrides configuration from environment variables.
// The HAPROXY_* variables define or override the first proxy entry, which
// keeps single-instance deployments environment-only.
func (c *Config) applyEnvironment() {
	envProxy := ProxyConfig{
		Name:     getEnv("HAPROXY_NAME", ""),
		URL:      getEnv("HAPROXY_URL", ""),
		Username: getEnv("HAPROXY_USERNAME", ""),
		Password: getEnv("HAPROXY_PASSWORD", ""),
	}
	if id := getEnv("HAPROXY_ID", ""); id != "" {
		if parsed, err := strconv.ParseInt(id, 10, 64); err == nil {
			envProxy.ID = parsed
		}
	}

	if envProxy != (ProxyConfig{}) {
		if len(c.Proxies) == 0 {
			c.Proxies = []ProxyConfig{envProxy}
		} else {
			c.Proxies[0] = mergeProxy(c.Proxies[0], envProxy)
		}
	}

	if url := getEnv("DB_URL", ""); url != "" {
		c.Database.URL = url
	}
	if record := getEnv("RECORD_QUERIES", ""); record != "" {
		c.Database.LogQueries = strings.ToLower(record) == "true" || record == "1"
	}

	if owner := getEnv("OWNER_ID", ""); owner != "" {
		if parsed, err := strconv.ParseInt(owner, 10, 64); err == nil {
			c.OwnerID = parsed
		}
	}

	if interval := getEnv("COLLECTOR_INTERVAL", ""); interval != "" {
		if parsed, err := time.ParseDuration(interval); err == nil {
			c.Collector.Interval = parsed
		}
	}
	if timeout := getEnv("COLLECTOR_API_TIMEOUT", ""); timeout != "" {
		if parsed, err := time.ParseDuration(timeout); err == nil && parsed > 0 {
			c.Collector.APITimeout = parsed
		}
	}
	if rps := getEnv("COLLECTOR_REQUESTS_PER_SECOND", ""); rps != "" {
		if parsed, err := strconv.ParseFloat(rps, 64); err == nil && parsed > 0 {
			c.Collector.RequestsPerSecond = parsed
		}
	}

	if enabled := getEnv("STATUS_ENABLED", ""); enabled != "" {
		c.Status.Enabled = strings.ToLower(enabled) == "true"
	}
	if port := getEnv("STATUS_PORT", ""); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && parsed > 0 && parsed <= 65535 {
			c.Status.Port = parsed
		}
	}

	if level := getEnv("LOG_LEVEL", ""); level != "" {
		c.Logging.Level = level
	}
	if format := getEnv("LOG_FORMAT", ""); format != "" {
		c.Logging.Format = format
	}
	if output := getEnv("LOG_OUTPUT", ""); output != "" {
		c.Logging.Output = output
	}
	if file := getEnv("LOG_FILE", ""); file != "" {
		c.Logging.File = file
	}
}

// mergeProxy overlays the non-empty fields of override onto base
func mergeProxy(base, override ProxyConfig) ProxyConfig {
	if override.Name != "" {
		base.Name = override.Name
	}
	if override.ID != 0 {
		base.ID = override.ID
	}
	if override.URL != "" {
		base.URL = override.URL
	}
	if override.Username != "" {
		base.Username = override.Username
	}
	if override.Password != "" {
		base.Password = override.Password
	}
	return base
}

// Validate checks the configuration for completeness
func (c *Config) Validate() error {
	if len(c.Proxies) == 0 {
		return fmt.Errorf("no proxy instances configured; set HAPROXY_NAME or HAPROXY_ID, or list proxies in the config file")
	}
	for i, proxy := range c.Proxies {
		if proxy.Name == "" && proxy.ID == 0 {
			return fmt.Errorf("proxy %d: either name or id is required", i)
		}
		if proxy.URL == "" {
			return fmt.Errorf("proxy %d: dataplane URL is required", i)
		}
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required; set DB_URL or database.url")
	}
	if c.OwnerID <= 0 {
		return fmt.Errorf("owner id is required; set OWNER_ID or owner_id")
	}
	if c.Collector.Interval < 0 {
		return fmt.Errorf("collector interval must not be negative")
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
