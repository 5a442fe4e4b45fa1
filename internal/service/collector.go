// Package service orchestrates collection runs: fetch a configuration
// snapshot per proxy instance, resolve it to domain mappings and persist
// the result. Each instance's snapshot is independent, so instances are
// collected concurrently.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/config"
	"github.com/ibrahim-dwellir/haproxy-collector/internal/dataplane"
	"github.com/ibrahim-dwellir/haproxy-collector/internal/domain"
	"github.com/ibrahim-dwellir/haproxy-collector/internal/engine"
	"github.com/ibrahim-dwellir/haproxy-collector/pkg/logger"
)

// MappingStore is the persistence surface the collector drives: instance
// lookups before a run and the mapping write-out after resolution
type MappingStore interface {
	InstanceByName(ctx context.Context, name string) (domain.ProxyInstance, error)
	InstanceByID(ctx context.Context, id int64) (domain.ProxyInstance, error)
	SaveMappings(ctx context.Context, ownerID int64, instance domain.ProxyInstance, mappings []domain.DomainMapping) error
}

// InstanceResult summarizes the collection of one proxy instance
type InstanceResult struct {
	Instance string         `json:"instance"`
	Mappings int            `json:"mappings"`
	Outcomes map[string]int `json:"outcomes,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// RunSummary summarizes one full collection run across all instances
type RunSummary struct {
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Instances []InstanceResult `json:"instances"`
}

// Mappings returns the total number of mappings persisted in the run
func (s *RunSummary) Mappings() int {
	total := 0
	for _, r := range s.Instances {
		total += r.Mappings
	}
	return total
}

// Failed reports whether any instance's collection failed
func (s *RunSummary) Failed() bool {
	for _, r := range s.Instances {
		if r.Error != "" {
			return true
		}
	}
	return false
}

// Collector drives collection runs over the configured proxy instances
type Collector struct {
	cfg    *config.Config
	store  MappingStore
	logger *logger.Logger
}

// NewCollector creates a collector
func NewCollector(cfg *config.Config, store MappingStore, log *logger.Logger) *Collector {
	return &Collector{
		cfg:    cfg,
		store:  store,
		logger: log,
	}
}

// Run performs one collection run. Instances are collected concurrently
// and independently: one instance's failure is reported in the summary
// without stopping the others. The summary's instance order matches the
// configuration order regardless of completion order.
func (c *Collector) Run(ctx context.Context) *RunSummary {
	summary := &RunSummary{
		StartedAt: time.Now().UTC(),
		Instances: make([]InstanceResult, len(c.cfg.Proxies)),
	}

	var wg sync.WaitGroup
	for i, proxy := range c.cfg.Proxies {
		wg.Add(1)
		go func(i int, proxy config.ProxyConfig) {
			defer wg.Done()
			summary.Instances[i] = c.collectInstance(ctx, proxy)
		}(i, proxy)
	}
	wg.Wait()

	summary.Duration = time.Since(summary.StartedAt)

	c.logger.WithFields(map[string]interface{}{
		"instances":   len(summary.Instances),
		"mappings":    summary.Mappings(),
		"duration_ms": summary.Duration.Milliseconds(),
		"failed":      summary.Failed(),
	}).Info("Collection run finished")

	return summary
}

// collectInstance runs the full pipeline for one proxy instance
func (c *Collector) collectInstance(ctx context.Context, proxy config.ProxyConfig) InstanceResult {
	result := InstanceResult{Instance: proxy.Name}

	instance, err := c.lookupInstance(ctx, proxy)
	if err != nil {
		result.Error = err.Error()
		c.logger.WithError(err).Error("Proxy instance lookup failed")
		return result
	}
	result.Instance = instance.Name

	log := c.logger.InstanceLogger(instance.Name, instance.ID)

	client, err := dataplane.NewClient(dataplane.ClientConfig{
		BaseURL:           proxy.URL,
		Username:          proxy.Username,
		Password:          proxy.Password,
		Timeout:           c.cfg.Collector.APITimeout,
		RequestsPerSecond: c.cfg.Collector.RequestsPerSecond,
	}, c.logger)
	if err != nil {
		result.Error = err.Error()
		log.WithError(err).Error("Dataplane client setup failed")
		return result
	}

	snapshot, err := client.BuildSnapshot(ctx, instance)
	if err != nil {
		result.Error = err.Error()
		log.WithError(err).Error("Snapshot collection failed")
		return result
	}

	model := engine.NewModel(snapshot)
	resolved := engine.Resolve(model, c.cfg.OwnerID)

	for _, outcome := range resolved.Outcomes {
		log.WithField("outcome", outcome.String()).Warn("Resolution outcome")
	}

	if err := c.store.SaveMappings(ctx, c.cfg.OwnerID, instance, resolved.Mappings); err != nil {
		result.Error = err.Error()
		log.WithError(err).Error("Failed to persist mappings")
		return result
	}

	result.Mappings = len(resolved.Mappings)
	result.Outcomes = resolved.CountByKind()

	log.WithFields(map[string]interface{}{
		"frontends": len(snapshot.Frontends),
		"backends":  len(snapshot.Backends),
		"mappings":  result.Mappings,
		"outcomes":  len(resolved.Outcomes),
	}).Info("Instance collected")

	return result
}

// lookupInstance resolves the configured proxy against the registered
// instances in the database, by name when given, otherwise by id.
func (c *Collector) lookupInstance(ctx context.Context, proxy config.ProxyConfig) (domain.ProxyInstance, error) {
	if proxy.Name != "" {
		return c.store.InstanceByName(ctx, proxy.Name)
	}
	return c.store.InstanceByID(ctx, proxy.ID)
}
