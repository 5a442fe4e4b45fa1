package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/config"
	"github.com/ibrahim-dwellir/haproxy-collector/internal/handler"
	"github.com/ibrahim-dwellir/haproxy-collector/internal/repository"
	"github.com/ibrahim-dwellir/haproxy-collector/internal/service"
	"github.com/ibrahim-dwellir/haproxy-collector/pkg/logger"
)

const (
	version         = "1.0.0"
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"version":  version,
		"proxies":  len(cfg.Proxies),
		"owner_id": cfg.OwnerID,
		"interval": cfg.Collector.Interval.String(),
	}).Info("Starting HAProxy collector")

	store, err := repository.Open(repository.Config{
		URL:        cfg.Database.URL,
		LogQueries: cfg.Database.LogQueries,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		log.WithError(err).Fatal("Database unreachable")
	}

	collector := service.NewCollector(cfg, store, log)
	status := handler.NewStatusHandler(version)

	var statusServer *http.Server
	if cfg.Status.Enabled {
		statusServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Status.Port),
			Handler:      handler.NewRouter(status, log),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			log.WithField("port", cfg.Status.Port).Info("Status endpoint listening")
			if err := statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Status server failed")
			}
		}()
	}

	// Shut down on SIGINT/SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.WithField("signal", sig.String()).Info("Shutdown signal received")
		cancel()
	}()

	exitCode := runLoop(ctx, cfg, collector, status, log)

	if statusServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Status server shutdown failed")
		}
	}

	os.Exit(exitCode)
}

// runLoop performs collection runs until the context is cancelled. A zero
// interval runs one collection and returns; its failure state becomes the
// process exit code so one-shot invocations compose with schedulers.
func runLoop(ctx context.Context, cfg *config.Config, collector *service.Collector, status *handler.StatusHandler, log *logger.Logger) int {
	summary := collector.Run(ctx)
	status.Record(summary)

	if cfg.Collector.Interval == 0 {
		if summary.Failed() {
			return 1
		}
		return 0
	}

	ticker := time.NewTicker(cfg.Collector.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Collector stopped")
			return 0
		case <-ticker.C:
			summary := collector.Run(ctx)
			status.Record(summary)
		}
	}
}
