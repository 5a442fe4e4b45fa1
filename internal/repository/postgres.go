// Package repository persists resolved domain mappings into the inventory
// database. Upsert-by-natural-key and staleness handling live in the
// database's stored procedures; the collector only stages the rows of the
// current run.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/ibrahim-dwellir/haproxy-collector/internal/domain"
	"github.com/ibrahim-dwellir/haproxy-collector/internal/errors"
	"github.com/ibrahim-dwellir/haproxy-collector/pkg/logger"
)

// Config holds database configuration
type Config struct {
	URL        string
	LogQueries bool
}

// Store writes collection runs to Postgres
type Store struct {
	db         *sql.DB
	logger     *logger.Logger
	logQueries bool
}

// Open creates a Store for the given database URL. The connection is
// established lazily; call Ping to verify it.
func Open(cfg Config, log *logger.Logger) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "repository", "database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDatabase, "repository", "failed to open database", err)
	}

	return &Store{
		db:         db,
		logger:     log.DatabaseLogger(),
		logQueries: cfg.LogQueries,
	}, nil
}

// Ping verifies the database connection
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, "repository", "database unreachable", err)
	}
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// InstanceByName looks up a registered proxy instance by name. Instances
// must be registered before a collection run targets them.
func (s *Store) InstanceByName(ctx context.Context, name string) (domain.ProxyInstance, error) {
	var id int64
	err := s.queryRow(ctx, "SELECT id FROM haproxy WHERE name = $1 LIMIT 1", name).Scan(&id)
	if err == sql.ErrNoRows {
		return domain.ProxyInstance{}, errors.Newf(errors.ErrCodeUnknownInstance, "repository",
			"proxy instance '%s' is not registered; add it before collecting", name)
	}
	if err != nil {
		return domain.ProxyInstance{}, errors.Wrap(errors.ErrCodeDatabase, "repository", "instance lookup failed", err)
	}
	return domain.ProxyInstance{ID: id, Name: name}, nil
}

// InstanceByID looks up a registered proxy instance by id
func (s *Store) InstanceByID(ctx context.Context, id int64) (domain.ProxyInstance, error) {
	var name string
	err := s.queryRow(ctx, "SELECT name FROM haproxy WHERE id = $1 LIMIT 1", id).Scan(&name)
	if err == sql.ErrNoRows {
		return domain.ProxyInstance{}, errors.Newf(errors.ErrCodeUnknownInstance, "repository",
			"proxy instance %d is not registered; add it before collecting", id)
	}
	if err != nil {
		return domain.ProxyInstance{}, errors.Wrap(errors.ErrCodeDatabase, "repository", "instance lookup failed", err)
	}
	return domain.ProxyInstance{ID: id, Name: name}, nil
}

// SaveMappings writes one run's mappings in a single transaction: create
// the entry row for provenance, stage every mapping into the temp table
// and hand off to the insert procedure that owns upsert and staleness
// semantics.
func (s *Store) SaveMappings(ctx context.Context, ownerID int64, instance domain.ProxyInstance, mappings []domain.DomainMapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, "repository", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var entryID int64
	if err := s.txQueryRow(ctx, tx,
		"INSERT INTO entry (owner) VALUES ($1) RETURNING id", ownerID).Scan(&entryID); err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, "repository", "failed to create entry row", err)
	}

	if err := s.txExec(ctx, tx, "CALL setup_haproxy_temp_tables_v1()"); err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, "repository", "failed to prepare temp tables", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO temp_haproxy_map (row_source, haproxy, frontend, backend, domain, ip)"+
			" VALUES ($1, $2, $3, $4, $5, $6)")
	if err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, "repository", "failed to prepare staging insert", err)
	}
	defer stmt.Close()

	for _, m := range mappings {
		if s.logQueries {
			s.logger.Debugf("stage mapping entry=%d instance=%d %s -> %s", entryID, instance.ID, m.Domain, m.ServerAddress)
		}
		if _, err := stmt.ExecContext(ctx, entryID, instance.ID, m.Frontend, m.Backend, m.Domain, m.ServerAddress); err != nil {
			return errors.Wrap(errors.ErrCodeDatabase, "repository",
				fmt.Sprintf("failed to stage mapping for domain %s", m.Domain), err)
		}
	}

	if err := s.txExec(ctx, tx, "CALL insert_haproxy_data_v1($1)", ownerID); err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, "repository", "insert procedure failed", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeDatabase, "repository", "failed to commit run", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"entry_id": entryID,
		"instance": instance.Name,
		"mappings": len(mappings),
	}).Info("Collection run persisted")

	return nil
}

func (s *Store) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	if s.logQueries {
		s.logger.Debugf("query: %s %v", query, args)
	}
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *Store) txQueryRow(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) *sql.Row {
	if s.logQueries {
		s.logger.Debugf("query: %s %v", query, args)
	}
	return tx.QueryRowContext(ctx, query, args...)
}

func (s *Store) txExec(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) error {
	if s.logQueries {
		s.logger.Debugf("exec: %s %v", query, args)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
