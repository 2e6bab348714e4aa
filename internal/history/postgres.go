package history

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the connection pool for the run table.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresStore writes run records into Postgres.
//
// Expected schema:
//
//	CREATE TABLE scrape_runs (
//	    run_id TEXT PRIMARY KEY,
//	    started_at TIMESTAMPTZ NOT NULL,
//	    fingerprint TEXT NOT NULL,
//	    has_changes BOOLEAN NOT NULL,
//	    new_departments INT NOT NULL,
//	    modified_departments INT NOT NULL,
//	    new_courses INT NOT NULL,
//	    modified_courses INT NOT NULL,
//	    total_departments INT NOT NULL,
//	    total_courses INT NOT NULL,
//	    created_at TIMESTAMPTZ DEFAULT NOW()
//	);
type PostgresStore struct {
	pool  execCloser
	table string
}

// NewPostgresStore connects a pool using the provided config.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "scrape_runs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool execCloser, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "scrape_runs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// RecordRun inserts one audit row.
func (s *PostgresStore) RecordRun(ctx context.Context, rec RunRecord) error {
	query := fmt.Sprintf(`INSERT INTO %s (
		run_id, started_at, fingerprint, has_changes,
		new_departments, modified_departments, new_courses, modified_courses,
		total_departments, total_courses
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.table)

	if _, err := s.pool.Exec(ctx, query,
		rec.RunID,
		rec.StartedAt,
		rec.Fingerprint,
		rec.HasChanges,
		rec.NewDepartments,
		rec.ModifiedDepartments,
		rec.NewCourses,
		rec.ModifiedCourses,
		rec.TotalDepartments,
		rec.TotalCourses,
	); err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
