// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
)

// DefaultAlertTable is used when AlertStoreConfig.Table is empty.
const DefaultAlertTable = "crawler_alerts"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// AlertStoreConfig controls the Postgres connection pool used for alert history.
type AlertStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// AlertStore appends delivered alerts to a Postgres table.
type AlertStore struct {
	pool  execCloser
	table string
}

// NewAlertStore connects to Postgres using cfg.
func NewAlertStore(ctx context.Context, cfg AlertStoreConfig) (*AlertStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
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
	return &AlertStore{pool: pool, table: table}, nil
}

// NewAlertStoreWithPool constructs a store from an existing pool.
func NewAlertStoreWithPool(pool execCloser, table string) (*AlertStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &AlertStore{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		return DefaultAlertTable, nil
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the alert table when it does not exist.
func (s *AlertStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	job_name TEXT NOT NULL,
	target TEXT NOT NULL,
	message TEXT NOT NULL,
	sent_at TIMESTAMPTZ NOT NULL,
	suppressed_until TIMESTAMPTZ NOT NULL
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *AlertStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// RecordAlert inserts one alert row.
func (s *AlertStore) RecordAlert(ctx context.Context, rec crawler.AlertRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("alert store is not configured")
	}
	if rec.ID == "" {
		return fmt.Errorf("alert id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	run_id,
	job_name,
	target,
	message,
	sent_at,
	suppressed_until
) VALUES (
	$1,$2,$3,$4,$5,$6,$7
)`, s.table)

	args := []any{
		rec.ID,
		rec.RunID,
		rec.JobName,
		rec.Target,
		rec.Message,
		rec.SentAt,
		rec.SuppressedUntil,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}
