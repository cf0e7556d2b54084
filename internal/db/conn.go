// Package db opens database connections for the configured backend.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hurou927/db-metadata/internal/config"
)

// NewPool creates a new pgx connection pool from config.
func NewPool(ctx context.Context, cfg *config.Connection) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// DB is an open database/sql handle together with whatever backs it.
type DB struct {
	*sql.DB
	Backend string
	pool    *pgxpool.Pool
}

// Close closes the handle and, for pgx, the underlying pool.
func (d *DB) Close() error {
	err := d.DB.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}

// Open connects to the database described by cfg and verifies the
// connection.
func Open(ctx context.Context, cfg *config.Config) (*DB, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		if cfg.Driver == config.DriverPq {
			return openSQL(ctx, cfg.Backend, "postgres", cfg.Connection.DSN())
		}
		pool, err := NewPool(ctx, &cfg.Connection)
		if err != nil {
			return nil, err
		}
		return &DB{DB: stdlib.OpenDBFromPool(pool), Backend: cfg.Backend, pool: pool}, nil
	case config.BackendSQLite:
		return openSQL(ctx, cfg.Backend, "sqlite3", cfg.Connection.Path)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func openSQL(ctx context.Context, backend, driver, dsn string) (*DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{DB: sqlDB, Backend: backend}, nil
}
