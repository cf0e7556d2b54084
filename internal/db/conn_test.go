package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/db-metadata/internal/config"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Backend:    config.BackendSQLite,
		Connection: config.Connection{Path: filepath.Join(t.TempDir(), "notes.db")},
	}

	d, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, config.BackendSQLite, d.Backend)
	_, err = d.ExecContext(ctx, "CREATE TABLE notes (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
}

func TestOpenPostgresUnreachable(t *testing.T) {
	for _, driver := range []string{config.DriverPgx, config.DriverPq} {
		t.Run(driver, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			cfg := &config.Config{
				Backend: config.BackendPostgres,
				Driver:  driver,
				Connection: config.Connection{
					Host: "127.0.0.1", Port: 1, Database: "shop", User: "reader", SSLMode: "disable",
				},
			}

			_, err := Open(ctx, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "pinging database")
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Backend: "oracle"})
	assert.EqualError(t, err, `unknown backend "oracle"`)
}
