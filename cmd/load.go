package cmd

import (
	"context"
	"fmt"

	"github.com/hurou927/db-metadata/internal/config"
	"github.com/hurou927/db-metadata/internal/db"
	"github.com/hurou927/db-metadata/internal/introspect"
	"github.com/hurou927/db-metadata/internal/metadata"
)

// session is a loaded metadata tree and the connection it reads partitions
// through. Close it once the tree is no longer used.
type session struct {
	db *db.DB
	md *metadata.Metadata
}

func (s *session) Close() error { return s.db.Close() }

func openSession(ctx context.Context) (*session, error) {
	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	var (
		src      introspect.Source
		strategy introspect.Strategy
	)
	switch conn.Backend {
	case config.BackendSQLite:
		s := introspect.NewSQLiteSource(conn.DB)
		src, strategy = s, introspect.NewGenericStrategy(s)
	default:
		s := introspect.NewPostgresSource(conn.DB)
		src, strategy = s, introspect.NewPostgresStrategy(s, logger)
	}

	md, err := introspect.Load(ctx, src, strategy, introspect.Options{Schemas: cfg.Schemas, Logger: logger})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("introspecting schema: %w", err)
	}
	return &session{db: conn, md: md}, nil
}

// lookupSchema finds a schema of the default catalog. "-" and "" name the
// unnamed schema of backends without schemas.
func lookupSchema(md *metadata.Metadata, name string) (*metadata.Schema, error) {
	catalog := md.DefaultCatalog()
	if catalog == nil {
		return nil, fmt.Errorf("no catalog loaded")
	}
	if name == "" || name == "-" {
		if s := catalog.SyntheticSchema(); s != nil {
			return s, nil
		}
		if s := catalog.DefaultSchema(); s != nil {
			return s, nil
		}
	}
	if s := catalog.Schema(name); s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("schema %q not found", name)
}

func lookupTable(md *metadata.Metadata, schemaName, tableName string) (*metadata.Table, error) {
	schema, err := lookupSchema(md, schemaName)
	if err != nil {
		return nil, err
	}
	t := schema.Table(tableName)
	if t == nil {
		return nil, fmt.Errorf("table %q not found in schema %q", tableName, schemaName)
	}
	return t, nil
}
