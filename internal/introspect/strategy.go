package introspect

import (
	"context"
	"fmt"

	"github.com/hurou927/db-metadata/internal/metadata"
)

// TableInfo is a table name with its classification.
type TableInfo struct {
	Name  string
	Types metadata.TableType
}

// Strategy holds the backend-specific parts of table construction.
type Strategy interface {
	// SchemaTables returns the tables that belong directly to a schema.
	SchemaTables(ctx context.Context, catalog, schema string) ([]TableInfo, error)
	// Partitions returns the partitions of t. Strategies for backends without
	// partitions return nil.
	Partitions(ctx context.Context, t *metadata.Table) ([]TableInfo, error)
}

// GenericStrategy lists plain and system tables and knows nothing about
// partitions.
type GenericStrategy struct {
	src TableLister
}

func NewGenericStrategy(src TableLister) *GenericStrategy {
	return &GenericStrategy{src: src}
}

func (g *GenericStrategy) SchemaTables(ctx context.Context, catalog, schema string) ([]TableInfo, error) {
	rows, err := g.src.Tables(ctx, catalog, schema, "%", []string{TypeTable, TypeSystemTable})
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	infos := make([]TableInfo, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, TableInfo{Name: r.Name, Types: metadata.ParseTableType(r.Type)})
	}
	return infos, nil
}

func (g *GenericStrategy) Partitions(context.Context, *metadata.Table) ([]TableInfo, error) {
	return nil, nil
}
