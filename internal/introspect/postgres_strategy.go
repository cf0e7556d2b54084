package introspect

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hurou927/db-metadata/internal/metadata"
)

// MinPartitionVersion is the first PostgreSQL major version with declarative
// partitioning.
const MinPartitionVersion = 10

// PostgresStrategy classifies PostgreSQL tables and discovers partitions.
// Partitions are not schema-level tables: they are attached below the
// partitioned table they belong to.
type PostgresStrategy struct {
	src PartitionSource
	log *zap.Logger

	mu      sync.Mutex
	version int
}

func NewPostgresStrategy(src PartitionSource, log *zap.Logger) *PostgresStrategy {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresStrategy{src: src, log: log}
}

// SchemaTables lists plain, system and partitioned tables, leaving out every
// table that is a partition of a partitioned table in the listing.
func (s *PostgresStrategy) SchemaTables(ctx context.Context, catalog, schema string) ([]TableInfo, error) {
	rows, err := s.src.Tables(ctx, catalog, schema, "%", []string{TypeTable, TypeSystemTable, TypePartitionedTable})
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	partitions := make(map[string]bool)
	infos := make([]TableInfo, 0, len(rows))
	for _, r := range rows {
		types := metadata.ParseTableType(r.Type)
		if types.Has(metadata.TablePartitioned) {
			children, err := s.src.Partitions(ctx, r.Name)
			if err != nil {
				return nil, fmt.Errorf("listing partitions of %s: %w", r.Name, err)
			}
			for _, c := range children {
				partitions[c] = true
			}
		}
		infos = append(infos, TableInfo{Name: r.Name, Types: types})
	}

	kept := infos[:0]
	for _, info := range infos {
		if !partitions[info.Name] {
			kept = append(kept, info)
		}
	}
	return kept, nil
}

// Partitions lists the partitions of a partitioned table. Each partition is
// looked up again to get its own type, the last matching row winning, and
// marked as a partition. Failures
// are logged and returned as *metadata.DegradedError.
func (s *PostgresStrategy) Partitions(ctx context.Context, t *metadata.Table) ([]TableInfo, error) {
	if !t.Types().Has(metadata.TablePartitioned) {
		return nil, nil
	}

	version, err := s.majorVersion(ctx)
	if err != nil {
		return nil, s.degraded(t, "checking server version", err)
	}
	if version < MinPartitionVersion {
		s.log.Debug("server too old for partition introspection",
			zap.String("table", t.Name()), zap.Int("version", version))
		return nil, nil
	}

	names, err := s.src.Partitions(ctx, t.Name())
	if err != nil {
		return nil, s.degraded(t, "listing partitions", err)
	}

	schema := t.Schema()
	infos := make([]TableInfo, 0, len(names))
	for _, name := range names {
		rows, err := s.src.Tables(ctx, schema.Catalog().Name(), schema.Name(), EscapeLike(name),
			[]string{TypeTable, TypePartitionedTable})
		if err != nil {
			return nil, s.degraded(t, "inspecting partition "+name, err)
		}
		if len(rows) == 0 {
			return nil, s.degraded(t, "inspecting partition "+name, fmt.Errorf("partition %q not found", name))
		}
		row := rows[len(rows)-1]
		types := metadata.ParseTableType(row.Type).With(metadata.TablePartition)
		infos = append(infos, TableInfo{Name: row.Name, Types: types})
		s.log.Debug("found partition", zap.String("table", t.Name()), zap.String("partition", row.Name))
	}
	return infos, nil
}

func (s *PostgresStrategy) majorVersion(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version > 0 {
		return s.version, nil
	}
	v, err := s.src.MajorVersion(ctx)
	if err != nil {
		return 0, err
	}
	s.version = v
	return v, nil
}

func (s *PostgresStrategy) degraded(t *metadata.Table, op string, err error) error {
	s.log.Warn("partition introspection failed",
		zap.String("table", t.Name()), zap.String("op", op), zap.Error(err))
	return &metadata.DegradedError{Op: op + " of " + t.Name(), Err: err}
}
