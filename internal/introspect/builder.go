package introspect

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/hurou927/db-metadata/internal/metadata"
)

// Options controls Load.
type Options struct {
	// Schemas limits loading to the named schemas. All schemas are loaded
	// when empty. The unnamed schema of a backend without schemas is always
	// loaded.
	Schemas []string
	Logger  *zap.Logger
}

// Load builds the metadata tree of the current catalog. Any failed query
// aborts the load with a *metadata.FatalError. Partitions are not loaded
// here; tables load them through the strategy on first use.
func Load(ctx context.Context, src Source, strategy Strategy, opts Options) (*metadata.Metadata, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	b := &builder{src: src, strategy: strategy, log: log}

	catalogName, err := src.CurrentCatalog(ctx)
	if err != nil {
		return nil, &metadata.FatalError{Op: "reading current catalog", Err: err}
	}
	md := metadata.New()
	catalog := md.AddCatalog(catalogName, true)

	schemas, err := src.Schemas(ctx, catalogName)
	if err != nil {
		return nil, &metadata.FatalError{Op: "listing schemas", Err: err}
	}
	for _, row := range schemas {
		var schema *metadata.Schema
		switch {
		case row.Name == "":
			schema = catalog.SetSyntheticSchema()
		case len(opts.Schemas) > 0 && !slices.Contains(opts.Schemas, row.Name):
			continue
		default:
			schema = catalog.AddSchema(row.Name, row.Default)
		}
		if err := b.loadSchema(ctx, schema); err != nil {
			return nil, err
		}
	}
	return md, nil
}

type builder struct {
	src      Source
	strategy Strategy
	log      *zap.Logger
}

func (b *builder) loadSchema(ctx context.Context, schema *metadata.Schema) error {
	catalog, name := schema.Catalog().Name(), schema.Name()
	fatal := func(op string, err error) error {
		return &metadata.FatalError{Op: fmt.Sprintf("%s in schema %q", op, name), Err: err}
	}

	d, err := b.loadDetails(ctx, catalog, name)
	if err != nil {
		return fatal("reading table details", err)
	}

	tables, err := b.strategy.SchemaTables(ctx, catalog, name)
	if err != nil {
		return fatal("listing tables", err)
	}
	loader := &partitionLoader{strategy: b.strategy, details: d, log: b.log}
	for _, info := range tables {
		t := schema.AddTable(info.Name, info.Types)
		d.populateTable(t)
		t.SetPartitionLoader(loader)
		b.log.Debug("created table", zap.String("schema", name), zap.String("table", info.Name),
			zap.Stringer("types", info.Types))
	}

	views, err := b.src.Tables(ctx, catalog, name, "%", []string{TypeView, TypeMaterializedView})
	if err != nil {
		return fatal("listing views", err)
	}
	for _, row := range views {
		v := schema.AddView(row.Name)
		for _, c := range d.columns[row.Name] {
			v.AddColumn(columnSpec(c))
		}
	}

	if err := b.loadRoutines(ctx, schema); err != nil {
		return fatal("listing routines", err)
	}
	return nil
}

func (b *builder) loadDetails(ctx context.Context, catalog, schema string) (*relationDetails, error) {
	columns, err := b.src.Columns(ctx, catalog, schema)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	pks, err := b.src.PrimaryKeys(ctx, catalog, schema)
	if err != nil {
		return nil, fmt.Errorf("primary keys: %w", err)
	}
	fks, err := b.src.ForeignKeys(ctx, catalog, schema)
	if err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}
	indexes, err := b.src.Indexes(ctx, catalog, schema)
	if err != nil {
		return nil, fmt.Errorf("indexes: %w", err)
	}

	d := &relationDetails{
		columns:     make(map[string][]ColumnRow),
		primaryKeys: make(map[string][]KeyRow),
		foreignKeys: make(map[string][]ForeignKeyRow),
		indexes:     make(map[string][]IndexRow),
	}
	for _, r := range columns {
		d.columns[r.Relation] = append(d.columns[r.Relation], r)
	}
	for _, r := range pks {
		d.primaryKeys[r.Relation] = append(d.primaryKeys[r.Relation], r)
	}
	for _, r := range fks {
		d.foreignKeys[r.Relation] = append(d.foreignKeys[r.Relation], r)
	}
	for _, r := range indexes {
		d.indexes[r.Relation] = append(d.indexes[r.Relation], r)
	}
	for _, cols := range d.columns {
		slices.SortStableFunc(cols, func(x, y ColumnRow) int { return cmp.Compare(x.Position, y.Position) })
	}
	return d, nil
}

func (b *builder) loadRoutines(ctx context.Context, schema *metadata.Schema) error {
	catalog, name := schema.Catalog().Name(), schema.Name()
	routines, err := b.src.Routines(ctx, catalog, name)
	if err != nil {
		return err
	}
	if len(routines) == 0 {
		return nil
	}
	params, err := b.src.Parameters(ctx, catalog, name)
	if err != nil {
		return err
	}
	bySpecific := make(map[string][]ParameterRow)
	for _, p := range params {
		bySpecific[p.SpecificName] = append(bySpecific[p.SpecificName], p)
	}

	for _, r := range routines {
		ps := bySpecific[r.SpecificName]
		slices.SortStableFunc(ps, func(x, y ParameterRow) int { return cmp.Compare(x.Position, y.Position) })

		switch strings.ToUpper(r.Kind) {
		case RoutineProcedure:
			if schema.Procedure(r.Name) != nil {
				continue
			}
			proc := schema.AddProcedure(r.Name)
			for _, p := range ps {
				proc.AddParameter(parameterName(p), p.DataType, direction(p.Mode), p.Position)
			}
			if hasReturn(r.ReturnType) {
				proc.SetReturnValue(r.ReturnType)
			}
		case RoutineFunction:
			if schema.Function(r.Name) != nil {
				continue
			}
			fn := schema.AddFunction(r.Name)
			for _, p := range ps {
				fn.AddParameter(parameterName(p), p.DataType, direction(p.Mode), p.Position)
			}
			if hasReturn(r.ReturnType) {
				fn.SetReturnValue(r.ReturnType)
			}
		default:
			b.log.Debug("skipping routine of unknown kind", zap.String("routine", r.Name), zap.String("kind", r.Kind))
		}
	}
	return nil
}

// relationDetails holds the columns, keys and indexes of every relation in a
// schema, partitions included, keyed by relation name.
type relationDetails struct {
	columns     map[string][]ColumnRow
	primaryKeys map[string][]KeyRow
	foreignKeys map[string][]ForeignKeyRow
	indexes     map[string][]IndexRow
}

func (d *relationDetails) populateTable(t *metadata.Table) {
	name := t.Name()
	for _, c := range d.columns[name] {
		t.AddColumn(columnSpec(c))
	}

	if keyRows := d.primaryKeys[name]; len(keyRows) > 0 {
		rows := slices.Clone(keyRows)
		slices.SortStableFunc(rows, func(x, y KeyRow) int { return cmp.Compare(x.Position, y.Position) })
		cols := make([]string, len(rows))
		for i, r := range rows {
			cols[i] = r.Column
		}
		t.SetPrimaryKey(rows[0].Name, cols)
	}

	for _, r := range d.foreignKeys[name] {
		fk := t.ForeignKeyByInternalName(r.InternalName)
		if fk == nil {
			fk = t.AddForeignKey(r.Name, r.InternalName, metadata.TableRef{Schema: r.RefSchema, Table: r.RefTable})
		}
		fk.AddColumn(r.Column, r.RefColumn, r.Position)
	}

	for _, r := range d.indexes[name] {
		idx := t.Index(r.Name)
		if idx == nil {
			idx = t.AddIndex(r.Name, r.Unique)
		}
		idx.AddColumn(r.Column, r.Position, r.Descending)
	}
}

// partitionLoader attaches partitions found by a strategy below their
// partitioned table, filling in their details from the schema-wide cache.
type partitionLoader struct {
	strategy Strategy
	details  *relationDetails
	log      *zap.Logger
}

func (l *partitionLoader) LoadPartitions(ctx context.Context, t *metadata.Table) error {
	infos, err := l.strategy.Partitions(ctx, t)
	if err != nil {
		return err
	}
	for _, info := range infos {
		p := t.AddPartition(info.Name, info.Types)
		l.details.populateTable(p)
		p.SetPartitionLoader(l)
		l.log.Debug("created partition", zap.String("table", t.Name()), zap.String("partition", info.Name),
			zap.Stringer("types", info.Types))
	}
	return nil
}

func columnSpec(c ColumnRow) metadata.ColumnSpec {
	return metadata.ColumnSpec{Name: c.Name, TypeName: c.DataType, Nullable: c.Nullable, Position: c.Position}
}

func parameterName(p ParameterRow) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("$%d", p.Position)
}

func direction(mode string) metadata.ParameterDirection {
	switch strings.ToUpper(mode) {
	case "OUT", "TABLE":
		return metadata.DirectionOut
	case "INOUT":
		return metadata.DirectionInOut
	default:
		return metadata.DirectionIn
	}
}

func hasReturn(typeName string) bool {
	return typeName != "" && !strings.EqualFold(typeName, "void")
}
