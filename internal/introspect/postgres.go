package introspect

import (
	"context"
	"database/sql"
	"strings"
)

// PostgresSource queries the PostgreSQL system catalogs. It works with any
// database/sql driver for PostgreSQL; the catalog arguments are ignored since
// a connection only sees its own database.
type PostgresSource struct {
	db *sql.DB
}

var (
	_ Source          = (*PostgresSource)(nil)
	_ PartitionSource = (*PostgresSource)(nil)
)

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (p *PostgresSource) CurrentCatalog(ctx context.Context) (string, error) {
	var name string
	err := p.db.QueryRowContext(ctx, `SELECT current_database()`).Scan(&name)
	return name, err
}

func (p *PostgresSource) Schemas(ctx context.Context, _ string) ([]SchemaRow, error) {
	query := `
		SELECT
			n.nspname AS schema_name,
			n.nspname = current_schema() AS is_default
		FROM pg_namespace n
		WHERE n.nspname NOT LIKE 'pg\_temp\_%'
			AND n.nspname NOT LIKE 'pg\_toast\_temp\_%'
		ORDER BY n.nspname
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schemas []SchemaRow
	for rows.Next() {
		var s SchemaRow
		if err := rows.Scan(&s.Name, &s.Default); err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, rows.Err()
}

// Tables lists relations classified by relkind: ordinary tables (system
// tables when in a system schema), partitioned tables, views, materialized
// views and foreign tables.
func (p *PostgresSource) Tables(ctx context.Context, _, schema, pattern string, types []string) ([]TableRow, error) {
	query := `
		SELECT
			c.relname AS table_name,
			c.relkind::text AS relkind
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
			AND c.relname LIKE $2 ESCAPE '\'
			AND c.relkind IN ('r', 'p', 'v', 'm', 'f')
		ORDER BY c.relname
	`

	rows, err := p.db.QueryContext(ctx, query, schema, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []TableRow
	for rows.Next() {
		var name, relkind string
		if err := rows.Scan(&name, &relkind); err != nil {
			return nil, err
		}
		typ := relkindType(relkind, schema)
		if !containsType(types, typ) {
			continue
		}
		tables = append(tables, TableRow{Type: typ, Name: name})
	}
	return tables, rows.Err()
}

func relkindType(relkind, schema string) string {
	switch relkind {
	case "p":
		return TypePartitionedTable
	case "v":
		return TypeView
	case "m":
		return TypeMaterializedView
	case "f":
		return TypeForeignTable
	default:
		if isSystemSchema(schema) {
			return TypeSystemTable
		}
		return TypeTable
	}
}

func isSystemSchema(schema string) bool {
	return schema == "pg_catalog" || schema == "information_schema" || strings.HasPrefix(schema, "pg_toast")
}

// Partitions lists the tables inheriting from any table with the given name.
func (p *PostgresSource) Partitions(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT
			child.relname AS child
		FROM pg_inherits
		JOIN pg_class parent ON pg_inherits.inhparent = parent.oid
		JOIN pg_class child ON pg_inherits.inhrelid = child.oid
		WHERE parent.relname = $1
		ORDER BY child.relname
	`

	rows, err := p.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		children = append(children, name)
	}
	return children, rows.Err()
}

func (p *PostgresSource) MajorVersion(ctx context.Context) (int, error) {
	var v int
	err := p.db.QueryRowContext(ctx, `SELECT current_setting('server_version_num')::int / 10000`).Scan(&v)
	return v, err
}

func (p *PostgresSource) Columns(ctx context.Context, _, schema string) ([]ColumnRow, error) {
	query := `
		SELECT
			c.relname AS table_name,
			a.attname AS column_name,
			format_type(a.atttypid, a.atttypmod) AS data_type,
			NOT a.attnotnull AS is_nullable,
			a.attnum AS ordinal_position
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_attribute a ON a.attrelid = c.oid
		WHERE n.nspname = $1
			AND c.relkind IN ('r', 'p', 'v', 'm', 'f')
			AND a.attnum > 0
			AND NOT a.attisdropped
		ORDER BY c.relname, a.attnum
	`

	rows, err := p.db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnRow
	for rows.Next() {
		var c ColumnRow
		if err := rows.Scan(&c.Relation, &c.Name, &c.DataType, &c.Nullable, &c.Position); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (p *PostgresSource) PrimaryKeys(ctx context.Context, _, schema string) ([]KeyRow, error) {
	query := `
		SELECT
			c.relname AS table_name,
			con.conname AS constraint_name,
			a.attname AS column_name,
			u.ord AS key_position
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS u(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = u.attnum
		WHERE con.contype = 'p'
			AND n.nspname = $1
		ORDER BY c.relname, u.ord
	`

	rows, err := p.db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []KeyRow
	for rows.Next() {
		var k KeyRow
		if err := rows.Scan(&k.Relation, &k.Name, &k.Column, &k.Position); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (p *PostgresSource) ForeignKeys(ctx context.Context, _, schema string) ([]ForeignKeyRow, error) {
	query := `
		SELECT
			con.conname AS fk_name,
			cc.relname AS child_table,
			ca.attname AS child_column,
			pn.nspname AS parent_schema,
			pc.relname AS parent_table,
			pa.attname AS parent_column,
			u.ord AS key_position
		FROM pg_constraint con
		JOIN pg_class cc ON cc.oid = con.conrelid
		JOIN pg_namespace cn ON cn.oid = cc.relnamespace
		JOIN pg_class pc ON pc.oid = con.confrelid
		JOIN pg_namespace pn ON pn.oid = pc.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS u(child_attnum, parent_attnum, ord)
		JOIN pg_attribute ca ON ca.attrelid = cc.oid AND ca.attnum = u.child_attnum
		JOIN pg_attribute pa ON pa.attrelid = pc.oid AND pa.attnum = u.parent_attnum
		WHERE con.contype = 'f'
			AND cn.nspname = $1
		ORDER BY cc.relname, con.conname, u.ord
	`

	rows, err := p.db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyRow
	for rows.Next() {
		var f ForeignKeyRow
		if err := rows.Scan(&f.Name, &f.Relation, &f.Column, &f.RefSchema, &f.RefTable, &f.RefColumn, &f.Position); err != nil {
			return nil, err
		}
		f.InternalName = f.Name
		fks = append(fks, f)
	}
	return fks, rows.Err()
}

func (p *PostgresSource) Indexes(ctx context.Context, _, schema string) ([]IndexRow, error) {
	query := `
		SELECT
			t.relname AS table_name,
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			a.attname AS column_name,
			k.ord AS column_position,
			(ix.indoption[k.ord - 1] & 1) = 1 AS descending
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		CROSS JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		WHERE n.nspname = $1
			AND NOT ix.indisprimary
		ORDER BY t.relname, i.relname, k.ord
	`

	rows, err := p.db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var idx []IndexRow
	for rows.Next() {
		var r IndexRow
		if err := rows.Scan(&r.Relation, &r.Name, &r.Unique, &r.Column, &r.Position, &r.Descending); err != nil {
			return nil, err
		}
		idx = append(idx, r)
	}
	return idx, rows.Err()
}

func (p *PostgresSource) Routines(ctx context.Context, _, schema string) ([]RoutineRow, error) {
	query := `
		SELECT
			specific_name,
			routine_name,
			COALESCE(routine_type, 'FUNCTION') AS routine_type,
			COALESCE(data_type, '') AS return_type
		FROM information_schema.routines
		WHERE routine_schema = $1
		ORDER BY routine_name, specific_name
	`

	rows, err := p.db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routines []RoutineRow
	for rows.Next() {
		var r RoutineRow
		if err := rows.Scan(&r.SpecificName, &r.Name, &r.Kind, &r.ReturnType); err != nil {
			return nil, err
		}
		routines = append(routines, r)
	}
	return routines, rows.Err()
}

func (p *PostgresSource) Parameters(ctx context.Context, _, schema string) ([]ParameterRow, error) {
	query := `
		SELECT
			specific_name,
			COALESCE(parameter_name, '') AS parameter_name,
			COALESCE(parameter_mode, 'IN') AS parameter_mode,
			COALESCE(data_type, '') AS data_type,
			ordinal_position
		FROM information_schema.parameters
		WHERE specific_schema = $1
		ORDER BY specific_name, ordinal_position
	`

	rows, err := p.db.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var params []ParameterRow
	for rows.Next() {
		var r ParameterRow
		if err := rows.Scan(&r.SpecificName, &r.Name, &r.Mode, &r.DataType, &r.Position); err != nil {
			return nil, err
		}
		params = append(params, r)
	}
	return params, rows.Err()
}
