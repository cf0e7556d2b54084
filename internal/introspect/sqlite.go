package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteCatalog is the catalog name reported for SQLite databases.
const SQLiteCatalog = "main"

// SQLiteSource reads schema information from a SQLite database through
// sqlite_master and the pragma table-valued functions. SQLite has no schemas,
// so the catalog holds a single unnamed schema, and no routines.
type SQLiteSource struct {
	db *sql.DB
}

var _ Source = (*SQLiteSource)(nil)

func NewSQLiteSource(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

func (s *SQLiteSource) CurrentCatalog(context.Context) (string, error) {
	return SQLiteCatalog, nil
}

func (s *SQLiteSource) Schemas(context.Context, string) ([]SchemaRow, error) {
	return []SchemaRow{{Name: "", Default: true}}, nil
}

func (s *SQLiteSource) Tables(ctx context.Context, _, _, pattern string, types []string) ([]TableRow, error) {
	query := `
		SELECT type, name
		FROM sqlite_master
		WHERE type IN ('table', 'view')
			AND name LIKE ? ESCAPE '\'
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []TableRow
	for rows.Next() {
		var kind, name string
		if err := rows.Scan(&kind, &name); err != nil {
			return nil, err
		}
		typ := TypeTable
		switch {
		case kind == "view":
			typ = TypeView
		case strings.HasPrefix(name, "sqlite_"):
			typ = TypeSystemTable
		}
		if !containsType(types, typ) {
			continue
		}
		tables = append(tables, TableRow{Type: typ, Name: name})
	}
	return tables, rows.Err()
}

func (s *SQLiteSource) Columns(ctx context.Context, _, _ string) ([]ColumnRow, error) {
	query := `
		SELECT m.name, p.name, p.type, p."notnull", p.cid
		FROM sqlite_master m
		JOIN pragma_table_info(m.name) p
		WHERE m.type IN ('table', 'view')
		ORDER BY m.name, p.cid
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnRow
	for rows.Next() {
		var (
			c       ColumnRow
			notNull bool
			cid     int
		)
		if err := rows.Scan(&c.Relation, &c.Name, &c.DataType, &notNull, &cid); err != nil {
			return nil, err
		}
		c.Nullable = !notNull
		c.Position = cid + 1
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// PrimaryKeys reports primary keys under the name <table>_pkey, since SQLite
// does not keep constraint names.
func (s *SQLiteSource) PrimaryKeys(ctx context.Context, _, _ string) ([]KeyRow, error) {
	query := `
		SELECT m.name, p.name, p.pk
		FROM sqlite_master m
		JOIN pragma_table_info(m.name) p
		WHERE m.type = 'table' AND p.pk > 0
		ORDER BY m.name, p.pk
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []KeyRow
	for rows.Next() {
		var k KeyRow
		if err := rows.Scan(&k.Relation, &k.Column, &k.Position); err != nil {
			return nil, err
		}
		k.Name = k.Relation + "_pkey"
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ForeignKeys reports unnamed foreign keys with the internal name
// fk_<table>_<id>. A reference without explicit columns points at the
// parent's primary key.
func (s *SQLiteSource) ForeignKeys(ctx context.Context, _, _ string) ([]ForeignKeyRow, error) {
	query := `
		SELECT
			m.name,
			f.id,
			f.seq,
			f."table",
			f."from",
			COALESCE(f."to", (
				SELECT p.name FROM pragma_table_info(f."table") p WHERE p.pk = f.seq + 1
			), '')
		FROM sqlite_master m
		JOIN pragma_foreign_key_list(m.name) f
		WHERE m.type = 'table'
		ORDER BY m.name, f.id, f.seq
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKeyRow
	for rows.Next() {
		var (
			f       ForeignKeyRow
			id, seq int
		)
		if err := rows.Scan(&f.Relation, &id, &seq, &f.RefTable, &f.Column, &f.RefColumn); err != nil {
			return nil, err
		}
		f.InternalName = fmt.Sprintf("fk_%s_%d", f.Relation, id)
		f.Position = seq + 1
		fks = append(fks, f)
	}
	return fks, rows.Err()
}

func (s *SQLiteSource) Indexes(ctx context.Context, _, _ string) ([]IndexRow, error) {
	query := `
		SELECT m.name, il.name, il."unique", ii.name, ii.seqno, ii."desc"
		FROM sqlite_master m
		JOIN pragma_index_list(m.name) il
		JOIN pragma_index_xinfo(il.name) ii
		WHERE m.type = 'table'
			AND il.origin != 'pk'
			AND ii."key" = 1
			AND ii.cid >= 0
		ORDER BY m.name, il.name, ii.seqno
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var idx []IndexRow
	for rows.Next() {
		var (
			r     IndexRow
			seqno int
		)
		if err := rows.Scan(&r.Relation, &r.Name, &r.Unique, &r.Column, &seqno, &r.Descending); err != nil {
			return nil, err
		}
		r.Position = seqno + 1
		idx = append(idx, r)
	}
	return idx, rows.Err()
}

func (s *SQLiteSource) Routines(context.Context, string, string) ([]RoutineRow, error) {
	return nil, nil
}

func (s *SQLiteSource) Parameters(context.Context, string, string) ([]ParameterRow, error) {
	return nil, nil
}
