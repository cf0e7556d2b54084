// Package introspect builds metadata trees from a live database. A Source
// answers catalog queries for one backend; a Strategy decides which tables
// belong to a schema and how partitions are found.
package introspect

import (
	"context"
	"strings"
)

// Table type strings, as used in the TABLE_TYPE column of table listings.
const (
	TypeTable            = "TABLE"
	TypeSystemTable      = "SYSTEM TABLE"
	TypePartitionedTable = "PARTITIONED TABLE"
	TypeView             = "VIEW"
	TypeMaterializedView = "MATERIALIZED VIEW"
	TypeForeignTable     = "FOREIGN TABLE"
)

// SchemaRow is a schema of the current catalog. An empty Name stands for the
// single unnamed schema of a backend without schemas.
type SchemaRow struct {
	Name    string
	Default bool
}

// TableRow is one row of a table listing.
type TableRow struct {
	Type string
	Name string
}

// ColumnRow is a column of a table or view.
type ColumnRow struct {
	Relation string
	Name     string
	DataType string
	Nullable bool
	Position int
}

// KeyRow is one column of a primary key.
type KeyRow struct {
	Relation string
	Name     string
	Column   string
	Position int
}

// ForeignKeyRow is one column pair of a foreign key. Name is empty for
// unnamed constraints; InternalName is always set.
type ForeignKeyRow struct {
	Relation     string
	Name         string
	InternalName string
	Column       string
	RefSchema    string
	RefTable     string
	RefColumn    string
	Position     int
}

// IndexRow is one column of an index.
type IndexRow struct {
	Relation   string
	Name       string
	Unique     bool
	Column     string
	Position   int
	Descending bool
}

// Routine kinds reported in RoutineRow.Kind.
const (
	RoutineProcedure = "PROCEDURE"
	RoutineFunction  = "FUNCTION"
)

// RoutineRow is a procedure or function. SpecificName tells overloads apart
// and links parameters to their routine.
type RoutineRow struct {
	SpecificName string
	Name         string
	Kind         string
	ReturnType   string
}

// ParameterRow is a routine parameter. Mode is IN, OUT or INOUT.
type ParameterRow struct {
	SpecificName string
	Name         string
	Mode         string
	DataType     string
	Position     int
}

// TableLister lists tables, the one query every strategy needs.
type TableLister interface {
	// Tables lists relations of the given types whose name matches the SQL
	// LIKE pattern.
	Tables(ctx context.Context, catalog, schema, pattern string, types []string) ([]TableRow, error)
}

// Source is the read-only query interface of one backend connection.
type Source interface {
	TableLister
	CurrentCatalog(ctx context.Context) (string, error)
	Schemas(ctx context.Context, catalog string) ([]SchemaRow, error)
	Columns(ctx context.Context, catalog, schema string) ([]ColumnRow, error)
	PrimaryKeys(ctx context.Context, catalog, schema string) ([]KeyRow, error)
	ForeignKeys(ctx context.Context, catalog, schema string) ([]ForeignKeyRow, error)
	Indexes(ctx context.Context, catalog, schema string) ([]IndexRow, error)
	Routines(ctx context.Context, catalog, schema string) ([]RoutineRow, error)
	Parameters(ctx context.Context, catalog, schema string) ([]ParameterRow, error)
}

// PartitionSource answers the queries partition discovery needs on top of
// table listings.
type PartitionSource interface {
	TableLister
	// Partitions lists the names of the tables inheriting from the named table.
	Partitions(ctx context.Context, table string) ([]string, error)
	// MajorVersion returns the server's major version.
	MajorVersion(ctx context.Context) (int, error)
}

// EscapeLike escapes the LIKE wildcards in name so it matches only itself.
// The escape character is a backslash.
func EscapeLike(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(name)
}

func containsType(types []string, t string) bool {
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}
