package introspect

import (
	"context"
	"strings"
)

// fakeSource serves canned rows and records the queries it was asked.
type fakeSource struct {
	catalog     string
	schemas     []SchemaRow
	tables      map[string][]TableRow // schema -> tables
	partitions  map[string][]string   // parent table -> children
	version     int
	columns     map[string][]ColumnRow
	primaryKeys map[string][]KeyRow
	foreignKeys map[string][]ForeignKeyRow
	indexes     map[string][]IndexRow
	routines    map[string][]RoutineRow
	parameters  map[string][]ParameterRow

	errs     map[string]error // query name -> error
	calls    map[string]int
	patterns []string
}

var (
	_ Source          = (*fakeSource)(nil)
	_ PartitionSource = (*fakeSource)(nil)
)

func (f *fakeSource) hit(query string) error {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[query]++
	return f.errs[query]
}

func (f *fakeSource) CurrentCatalog(context.Context) (string, error) {
	if err := f.hit("CurrentCatalog"); err != nil {
		return "", err
	}
	return f.catalog, nil
}

func (f *fakeSource) Schemas(context.Context, string) ([]SchemaRow, error) {
	if err := f.hit("Schemas"); err != nil {
		return nil, err
	}
	return f.schemas, nil
}

func (f *fakeSource) Tables(_ context.Context, _, schema, pattern string, types []string) ([]TableRow, error) {
	if err := f.hit("Tables"); err != nil {
		return nil, err
	}
	f.patterns = append(f.patterns, pattern)
	var out []TableRow
	for _, r := range f.tables[schema] {
		if containsType(types, r.Type) && likeMatch(pattern, r.Name) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) Partitions(_ context.Context, table string) ([]string, error) {
	if err := f.hit("Partitions"); err != nil {
		return nil, err
	}
	return f.partitions[table], nil
}

func (f *fakeSource) MajorVersion(context.Context) (int, error) {
	if err := f.hit("MajorVersion"); err != nil {
		return 0, err
	}
	return f.version, nil
}

func (f *fakeSource) Columns(_ context.Context, _, schema string) ([]ColumnRow, error) {
	if err := f.hit("Columns"); err != nil {
		return nil, err
	}
	return f.columns[schema], nil
}

func (f *fakeSource) PrimaryKeys(_ context.Context, _, schema string) ([]KeyRow, error) {
	if err := f.hit("PrimaryKeys"); err != nil {
		return nil, err
	}
	return f.primaryKeys[schema], nil
}

func (f *fakeSource) ForeignKeys(_ context.Context, _, schema string) ([]ForeignKeyRow, error) {
	if err := f.hit("ForeignKeys"); err != nil {
		return nil, err
	}
	return f.foreignKeys[schema], nil
}

func (f *fakeSource) Indexes(_ context.Context, _, schema string) ([]IndexRow, error) {
	if err := f.hit("Indexes"); err != nil {
		return nil, err
	}
	return f.indexes[schema], nil
}

func (f *fakeSource) Routines(_ context.Context, _, schema string) ([]RoutineRow, error) {
	if err := f.hit("Routines"); err != nil {
		return nil, err
	}
	return f.routines[schema], nil
}

func (f *fakeSource) Parameters(_ context.Context, _, schema string) ([]ParameterRow, error) {
	if err := f.hit("Parameters"); err != nil {
		return nil, err
	}
	return f.parameters[schema], nil
}

// likeMatch supports the two pattern shapes the strategies send: "%" and an
// escaped literal name.
func likeMatch(pattern, name string) bool {
	if pattern == "%" {
		return true
	}
	unescaped := strings.NewReplacer(`\\`, `\`, `\%`, `%`, `\_`, `_`).Replace(pattern)
	return unescaped == name
}

// shopSource describes a PostgreSQL database with a partitioned orders
// table split by year, the 2024 partition itself split by quarter.
func shopSource() *fakeSource {
	return &fakeSource{
		catalog: "shop",
		schemas: []SchemaRow{{Name: "audit"}, {Name: "public", Default: true}},
		version: 16,
		tables: map[string][]TableRow{
			"public": {
				{Type: TypeTable, Name: "customers"},
				{Type: TypePartitionedTable, Name: "orders"},
				{Type: TypeTable, Name: "orders_2023"},
				{Type: TypePartitionedTable, Name: "orders_2024"},
				{Type: TypeTable, Name: "orders_2024_q1"},
				{Type: TypeView, Name: "active_customers"},
			},
			"audit": {
				{Type: TypeTable, Name: "events"},
			},
		},
		partitions: map[string][]string{
			"orders":      {"orders_2023", "orders_2024"},
			"orders_2024": {"orders_2024_q1"},
		},
		columns: map[string][]ColumnRow{
			"public": {
				{Relation: "customers", Name: "email", DataType: "text", Nullable: true, Position: 2},
				{Relation: "customers", Name: "id", DataType: "integer", Position: 1},
				{Relation: "orders", Name: "id", DataType: "integer", Position: 1},
				{Relation: "orders", Name: "customer_id", DataType: "integer", Position: 2},
				{Relation: "orders_2023", Name: "id", DataType: "integer", Position: 1},
				{Relation: "orders_2024", Name: "id", DataType: "integer", Position: 1},
				{Relation: "orders_2024_q1", Name: "id", DataType: "integer", Position: 1},
				{Relation: "active_customers", Name: "id", DataType: "integer", Position: 1},
			},
		},
		primaryKeys: map[string][]KeyRow{
			"public": {
				{Relation: "customers", Name: "customers_pkey", Column: "id", Position: 1},
				{Relation: "orders_2023", Name: "orders_2023_pkey", Column: "id", Position: 1},
			},
		},
		foreignKeys: map[string][]ForeignKeyRow{
			"public": {
				{Relation: "orders", Name: "orders_customer_fk", InternalName: "orders_customer_fk",
					Column: "customer_id", RefSchema: "public", RefTable: "customers", RefColumn: "id", Position: 1},
			},
		},
		indexes: map[string][]IndexRow{
			"public": {
				{Relation: "customers", Name: "customers_email_idx", Unique: true, Column: "email", Position: 1},
			},
		},
		routines: map[string][]RoutineRow{
			"public": {
				{SpecificName: "archive_orders_1", Name: "archive_orders", Kind: RoutineProcedure},
				{SpecificName: "order_total_1", Name: "order_total", Kind: RoutineFunction, ReturnType: "numeric"},
				{SpecificName: "order_total_2", Name: "order_total", Kind: RoutineFunction, ReturnType: "integer"},
				{SpecificName: "touch_1", Name: "touch", Kind: RoutineFunction, ReturnType: "void"},
			},
		},
		parameters: map[string][]ParameterRow{
			"public": {
				{SpecificName: "archive_orders_1", Name: "before", Mode: "IN", DataType: "date", Position: 1},
				{SpecificName: "archive_orders_1", Name: "moved", Mode: "OUT", DataType: "integer", Position: 2},
				{SpecificName: "order_total_1", Name: "", Mode: "IN", DataType: "integer", Position: 1},
				{SpecificName: "order_total_2", Name: "order_id", Mode: "IN", DataType: "bigint", Position: 1},
			},
		},
	}
}
