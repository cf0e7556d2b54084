package introspect

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/db-metadata/internal/metadata"
)

func loadShop(t *testing.T, src *fakeSource, opts Options) *metadata.Metadata {
	t.Helper()
	md, err := Load(context.Background(), src, NewPostgresStrategy(src, nil), opts)
	require.NoError(t, err)
	return md
}

func TestLoadBuildsTree(t *testing.T) {
	md := loadShop(t, shopSource(), Options{})

	catalog := md.DefaultCatalog()
	require.NotNil(t, catalog)
	assert.Equal(t, "shop", catalog.Name())
	require.Len(t, catalog.Schemas(), 2)
	assert.Equal(t, "public", catalog.DefaultSchema().Name())

	public := catalog.Schema("public")
	var tables []string
	for _, tbl := range public.Tables() {
		tables = append(tables, tbl.Name())
	}
	assert.Equal(t, []string{"customers", "orders"}, tables)

	customers := public.Table("customers")
	require.Len(t, customers.Columns(), 2)
	assert.Equal(t, "id", customers.Columns()[0].Name())
	assert.True(t, customers.Column("email").Nullable())
	require.NotNil(t, customers.PrimaryKey())
	assert.Equal(t, "customers_pkey", customers.PrimaryKey().Name())
	require.NotNil(t, customers.Index("customers_email_idx"))
	assert.True(t, customers.Index("customers_email_idx").Unique())

	fk := public.Table("orders").ForeignKeyByInternalName("orders_customer_fk")
	require.NotNil(t, fk)
	assert.Equal(t, metadata.TableRef{Schema: "public", Table: "customers"}, fk.Referred())
	require.Len(t, fk.Columns(), 1)
	assert.Equal(t, "id", fk.Columns()[0].ReferredColumn())

	view := public.View("active_customers")
	require.NotNil(t, view)
	assert.Len(t, view.Columns(), 1)

	assert.NotNil(t, catalog.Schema("audit").Table("events"))
}

func TestLoadRoutines(t *testing.T) {
	md := loadShop(t, shopSource(), Options{})
	public := md.DefaultCatalog().Schema("public")

	proc := public.Procedure("archive_orders")
	require.NotNil(t, proc)
	require.Len(t, proc.Parameters(), 2)
	assert.Equal(t, metadata.DirectionIn, proc.Parameter("before").Direction())
	assert.Equal(t, metadata.DirectionOut, proc.Parameter("moved").Direction())
	assert.Nil(t, proc.ReturnValue())

	fn := public.Function("order_total")
	require.NotNil(t, fn)
	require.NotNil(t, fn.ReturnValue())
	assert.Equal(t, "numeric", fn.ReturnValue().TypeName(), "first overload wins")
	require.NotNil(t, fn.Parameter("$1"))
	assert.Equal(t, "integer", fn.Parameter("$1").TypeName())

	touch := public.Function("touch")
	require.NotNil(t, touch)
	assert.Nil(t, touch.ReturnValue())
}

func TestLoadPartitionsLazily(t *testing.T) {
	ctx := context.Background()
	src := shopSource()
	md := loadShop(t, src, Options{})
	partitionCalls := src.calls["Partitions"]

	orders := md.DefaultCatalog().Schema("public").Table("orders")
	parts := orders.Partitions(ctx)
	require.Len(t, parts, 2)
	assert.Equal(t, partitionCalls+1, src.calls["Partitions"])
	assert.NoError(t, orders.PartitionErr())

	y2023 := orders.Partition(ctx, "orders_2023")
	require.NotNil(t, y2023)
	assert.True(t, y2023.Types().Has(metadata.TablePartition))
	require.NotNil(t, y2023.PrimaryKey())
	assert.Empty(t, y2023.Partitions(ctx))

	q1 := orders.Partition(ctx, "orders_2024").Partition(ctx, "orders_2024_q1")
	require.NotNil(t, q1)
	assert.Same(t, orders.Partition(ctx, "orders_2024"), q1.Parent())

	h, err := metadata.NewHandle(q1)
	require.NoError(t, err)
	assert.Equal(t, "catalog:shop/schema:public/table:orders/table:orders_2024/table:orders_2024_q1", h.String())

	again := loadShop(t, shopSource(), Options{})
	got, err := h.Resolve(ctx, again)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "orders_2024_q1", got.Name())
}

func TestLoadPartitionFailureIsDegraded(t *testing.T) {
	ctx := context.Background()
	src := shopSource()
	md := loadShop(t, src, Options{})

	src.errs = map[string]error{"MajorVersion": errors.New("connection reset")}
	orders := md.DefaultCatalog().Schema("public").Table("orders")

	assert.Empty(t, orders.Partitions(ctx))
	var degraded *metadata.DegradedError
	require.ErrorAs(t, orders.PartitionErr(), &degraded)

	assert.NotNil(t, md.DefaultCatalog().Schema("public").Table("customers").Column("id"))
}

func TestLoadSchemaFilter(t *testing.T) {
	src := shopSource()
	md := loadShop(t, src, Options{Schemas: []string{"audit"}})

	catalog := md.DefaultCatalog()
	require.Len(t, catalog.Schemas(), 1)
	assert.Nil(t, catalog.Schema("public"))
	assert.Equal(t, 1, src.calls["Columns"])
}

func TestLoadFatalErrors(t *testing.T) {
	tests := []struct {
		query string
		op    string
	}{
		{"CurrentCatalog", "reading current catalog"},
		{"Schemas", "listing schemas"},
		{"Columns", `reading table details in schema "audit"`},
		{"Indexes", `reading table details in schema "audit"`},
		{"Tables", `listing tables in schema "audit"`},
		{"Routines", `listing routines in schema "audit"`},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			cause := errors.New("relation does not exist")
			src := shopSource()
			src.errs = map[string]error{tt.query: cause}

			md, err := Load(context.Background(), src, NewPostgresStrategy(src, nil), Options{})
			assert.Nil(t, md)

			var fatal *metadata.FatalError
			require.ErrorAs(t, err, &fatal)
			assert.Equal(t, tt.op, fatal.Op)
			assert.ErrorIs(t, err, cause)
		})
	}
}

func TestLoadSyntheticSchema(t *testing.T) {
	src := &fakeSource{
		catalog: "main",
		schemas: []SchemaRow{{Name: "", Default: true}},
		tables:  map[string][]TableRow{"": {{Type: TypeTable, Name: "notes"}}},
		columns: map[string][]ColumnRow{"": {{Relation: "notes", Name: "body", DataType: "TEXT", Position: 1}}},
	}
	md, err := Load(context.Background(), src, NewGenericStrategy(src), Options{Schemas: []string{"public"}})
	require.NoError(t, err)

	schema := md.DefaultCatalog().SyntheticSchema()
	require.NotNil(t, schema)
	assert.True(t, schema.IsSynthetic())
	require.NotNil(t, schema.Table("notes"))

	h, err := metadata.NewHandle(schema.Table("notes").Column("body"))
	require.NoError(t, err)
	assert.Equal(t, "catalog:main/schema/table:notes/column:body", h.String())
	assert.Zero(t, src.calls["Parameters"])
}
