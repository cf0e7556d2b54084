package render

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/db-metadata/internal/metadata"
)

type yearLoader struct{ err error }

func (l yearLoader) LoadPartitions(_ context.Context, t *metadata.Table) error {
	if l.err != nil {
		return l.err
	}
	p := t.AddPartition(t.Name()+"_2023", metadata.TableOrdinary.With(metadata.TablePartition))
	p.AddColumn(metadata.ColumnSpec{Name: "id", TypeName: "integer", Position: 1})
	return nil
}

func shop(loader metadata.PartitionLoader) *metadata.Metadata {
	md := metadata.New()
	public := md.AddCatalog("shop", true).AddSchema("public", true)

	customers := public.AddTable("customers", metadata.TableOrdinary)
	customers.AddColumn(metadata.ColumnSpec{Name: "id", TypeName: "integer", Position: 1})
	customers.AddColumn(metadata.ColumnSpec{Name: "email", TypeName: "text", Nullable: true, Position: 2})
	customers.SetPrimaryKey("customers_pkey", []string{"id"})
	customers.AddIndex("customers_email_idx", true).AddColumn("email", 1, false)

	orders := public.AddTable("orders", metadata.TablePartitioned)
	orders.AddColumn(metadata.ColumnSpec{Name: "id", TypeName: "integer", Position: 1})
	orders.AddColumn(metadata.ColumnSpec{Name: "customer_id", TypeName: "integer", Position: 2})
	orders.AddForeignKey("orders_customer_fk", "", metadata.TableRef{Schema: "public", Table: "customers"}).
		AddColumn("customer_id", "id", 1)
	orders.SetPartitionLoader(loader)

	public.AddView("active_customers").AddColumn(metadata.ColumnSpec{Name: "id", TypeName: "integer", Position: 1})

	fn := public.AddFunction("order_total")
	fn.AddParameter("order_id", "integer", metadata.DirectionIn, 1)
	fn.SetReturnValue("numeric")
	return md
}

func TestWriteTree(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTree(context.Background(), &buf, shop(yearLoader{})))

	want := `catalog shop (default)
  schema public (default)
    table customers [ordinary]
      column id integer not null
      column email text
      primary key customers_pkey (id)
      index customers_email_idx unique (email)
    table orders [partitioned]
      column id integer not null
      column customer_id integer not null
      foreign key orders_customer_fk (customer_id) -> public.customers (id)
      table orders_2023 [ordinary,partition]
        column id integer not null
    view active_customers
      column id integer not null
    function order_total -> numeric
      parameter order_id integer IN
`
	assert.Equal(t, want, buf.String())
}

func TestWriteTreeDegradedPartitions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTree(context.Background(), &buf, shop(yearLoader{err: errors.New("boom")})))

	assert.Contains(t, buf.String(), "      ! partitions unavailable: loading partitions of orders (degraded): boom\n")
	assert.NotContains(t, buf.String(), "orders_2023")
}

func TestWriteTreeSyntheticSchema(t *testing.T) {
	md := metadata.New()
	md.AddCatalog("main", true).SetSyntheticSchema().AddTable("notes", metadata.TableOrdinary)

	var buf bytes.Buffer
	require.NoError(t, WriteTree(context.Background(), &buf, md))
	assert.Equal(t, "catalog main (default)\n  schema (unnamed) (default)\n    table notes [ordinary]\n", buf.String())
}

func TestWriteMermaid(t *testing.T) {
	md := shop(yearLoader{})
	var buf bytes.Buffer
	require.NoError(t, WriteMermaid(context.Background(), &buf, md.DefaultCatalog().Schema("public")))

	want := `graph TD
    customers[customers]
    orders[orders]
    orders -->|customer_id| customers
    orders -.-> orders_2023
    orders_2023[orders_2023]
`
	assert.Equal(t, want, buf.String())
}

func TestMermaidID(t *testing.T) {
	assert.Equal(t, "audit_events", mermaidID("audit.events"))
	assert.Equal(t, "order_items_2024", mermaidID("order-items 2024"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteTreeReportsWriteError(t *testing.T) {
	err := WriteTree(context.Background(), failingWriter{}, shop(yearLoader{}))
	assert.EqualError(t, err, "disk full")
}
