package metadata

import (
	"context"
	"errors"
)

// stubLoader adds a fixed set of partitions and counts its calls.
type stubLoader struct {
	partitions map[string][]string // parent table -> partition names
	err        error
	calls      int
}

func (l *stubLoader) LoadPartitions(_ context.Context, t *Table) error {
	l.calls++
	if l.err != nil {
		return l.err
	}
	for _, name := range l.partitions[t.Name()] {
		types := TableOrdinary.With(TablePartition)
		if _, nested := l.partitions[name]; nested {
			types = TablePartitioned.With(TablePartition)
		}
		p := t.AddPartition(name, types)
		p.AddColumn(ColumnSpec{Name: "id", TypeName: "integer", Position: 1})
		p.SetPartitionLoader(l)
	}
	return nil
}

// buildShop returns a tree shaped like a small PostgreSQL database:
//
//	shop
//	└── public
//	    ├── customers (id, email) pk, index
//	    ├── orders (partitioned: orders_2023, orders_2024 -> orders_2024_q1)
//	    │   fk orders_customer_fk
//	    ├── view active_customers (id)
//	    ├── procedure archive_orders (before date) -> result column archived
//	    └── function order_total (order_id integer) -> numeric
func buildShop(loader PartitionLoader) *Metadata {
	md := New()
	shop := md.AddCatalog("shop", true)
	public := shop.AddSchema("public", true)
	shop.AddSchema("audit", false)

	customers := public.AddTable("customers", TableOrdinary)
	customers.AddColumn(ColumnSpec{Name: "id", TypeName: "integer", Position: 1})
	customers.AddColumn(ColumnSpec{Name: "email", TypeName: "text", Nullable: true, Position: 2})
	customers.SetPrimaryKey("customers_pkey", []string{"id"})
	idx := customers.AddIndex("customers_email_idx", true)
	idx.AddColumn("email", 1, false)

	orders := public.AddTable("orders", TablePartitioned)
	orders.AddColumn(ColumnSpec{Name: "id", TypeName: "integer", Position: 1})
	orders.AddColumn(ColumnSpec{Name: "customer_id", TypeName: "integer", Position: 2})
	orders.SetPrimaryKey("orders_pkey", []string{"id"})
	fk := orders.AddForeignKey("orders_customer_fk", "", TableRef{Schema: "public", Table: "customers"})
	fk.AddColumn("customer_id", "id", 1)
	orders.SetPartitionLoader(loader)

	view := public.AddView("active_customers")
	view.AddColumn(ColumnSpec{Name: "id", TypeName: "integer", Position: 1})

	proc := public.AddProcedure("archive_orders")
	proc.AddParameter("before", "date", DirectionIn, 1)
	proc.AddColumn(ColumnSpec{Name: "archived", TypeName: "integer", Position: 1})

	fn := public.AddFunction("order_total")
	fn.AddParameter("order_id", "integer", DirectionIn, 1)
	fn.SetReturnValue("numeric")

	return md
}

func shopLoader() *stubLoader {
	return &stubLoader{partitions: map[string][]string{
		"orders":      {"orders_2023", "orders_2024"},
		"orders_2024": {"orders_2024_q1"},
	}}
}

// walk returns every element of md, loading partitions on the way.
func walk(ctx context.Context, md *Metadata) []Element {
	var out []Element
	var table func(t *Table)
	table = func(t *Table) {
		out = append(out, t)
		for _, c := range t.Columns() {
			out = append(out, c)
		}
		if pk := t.PrimaryKey(); pk != nil {
			out = append(out, pk)
		}
		for _, fk := range t.ForeignKeys() {
			out = append(out, fk)
			for _, c := range fk.Columns() {
				out = append(out, c)
			}
		}
		for _, idx := range t.Indexes() {
			out = append(out, idx)
			for _, c := range idx.Columns() {
				out = append(out, c)
			}
		}
		for _, p := range t.Partitions(ctx) {
			table(p)
		}
	}
	for _, c := range md.Catalogs() {
		out = append(out, c)
		schemas := c.Schemas()
		if s := c.SyntheticSchema(); s != nil {
			schemas = append(schemas, s)
		}
		for _, s := range schemas {
			out = append(out, s)
			for _, t := range s.Tables() {
				table(t)
			}
			for _, v := range s.Views() {
				out = append(out, v)
				for _, c := range v.Columns() {
					out = append(out, c)
				}
			}
			for _, p := range s.Procedures() {
				out = append(out, p)
				for _, prm := range p.Parameters() {
					out = append(out, prm)
				}
				for _, c := range p.Columns() {
					out = append(out, c)
				}
				if rv := p.ReturnValue(); rv != nil {
					out = append(out, rv)
				}
			}
			for _, f := range s.Functions() {
				out = append(out, f)
				for _, prm := range f.Parameters() {
					out = append(out, prm)
				}
				if rv := f.ReturnValue(); rv != nil {
					out = append(out, rv)
				}
			}
		}
	}
	return out
}

// loopElement is its own parent.
type loopElement struct{}

func (l *loopElement) Kind() Kind      { return KindTable }
func (l *loopElement) Name() string    { return "loop" }
func (l *loopElement) Parent() Element { return l }

var errBackend = errors.New("backend unavailable")

// rawHandle builds a handle without validating its path.
func rawHandle[T Element](segs ...Segment) Handle[T] {
	return Handle[T]{path: encodePath(segs)}
}
