package metadata

import (
	"context"
	"errors"
	"sync"
)

// PartitionLoader populates the partitions of a partitioned table, calling
// AddPartition on it for each one. It is injected by the backend that built
// the tree.
type PartitionLoader interface {
	LoadPartitions(ctx context.Context, t *Table) error
}

// Table is a table in a schema, or a partition of another table.
type Table struct {
	schema      *Schema
	parent      Element
	name        string
	types       TableType
	columns     children[*Column]
	primaryKey  *PrimaryKey
	foreignKeys children[*ForeignKey]
	indexes     children[*Index]

	loader       PartitionLoader
	loadMu       sync.Mutex
	loaded       bool
	partitions   children[*Table]
	partitionErr error
}

func newTable(schema *Schema, parent Element, name string, types TableType) *Table {
	return &Table{schema: schema, parent: parent, name: name, types: types}
}

func (t *Table) Kind() Kind   { return KindTable }
func (t *Table) Name() string { return t.name }

// Parent returns the schema, or the partitioned table for a partition.
func (t *Table) Parent() Element { return t.parent }

// Schema returns the schema the table belongs to, also for partitions.
func (t *Table) Schema() *Schema { return t.schema }

func (t *Table) Types() TableType { return t.types }

// IsSystem reports whether the backend classifies the table as a system table.
func (t *Table) IsSystem() bool { return t.types.Has(TableSystem) }

func (t *Table) AddColumn(spec ColumnSpec) *Column {
	c := newColumn(t, spec)
	t.columns.add(spec.Name, c)
	return c
}

func (t *Table) Column(name string) *Column { return t.columns.get(name) }
func (t *Table) Columns() []*Column         { return t.columns.all() }

// SetPrimaryKey installs the primary key over the named columns. Unknown
// column names are skipped.
func (t *Table) SetPrimaryKey(name string, columns []string) *PrimaryKey {
	pk := &PrimaryKey{table: t, name: name}
	for _, c := range columns {
		if col := t.Column(c); col != nil {
			pk.columns = append(pk.columns, col)
		}
	}
	t.primaryKey = pk
	return pk
}

// PrimaryKey returns the primary key, or nil.
func (t *Table) PrimaryKey() *PrimaryKey { return t.primaryKey }

// AddForeignKey adds a foreign key. internalName identifies the key in
// handles; it differs from name when the backend does not name constraints.
func (t *Table) AddForeignKey(name, internalName string, ref TableRef) *ForeignKey {
	if internalName == "" {
		internalName = name
	}
	fk := &ForeignKey{table: t, name: name, internalName: internalName, referred: ref}
	t.foreignKeys.add(internalName, fk)
	return fk
}

func (t *Table) ForeignKeys() []*ForeignKey { return t.foreignKeys.all() }

// ForeignKeyByInternalName returns the foreign key with the given internal name, or nil.
func (t *Table) ForeignKeyByInternalName(internalName string) *ForeignKey {
	return t.foreignKeys.get(internalName)
}

func (t *Table) AddIndex(name string, unique bool) *Index {
	idx := &Index{table: t, name: name, unique: unique}
	t.indexes.add(name, idx)
	return idx
}

func (t *Table) Index(name string) *Index { return t.indexes.get(name) }
func (t *Table) Indexes() []*Index        { return t.indexes.all() }

// SetPartitionLoader installs the loader used the first time partitions are
// requested. Only partitioned tables consult it.
func (t *Table) SetPartitionLoader(l PartitionLoader) {
	t.loader = l
}

// AddPartition adds a partition below this table and returns it. It is meant
// to be called by a PartitionLoader.
func (t *Table) AddPartition(name string, types TableType) *Table {
	p := newTable(t.schema, t, name, types)
	t.partitions.add(name, p)
	return p
}

// Partitions returns the partitions of the table, loading them on first use.
// A failed load leaves the table without partitions; see PartitionErr. A load
// cut short by ctx being cancelled or timing out is tried again on the next
// call.
func (t *Table) Partitions(ctx context.Context) []*Table {
	t.loadPartitions(ctx)
	return t.partitions.all()
}

// Partition returns the named partition, or nil.
func (t *Table) Partition(ctx context.Context, name string) *Table {
	t.loadPartitions(ctx)
	return t.partitions.get(name)
}

// PartitionErr returns the error of a failed partition load, always a
// *DegradedError, or nil.
func (t *Table) PartitionErr() error {
	return t.partitionErr
}

func (t *Table) loadPartitions(ctx context.Context) {
	t.loadMu.Lock()
	defer t.loadMu.Unlock()
	if t.loaded || t.loader == nil || !t.types.Has(TablePartitioned) {
		return
	}

	err := t.loader.LoadPartitions(ctx, t)
	t.loaded = !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	if err == nil {
		t.partitionErr = nil
		return
	}
	var degraded *DegradedError
	if !errors.As(err, &degraded) {
		degraded = &DegradedError{Op: "loading partitions of " + t.name, Err: err}
	}
	t.partitions = children[*Table]{}
	t.partitionErr = degraded
}

// TableRef names a table a foreign key refers to.
type TableRef struct {
	Schema string
	Table  string
}

// PrimaryKey is the primary key constraint of a table.
type PrimaryKey struct {
	table   *Table
	name    string
	columns []*Column
}

func (pk *PrimaryKey) Kind() Kind      { return KindPrimaryKey }
func (pk *PrimaryKey) Name() string    { return pk.name }
func (pk *PrimaryKey) Parent() Element { return pk.table }

// Columns returns the key columns in key order.
func (pk *PrimaryKey) Columns() []*Column {
	out := make([]*Column, len(pk.columns))
	copy(out, pk.columns)
	return out
}

// ForeignKey is a foreign key constraint of a table.
type ForeignKey struct {
	table        *Table
	name         string
	internalName string
	referred     TableRef
	columns      children[*ForeignKeyColumn]
}

func (fk *ForeignKey) Kind() Kind      { return KindForeignKey }
func (fk *ForeignKey) Name() string    { return fk.name }
func (fk *ForeignKey) Parent() Element { return fk.table }

// InternalName is the name used to address the key in handles.
func (fk *ForeignKey) InternalName() string { return fk.internalName }

// Referred returns the table the key points to.
func (fk *ForeignKey) Referred() TableRef { return fk.referred }

// AddColumn adds a referring/referred column pair. The pair is addressed by
// the referring column name.
func (fk *ForeignKey) AddColumn(referring, referred string, position int) *ForeignKeyColumn {
	c := &ForeignKeyColumn{key: fk, name: referring, referred: referred, position: position}
	fk.columns.add(referring, c)
	return c
}

func (fk *ForeignKey) Column(name string) *ForeignKeyColumn { return fk.columns.get(name) }
func (fk *ForeignKey) Columns() []*ForeignKeyColumn         { return fk.columns.all() }

// ForeignKeyColumn pairs a referring column with the column it refers to.
type ForeignKeyColumn struct {
	key      *ForeignKey
	name     string
	referred string
	position int
}

func (c *ForeignKeyColumn) Kind() Kind      { return KindForeignKeyColumn }
func (c *ForeignKeyColumn) Name() string    { return c.name }
func (c *ForeignKeyColumn) Parent() Element { return c.key }

// ReferringColumn returns the column of the owning table, or nil.
func (c *ForeignKeyColumn) ReferringColumn() *Column { return c.key.table.Column(c.name) }

// ReferredColumn returns the name of the column in the referred table.
func (c *ForeignKeyColumn) ReferredColumn() string { return c.referred }
func (c *ForeignKeyColumn) Position() int          { return c.position }

// Index is an index of a table.
type Index struct {
	table   *Table
	name    string
	unique  bool
	columns children[*IndexColumn]
}

func (i *Index) Kind() Kind      { return KindIndex }
func (i *Index) Name() string    { return i.name }
func (i *Index) Parent() Element { return i.table }
func (i *Index) Unique() bool    { return i.unique }

func (i *Index) AddColumn(name string, position int, descending bool) *IndexColumn {
	c := &IndexColumn{index: i, name: name, position: position, descending: descending}
	i.columns.add(name, c)
	return c
}

func (i *Index) Column(name string) *IndexColumn { return i.columns.get(name) }
func (i *Index) Columns() []*IndexColumn         { return i.columns.all() }

// IndexColumn is a column of an index.
type IndexColumn struct {
	index      *Index
	name       string
	position   int
	descending bool
}

func (c *IndexColumn) Kind() Kind       { return KindIndexColumn }
func (c *IndexColumn) Name() string     { return c.name }
func (c *IndexColumn) Parent() Element  { return c.index }
func (c *IndexColumn) Position() int    { return c.position }
func (c *IndexColumn) Descending() bool { return c.descending }
