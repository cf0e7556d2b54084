// Package metadata models a snapshot of database metadata as a tree and
// provides handles: value-typed references to tree elements that can be kept
// after the snapshot is gone and resolved against a later one.
package metadata

// Element is any node of the metadata tree below the Metadata root.
type Element interface {
	Kind() Kind
	// Name is the backend's internal name for the element.
	Name() string
	// Parent returns the containing element, or nil for a catalog.
	Parent() Element
}

// internalNamer is implemented by elements whose handle name differs from
// their display name.
type internalNamer interface {
	InternalName() string
}

// children keeps named child elements in insertion order.
type children[T any] struct {
	order  []T
	byName map[string]T
}

func (c *children[T]) add(name string, v T) {
	if c.byName == nil {
		c.byName = make(map[string]T)
	}
	if _, exists := c.byName[name]; !exists {
		c.order = append(c.order, v)
	}
	c.byName[name] = v
}

func (c *children[T]) get(name string) T {
	return c.byName[name]
}

func (c *children[T]) all() []T {
	out := make([]T, len(c.order))
	copy(out, c.order)
	return out
}

// Metadata is the root of a metadata tree.
type Metadata struct {
	catalogs       children[*Catalog]
	defaultCatalog *Catalog
}

// New returns an empty metadata tree.
func New() *Metadata {
	return &Metadata{}
}

// AddCatalog adds a catalog to the tree and returns it.
func (m *Metadata) AddCatalog(name string, isDefault bool) *Catalog {
	c := &Catalog{name: name, isDefault: isDefault}
	m.catalogs.add(name, c)
	if isDefault {
		m.defaultCatalog = c
	}
	return c
}

// Catalog returns the catalog with the given name, or nil. A nil tree has no
// catalogs.
func (m *Metadata) Catalog(name string) *Catalog {
	if m == nil {
		return nil
	}
	return m.catalogs.get(name)
}

// Catalogs returns all catalogs in discovery order.
func (m *Metadata) Catalogs() []*Catalog { return m.catalogs.all() }

// DefaultCatalog returns the catalog of the current connection, or nil.
func (m *Metadata) DefaultCatalog() *Catalog { return m.defaultCatalog }

// Catalog is a database (catalog in SQL terms).
type Catalog struct {
	name          string
	isDefault     bool
	schemas       children[*Schema]
	synthetic     *Schema
	defaultSchema *Schema
}

func (c *Catalog) Kind() Kind      { return KindCatalog }
func (c *Catalog) Name() string    { return c.name }
func (c *Catalog) Parent() Element { return nil }

// IsDefault reports whether this is the catalog of the current connection.
func (c *Catalog) IsDefault() bool { return c.isDefault }

// AddSchema adds a named schema to the catalog and returns it.
func (c *Catalog) AddSchema(name string, isDefault bool) *Schema {
	s := &Schema{catalog: c, name: name, isDefault: isDefault}
	c.schemas.add(name, s)
	if isDefault {
		c.defaultSchema = s
	}
	return s
}

// SetSyntheticSchema installs the placeholder schema used by backends
// without schemas and returns it. It is also the default schema.
func (c *Catalog) SetSyntheticSchema() *Schema {
	s := &Schema{catalog: c, synthetic: true, isDefault: true}
	c.synthetic = s
	c.defaultSchema = s
	return s
}

// Schema returns the named schema, or nil.
func (c *Catalog) Schema(name string) *Schema { return c.schemas.get(name) }

// SyntheticSchema returns the placeholder schema, or nil if the backend
// supports schemas.
func (c *Catalog) SyntheticSchema() *Schema { return c.synthetic }

// DefaultSchema returns the current schema of the connection, or nil.
func (c *Catalog) DefaultSchema() *Schema { return c.defaultSchema }

// Schemas returns the named schemas in discovery order. The synthetic
// schema is not included.
func (c *Catalog) Schemas() []*Schema { return c.schemas.all() }

// Schema groups tables, views and routines.
type Schema struct {
	catalog    *Catalog
	name       string
	isDefault  bool
	synthetic  bool
	tables     children[*Table]
	views      children[*View]
	procedures children[*Procedure]
	functions  children[*Function]
}

func (s *Schema) Kind() Kind      { return KindSchema }
func (s *Schema) Name() string    { return s.name }
func (s *Schema) Parent() Element { return s.catalog }

// Catalog returns the owning catalog.
func (s *Schema) Catalog() *Catalog { return s.catalog }

// IsDefault reports whether this is the current schema of the connection.
func (s *Schema) IsDefault() bool { return s.isDefault }

// IsSynthetic reports whether this schema stands in for a backend without
// schemas. A synthetic schema has no name.
func (s *Schema) IsSynthetic() bool { return s.synthetic }

// AddTable adds a table directly below the schema and returns it.
func (s *Schema) AddTable(name string, types TableType) *Table {
	t := newTable(s, s, name, types)
	s.tables.add(name, t)
	return t
}

func (s *Schema) Table(name string) *Table { return s.tables.get(name) }

// Tables returns the schema's tables. Partitions are not included; they hang
// off their partitioned table.
func (s *Schema) Tables() []*Table { return s.tables.all() }

// AddView adds a view and returns it.
func (s *Schema) AddView(name string) *View {
	v := &View{schema: s, name: name}
	s.views.add(name, v)
	return v
}

func (s *Schema) View(name string) *View { return s.views.get(name) }
func (s *Schema) Views() []*View         { return s.views.all() }

// AddProcedure adds a procedure and returns it.
func (s *Schema) AddProcedure(name string) *Procedure {
	p := &Procedure{schema: s, name: name}
	s.procedures.add(name, p)
	return p
}

func (s *Schema) Procedure(name string) *Procedure { return s.procedures.get(name) }
func (s *Schema) Procedures() []*Procedure         { return s.procedures.all() }

// AddFunction adds a function and returns it.
func (s *Schema) AddFunction(name string) *Function {
	f := &Function{schema: s, name: name}
	s.functions.add(name, f)
	return f
}

func (s *Schema) Function(name string) *Function { return s.functions.get(name) }
func (s *Schema) Functions() []*Function         { return s.functions.all() }

// Column is a column of a table, a view or a procedure result set.
type Column struct {
	parent   Element
	name     string
	typeName string
	nullable bool
	position int
}

func (c *Column) Kind() Kind      { return KindColumn }
func (c *Column) Name() string    { return c.name }
func (c *Column) Parent() Element { return c.parent }

// TypeName is the backend's type name, e.g. "integer" or "varchar(20)".
func (c *Column) TypeName() string { return c.typeName }
func (c *Column) Nullable() bool   { return c.nullable }

// Position is the 1-based ordinal position.
func (c *Column) Position() int { return c.position }

// ColumnSpec describes a column to add to a table, view or procedure.
type ColumnSpec struct {
	Name     string
	TypeName string
	Nullable bool
	Position int
}

func newColumn(parent Element, spec ColumnSpec) *Column {
	return &Column{
		parent:   parent,
		name:     spec.Name,
		typeName: spec.TypeName,
		nullable: spec.Nullable,
		position: spec.Position,
	}
}

// View is a (possibly materialized) view.
type View struct {
	schema  *Schema
	name    string
	columns children[*Column]
}

func (v *View) Kind() Kind      { return KindView }
func (v *View) Name() string    { return v.name }
func (v *View) Parent() Element { return v.schema }

func (v *View) AddColumn(spec ColumnSpec) *Column {
	c := newColumn(v, spec)
	v.columns.add(spec.Name, c)
	return c
}

func (v *View) Column(name string) *Column { return v.columns.get(name) }
func (v *View) Columns() []*Column         { return v.columns.all() }

// ParameterDirection tells whether a routine parameter is passed in, out or both.
type ParameterDirection int

const (
	DirectionIn ParameterDirection = iota
	DirectionOut
	DirectionInOut
)

func (d ParameterDirection) String() string {
	switch d {
	case DirectionOut:
		return "OUT"
	case DirectionInOut:
		return "INOUT"
	default:
		return "IN"
	}
}

// Parameter is a procedure or function parameter.
type Parameter struct {
	parent    Element
	name      string
	typeName  string
	direction ParameterDirection
	position  int
}

func (p *Parameter) Kind() Kind                    { return KindParameter }
func (p *Parameter) Name() string                  { return p.name }
func (p *Parameter) Parent() Element               { return p.parent }
func (p *Parameter) TypeName() string              { return p.typeName }
func (p *Parameter) Direction() ParameterDirection { return p.direction }
func (p *Parameter) Position() int                 { return p.position }

// Value is the return value of a procedure or function.
type Value struct {
	parent   Element
	name     string
	typeName string
}

func (v *Value) Kind() Kind       { return KindReturnValue }
func (v *Value) Name() string     { return v.name }
func (v *Value) Parent() Element  { return v.parent }
func (v *Value) TypeName() string { return v.typeName }

// Procedure is a stored procedure.
type Procedure struct {
	schema      *Schema
	name        string
	parameters  children[*Parameter]
	columns     children[*Column]
	returnValue *Value
}

func (p *Procedure) Kind() Kind      { return KindProcedure }
func (p *Procedure) Name() string    { return p.name }
func (p *Procedure) Parent() Element { return p.schema }

func (p *Procedure) AddParameter(name, typeName string, dir ParameterDirection, position int) *Parameter {
	prm := &Parameter{parent: p, name: name, typeName: typeName, direction: dir, position: position}
	p.parameters.add(name, prm)
	return prm
}

func (p *Procedure) Parameter(name string) *Parameter { return p.parameters.get(name) }
func (p *Procedure) Parameters() []*Parameter         { return p.parameters.all() }

// AddColumn adds a result set column.
func (p *Procedure) AddColumn(spec ColumnSpec) *Column {
	c := newColumn(p, spec)
	p.columns.add(spec.Name, c)
	return c
}

func (p *Procedure) Column(name string) *Column { return p.columns.get(name) }
func (p *Procedure) Columns() []*Column         { return p.columns.all() }

func (p *Procedure) SetReturnValue(typeName string) *Value {
	p.returnValue = &Value{parent: p, name: "return", typeName: typeName}
	return p.returnValue
}

// ReturnValue returns the procedure's return value, or nil.
func (p *Procedure) ReturnValue() *Value { return p.returnValue }

// Function is a stored function.
type Function struct {
	schema      *Schema
	name        string
	parameters  children[*Parameter]
	returnValue *Value
}

func (f *Function) Kind() Kind      { return KindFunction }
func (f *Function) Name() string    { return f.name }
func (f *Function) Parent() Element { return f.schema }

func (f *Function) AddParameter(name, typeName string, dir ParameterDirection, position int) *Parameter {
	prm := &Parameter{parent: f, name: name, typeName: typeName, direction: dir, position: position}
	f.parameters.add(name, prm)
	return prm
}

func (f *Function) Parameter(name string) *Parameter { return f.parameters.get(name) }
func (f *Function) Parameters() []*Parameter         { return f.parameters.all() }

func (f *Function) SetReturnValue(typeName string) *Value {
	f.returnValue = &Value{parent: f, name: "return", typeName: typeName}
	return f.returnValue
}

// ReturnValue returns the function's return value, or nil.
func (f *Function) ReturnValue() *Value { return f.returnValue }
