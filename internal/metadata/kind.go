package metadata

import "fmt"

// Kind identifies the type of a metadata element.
type Kind int

const (
	KindCatalog Kind = iota + 1
	KindSchema
	KindTable
	KindView
	KindProcedure
	KindFunction
	KindColumn
	KindPrimaryKey
	KindForeignKey
	KindForeignKeyColumn
	KindIndex
	KindIndexColumn
	KindParameter
	KindReturnValue
)

var kindNames = map[Kind]string{
	KindCatalog:          "catalog",
	KindSchema:           "schema",
	KindTable:            "table",
	KindView:             "view",
	KindProcedure:        "procedure",
	KindFunction:         "function",
	KindColumn:           "column",
	KindPrimaryKey:       "primary_key",
	KindForeignKey:       "foreign_key",
	KindForeignKeyColumn: "foreign_key_column",
	KindIndex:            "index",
	KindIndexColumn:      "index_column",
	KindParameter:        "parameter",
	KindReturnValue:      "return_value",
}

// parentKinds lists, for every kind, the kinds its parent may have.
// A catalog has no parent.
var parentKinds = map[Kind][]Kind{
	KindCatalog:          nil,
	KindSchema:           {KindCatalog},
	KindTable:            {KindSchema, KindTable},
	KindView:             {KindSchema},
	KindProcedure:        {KindSchema},
	KindFunction:         {KindSchema},
	KindColumn:           {KindTable, KindView, KindProcedure},
	KindPrimaryKey:       {KindTable},
	KindForeignKey:       {KindTable},
	KindForeignKeyColumn: {KindForeignKey},
	KindIndex:            {KindTable},
	KindIndexColumn:      {KindIndex},
	KindParameter:        {KindProcedure, KindFunction},
	KindReturnValue:      {KindProcedure, KindFunction},
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// CanHaveParent reports whether an element of kind k may sit directly below
// an element of kind parent.
func (k Kind) CanHaveParent(parent Kind) bool {
	for _, p := range parentKinds[k] {
		if p == parent {
			return true
		}
	}
	return false
}

// ParseKind returns the kind with the given text form.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown element kind %q", s)
}
