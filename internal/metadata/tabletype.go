package metadata

import "strings"

// TableType is a set of table classification flags.
type TableType uint8

const (
	TableOrdinary TableType = 1 << iota
	TablePartitioned
	TablePartition
	TableSystem
	TableView
	TableForeign
	TableTemporary
)

var tableTypeNames = []struct {
	flag TableType
	name string
}{
	{TableOrdinary, "ordinary"},
	{TablePartitioned, "partitioned"},
	{TablePartition, "partition"},
	{TableSystem, "system"},
	{TableView, "view"},
	{TableForeign, "foreign"},
	{TableTemporary, "temporary"},
}

// Has reports whether all flags in f are set in t.
func (t TableType) Has(f TableType) bool {
	return f != 0 && t&f == f
}

// With returns t with the flags in f added.
func (t TableType) With(f TableType) TableType {
	return t | f
}

func (t TableType) String() string {
	var parts []string
	for _, n := range tableTypeNames {
		if t&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// ParseTableType classifies a raw backend table type string, as reported in
// the TABLE_TYPE column of a table listing.
func ParseTableType(raw string) TableType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "TABLE", "BASE TABLE":
		return TableOrdinary
	case "SYSTEM TABLE":
		return TableOrdinary | TableSystem
	case "PARTITIONED TABLE":
		return TablePartitioned
	case "FOREIGN TABLE":
		return TableForeign
	case "TEMPORARY TABLE", "LOCAL TEMPORARY", "GLOBAL TEMPORARY":
		return TableOrdinary | TableTemporary
	case "VIEW", "MATERIALIZED VIEW":
		return TableView
	case "SYSTEM VIEW":
		return TableView | TableSystem
	default:
		return TableOrdinary
	}
}
