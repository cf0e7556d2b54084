// Package render prints metadata trees for people: an indented text tree and
// a Mermaid diagram of a schema's relationships.
package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hurou927/db-metadata/internal/metadata"
)

// WriteTree writes an indented outline of md to w. Partitioned tables list
// their partitions below them, loading them if needed.
func WriteTree(ctx context.Context, w io.Writer, md *metadata.Metadata) error {
	tw := &treeWriter{w: w}
	for _, c := range md.Catalogs() {
		tw.line(0, "catalog %s%s", c.Name(), defaultMark(c.IsDefault()))
		schemas := c.Schemas()
		if s := c.SyntheticSchema(); s != nil {
			schemas = append([]*metadata.Schema{s}, schemas...)
		}
		for _, s := range schemas {
			tw.schema(ctx, s)
		}
	}
	return tw.err
}

type treeWriter struct {
	w   io.Writer
	err error
}

func (tw *treeWriter) line(depth int, format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (tw *treeWriter) schema(ctx context.Context, s *metadata.Schema) {
	name := s.Name()
	if s.IsSynthetic() {
		name = "(unnamed)"
	}
	tw.line(1, "schema %s%s", name, defaultMark(s.IsDefault()))

	for _, t := range s.Tables() {
		tw.table(ctx, 2, t)
	}
	for _, v := range s.Views() {
		tw.line(2, "view %s", v.Name())
		tw.columns(3, v.Columns())
	}
	for _, p := range s.Procedures() {
		tw.line(2, "procedure %s%s", p.Name(), returns(p.ReturnValue()))
		tw.parameters(3, p.Parameters())
		tw.columns(3, p.Columns())
	}
	for _, f := range s.Functions() {
		tw.line(2, "function %s%s", f.Name(), returns(f.ReturnValue()))
		tw.parameters(3, f.Parameters())
	}
}

func (tw *treeWriter) table(ctx context.Context, depth int, t *metadata.Table) {
	tw.line(depth, "table %s [%s]", t.Name(), t.Types())
	tw.columns(depth+1, t.Columns())

	if pk := t.PrimaryKey(); pk != nil {
		names := make([]string, 0, len(pk.Columns()))
		for _, c := range pk.Columns() {
			names = append(names, c.Name())
		}
		tw.line(depth+1, "primary key %s (%s)", pk.Name(), strings.Join(names, ", "))
	}
	for _, fk := range t.ForeignKeys() {
		var from, to []string
		for _, c := range fk.Columns() {
			from = append(from, c.Name())
			to = append(to, c.ReferredColumn())
		}
		ref := fk.Referred()
		target := ref.Table
		if ref.Schema != "" {
			target = ref.Schema + "." + ref.Table
		}
		tw.line(depth+1, "foreign key %s (%s) -> %s (%s)", fk.InternalName(),
			strings.Join(from, ", "), target, strings.Join(to, ", "))
	}
	for _, idx := range t.Indexes() {
		var cols []string
		for _, c := range idx.Columns() {
			name := c.Name()
			if c.Descending() {
				name += " desc"
			}
			cols = append(cols, name)
		}
		unique := ""
		if idx.Unique() {
			unique = " unique"
		}
		tw.line(depth+1, "index %s%s (%s)", idx.Name(), unique, strings.Join(cols, ", "))
	}

	if !t.Types().Has(metadata.TablePartitioned) {
		return
	}
	for _, p := range t.Partitions(ctx) {
		tw.table(ctx, depth+1, p)
	}
	if err := t.PartitionErr(); err != nil {
		tw.line(depth+1, "! partitions unavailable: %v", err)
	}
}

func (tw *treeWriter) columns(depth int, cols []*metadata.Column) {
	for _, c := range cols {
		null := " not null"
		if c.Nullable() {
			null = ""
		}
		tw.line(depth, "column %s %s%s", c.Name(), c.TypeName(), null)
	}
}

func (tw *treeWriter) parameters(depth int, params []*metadata.Parameter) {
	for _, p := range params {
		tw.line(depth, "parameter %s %s %s", p.Name(), p.TypeName(), p.Direction())
	}
}

func defaultMark(isDefault bool) string {
	if isDefault {
		return " (default)"
	}
	return ""
}

func returns(v *metadata.Value) string {
	if v == nil {
		return ""
	}
	return " -> " + v.TypeName()
}
