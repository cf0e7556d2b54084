package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hurou927/db-metadata/internal/metadata"
)

// WriteMermaid writes the tables of one schema as a Mermaid graph to w.
// Foreign keys are solid edges from the referring table to the referred
// table; partitions hang off their parent with dotted edges.
func WriteMermaid(ctx context.Context, w io.Writer, schema *metadata.Schema) error {
	mw := &mermaidWriter{w: w, schema: schema, edges: make(map[string]bool)}

	mw.line("graph TD")
	for _, t := range schema.Tables() {
		mw.table(ctx, t)
	}
	return mw.err
}

type mermaidWriter struct {
	w      io.Writer
	schema *metadata.Schema
	edges  map[string]bool
	err    error
}

func (mw *mermaidWriter) line(format string, args ...any) {
	if mw.err != nil {
		return
	}
	_, mw.err = fmt.Fprintf(mw.w, format+"\n", args...)
}

func (mw *mermaidWriter) table(ctx context.Context, t *metadata.Table) {
	id := mermaidID(t.Name())
	mw.line("    %s[%s]", id, t.Name())

	for _, fk := range t.ForeignKeys() {
		ref := fk.Referred()
		target := ref.Table
		if ref.Schema != "" && ref.Schema != mw.schema.Name() {
			target = ref.Schema + "." + ref.Table
		}
		var cols []string
		for _, c := range fk.Columns() {
			cols = append(cols, c.Name())
		}
		label := strings.Join(cols, ", ")
		edgeKey := fmt.Sprintf("%s-->%s:%s", id, mermaidID(target), label)
		if mw.edges[edgeKey] {
			continue
		}
		mw.edges[edgeKey] = true
		mw.line("    %s -->|%s| %s", id, label, mermaidID(target))
	}

	if !t.Types().Has(metadata.TablePartitioned) {
		return
	}
	for _, p := range t.Partitions(ctx) {
		mw.line("    %s -.-> %s", id, mermaidID(p.Name()))
		mw.table(ctx, p)
	}
}

// mermaidID converts a table name to a Mermaid-safe node ID.
func mermaidID(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, name)
}
