package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hurou927/db-metadata/internal/metadata"
)

var handlesCmd = &cobra.Command{
	Use:   "handles <schema> <table>",
	Short: "Print the handles of a table and everything below it",
	Long:  `Prints one line per element: the handle followed by the element kind. Partitions are included with their own columns, keys and indexes. Use "-" as the schema on backends without schemas.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		t, err := lookupTable(s.md, args[0], args[1])
		if err != nil {
			return err
		}
		for _, e := range tableElements(ctx, t) {
			if err := printHandle(cmd.OutOrStdout(), e); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(handlesCmd)
}

// tableElements returns t followed by all of its descendants, depth first.
func tableElements(ctx context.Context, t *metadata.Table) []metadata.Element {
	out := []metadata.Element{t}
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
		out = append(out, tableElements(ctx, p)...)
	}
	return out
}

func printHandle(w io.Writer, e metadata.Element) error {
	h, err := metadata.NewHandle(e)
	if err != nil {
		return fmt.Errorf("building handle for %s %q: %w", e.Kind(), e.Name(), err)
	}
	_, err = fmt.Fprintf(w, "%s\t%s\n", h, e.Kind())
	return err
}
