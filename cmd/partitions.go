package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hurou927/db-metadata/internal/metadata"
)

var partitionsCmd = &cobra.Command{
	Use:   "partitions <schema> <table>",
	Short: "List the partitions of a partitioned table",
	Long:  `Lists the partitions of a table, nested partitions indented below their parent. If partition introspection failed, the error is printed and the listing is empty.`,
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
		if !t.Types().Has(metadata.TablePartitioned) {
			return fmt.Errorf("table %q is not partitioned", t.Name())
		}
		return writePartitions(ctx, cmd.OutOrStdout(), t, 0)
	},
}

func init() {
	rootCmd.AddCommand(partitionsCmd)
}

func writePartitions(ctx context.Context, w io.Writer, t *metadata.Table, depth int) error {
	for _, p := range t.Partitions(ctx) {
		if _, err := fmt.Fprintf(w, "%s%s [%s]\n", strings.Repeat("  ", depth), p.Name(), p.Types()); err != nil {
			return err
		}
		if err := writePartitions(ctx, w, p, depth+1); err != nil {
			return err
		}
	}
	if err := t.PartitionErr(); err != nil {
		_, werr := fmt.Fprintf(w, "%swarning: %v\n", strings.Repeat("  ", depth), err)
		return werr
	}
	return nil
}
