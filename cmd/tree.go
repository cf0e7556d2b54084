package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurou927/db-metadata/internal/render"
)

var (
	treeFormat string
	treeSchema string
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the metadata tree",
	Long:  `Connects to the database, introspects it, and prints the metadata tree as an indented outline or, for one schema, as a Mermaid graph of foreign keys and partitions.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		switch treeFormat {
		case "text":
			return render.WriteTree(ctx, cmd.OutOrStdout(), s.md)
		case "mermaid":
			schema, err := lookupSchema(s.md, treeSchema)
			if err != nil {
				return err
			}
			return render.WriteMermaid(ctx, cmd.OutOrStdout(), schema)
		default:
			return fmt.Errorf("unknown format: %s (supported: text, mermaid)", treeFormat)
		}
	},
}

func init() {
	treeCmd.Flags().StringVar(&treeFormat, "format", "text", "output format: text or mermaid")
	treeCmd.Flags().StringVar(&treeSchema, "schema", "", "schema to draw with --format mermaid (default: current schema)")
	rootCmd.AddCommand(treeCmd)
}
