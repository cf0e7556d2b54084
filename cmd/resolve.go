package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hurou927/db-metadata/internal/bookmark"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <handle>...",
	Short: "Look up elements by handle",
	Long:  `Resolves each handle against the live database and prints whether it was found, missing, or malformed.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		set := &bookmark.Set{}
		for _, a := range args {
			set.Bookmarks = append(set.Bookmarks, bookmark.Entry{Label: a, Handle: a})
		}
		return writeResults(cmd.OutOrStdout(), set.Check(ctx, s.md), false)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func writeResults(w io.Writer, results []bookmark.Result, withLabel bool) error {
	for _, r := range results {
		prefix := r.Handle
		if withLabel {
			prefix = r.Label + "\t" + r.Handle
		}
		var err error
		switch r.Status {
		case bookmark.StatusResolved:
			_, err = fmt.Fprintf(w, "%s\t%s\t%s %s\n", prefix, r.Status, r.Element.Kind(), r.Element.Name())
		case bookmark.StatusMalformed:
			_, err = fmt.Fprintf(w, "%s\t%s\t%v\n", prefix, r.Status, r.Err)
		default:
			_, err = fmt.Fprintf(w, "%s\t%s\n", prefix, r.Status)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
