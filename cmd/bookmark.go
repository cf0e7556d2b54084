package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hurou927/db-metadata/internal/bookmark"
	"github.com/hurou927/db-metadata/internal/metadata"
)

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Manage saved handles",
	Long:  `Bookmarks are labelled handles kept in the file named by "bookmarks" in the config.`,
}

var bookmarkAddCmd = &cobra.Command{
	Use:   "add <label> <handle>",
	Short: "Save a handle under a label, replacing any bookmark with that label",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := metadata.ParseHandle[metadata.Element](args[1])
		if err != nil {
			return err
		}
		set, err := bookmark.Load(cfg.Bookmarks)
		if err != nil {
			return err
		}
		set.Add(args[0], h)
		return set.Save(cfg.Bookmarks)
	},
}

var bookmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved bookmarks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := bookmark.Load(cfg.Bookmarks)
		if err != nil {
			return err
		}
		for _, e := range set.Bookmarks {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.Label, e.Handle); err != nil {
				return err
			}
		}
		return nil
	},
}

var bookmarkShowCmd = &cobra.Command{
	Use:   "show <label>",
	Short: "Resolve one bookmark and print the element it points at",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		set, err := bookmark.Load(cfg.Bookmarks)
		if err != nil {
			return err
		}
		e, ok := set.Get(args[0])
		if !ok {
			return fmt.Errorf("bookmark %q not found", args[0])
		}
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		one := &bookmark.Set{Bookmarks: []bookmark.Entry{e}}
		return writeResults(cmd.OutOrStdout(), one.Check(ctx, s.md), true)
	},
}

var bookmarkCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Resolve every bookmark against the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		set, err := bookmark.Load(cfg.Bookmarks)
		if err != nil {
			return err
		}
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		return writeResults(cmd.OutOrStdout(), set.Check(ctx, s.md), true)
	},
}

var bookmarkRemoveCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Delete a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := bookmark.Load(cfg.Bookmarks)
		if err != nil {
			return err
		}
		if !set.Remove(args[0]) {
			return fmt.Errorf("bookmark %q not found", args[0])
		}
		return set.Save(cfg.Bookmarks)
	},
}

func init() {
	bookmarkCmd.AddCommand(bookmarkAddCmd, bookmarkListCmd, bookmarkShowCmd, bookmarkCheckCmd, bookmarkRemoveCmd)
	rootCmd.AddCommand(bookmarkCmd)
}
