package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mkeats/cadenza/internal/client"
	"github.com/mkeats/cadenza/internal/search"
	"github.com/mkeats/cadenza/pkg/protocol"
)

func libraryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Library commands",
	}

	cmd.AddCommand(libraryAlbumsCommand())
	cmd.AddCommand(libraryArtistsCommand())
	cmd.AddCommand(librarySearchCommand())
	cmd.AddCommand(libraryAddCommand())
	cmd.AddCommand(libraryPlayCommand())

	return cmd
}

func libraryAlbumsCommand() *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "albums",
		Short: "List albums",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			records, err := app.client.List(ctx, "album", group)
			if err != nil {
				return err
			}
			if app.json {
				return printJSON(records)
			}
			columns := []string{"album"}
			if group != "" {
				columns = []string{group, "album"}
			}
			return printRecordsTable(records, columns)
		},
	}

	cmd.Flags().StringVar(&group, "group", "albumartist", "tag to group albums by (empty for none)")
	return cmd
}

func libraryArtistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "artists",
		Short: "List album artists",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			records, err := app.client.List(ctx, "albumartist", "")
			if err != nil {
				return err
			}
			if app.json {
				return printJSON(records)
			}
			return printRecordsTable(records, []string{"albumartist"})
		},
	}
}

func librarySearchCommand() *cobra.Command {
	var fuzzyTerm string

	cmd := &cobra.Command{
		Use:   "search [tag=value...]",
		Short: "Search tracks by tag, or albums fuzzily with --fuzzy",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			if fuzzyTerm != "" {
				return fuzzyAlbumSearch(cmd, fuzzyTerm)
			}

			criteria, err := client.ParseCriteria(args)
			if err != nil {
				return err
			}
			records, err := app.client.Search(ctx, criteria)
			if err != nil {
				return err
			}
			if app.json {
				return printJSON(records)
			}
			return printRecordsTable(records, []string{"artist", "title", "album"})
		},
	}

	cmd.Flags().StringVar(&fuzzyTerm, "fuzzy", "", "fuzzy-match albums and artists instead of exact tag search")
	return cmd
}

// fuzzyAlbumSearch filters the album listing client-side. Album and artist
// names both count as match words for their row.
func fuzzyAlbumSearch(cmd *cobra.Command, term string) error {
	app := fromContext(cmd)
	ctx, cancel := app.opCtx(cmd)
	defer cancel()

	records, err := app.client.List(ctx, "album", "albumartist")
	if err != nil {
		return err
	}

	var words []search.Word
	for i, rec := range records {
		if album := rec.Get("album"); album != "" {
			words = append(words, search.Word{Text: album, Index: i})
		}
		if artist := rec.Get("albumartist"); artist != "" {
			words = append(words, search.Word{Text: artist, Index: i})
		}
	}

	var matched []protocol.Record
	for _, idx := range search.Fuzzy(term, words) {
		matched = append(matched, records[idx])
	}
	if app.json {
		return printJSON(matched)
	}
	if len(matched) == 0 {
		pterm.Info.Println("no matches")
		return nil
	}
	return printRecordsTable(matched, []string{"albumartist", "album"})
}

func libraryAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <tag=value...>",
		Short: "Append all matching tracks to the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			criteria, err := client.ParseCriteria(args)
			if err != nil {
				return err
			}
			return app.client.SearchAdd(ctx, criteria)
		},
	}
}

func libraryPlayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play <tag=value...>",
		Short: "Enqueue matching tracks and play the first match",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			criteria, err := client.ParseCriteria(args)
			if err != nil {
				return err
			}
			return app.client.AddAndPlay(ctx, criteria)
		},
	}
}
