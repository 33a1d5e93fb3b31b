package main

import (
	"fmt"

	"github.com/mmcdole/gofeed"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func podcastCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "podcast",
		Short: "Podcast commands",
	}

	cmd.AddCommand(podcastAddCommand())
	return cmd
}

func podcastAddCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "add <feed-url>",
		Short: "Queue episodes from a podcast feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			feed, err := gofeed.NewParser().ParseURLWithContext(args[0], ctx)
			if err != nil {
				return fmt.Errorf("parse feed: %w", err)
			}

			queued := 0
			for _, item := range feed.Items {
				url := episodeURL(item)
				if url == "" {
					continue
				}
				if err := app.client.AddURL(ctx, url); err != nil {
					return err
				}
				queued++
				if limit > 0 && queued >= limit {
					break
				}
			}

			if app.json {
				return printJSON(map[string]any{"feed": feed.Title, "queued": queued})
			}
			pterm.Success.Printfln("queued %d episodes from %s", queued, feed.Title)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "queue at most n episodes (0 for all)")
	return cmd
}

func episodeURL(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure != nil && enclosure.URL != "" {
			return enclosure.URL
		}
	}
	return ""
}
