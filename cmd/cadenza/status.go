package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mkeats/cadenza/pkg/protocol"
)

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show player state and the current track",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			status, err := app.client.Status(ctx)
			if err != nil {
				return err
			}
			current, err := app.client.CurrentSong(ctx)
			if err != nil {
				return err
			}

			if app.json {
				out := map[string]any{"status": status}
				if current != nil {
					out["current"] = current
				}
				return printJSON(out)
			}

			state := status.Get("state")
			line := fmt.Sprintf("[%s]", state)
			if current != nil {
				line += "  " + formatTrack(*current)
			}
			if elapsed := formatTime(status.Get("elapsed"), status.Get("duration")); elapsed != "" {
				line += "  " + elapsed
			}
			if volume := status.Get("volume"); volume != "" {
				line += fmt.Sprintf("  vol %s%%", volume)
			}
			pterm.Println(line)

			if version := app.client.Version(); version != "" {
				app.log.Debug("server version " + version)
			}
			return nil
		},
	}
}

func formatTrack(rec protocol.Record) string {
	artist := rec.Get("artist")
	title := rec.Get("title")
	switch {
	case artist != "" && title != "":
		return fmt.Sprintf("%s - %s", artist, title)
	case title != "":
		return title
	default:
		return rec.Get("file")
	}
}

func formatTime(elapsed, duration string) string {
	e, err := strconv.ParseFloat(elapsed, 64)
	if err != nil {
		return ""
	}
	out := clock(int(e))
	if d, err := strconv.ParseFloat(duration, 64); err == nil {
		out += "/" + clock(int(d))
	}
	return out
}

func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
