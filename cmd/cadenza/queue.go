package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func queueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Queue commands",
	}

	cmd.AddCommand(queueListCommand())
	cmd.AddCommand(queueClearCommand())
	cmd.AddCommand(queueRemoveCommand())
	cmd.AddCommand(queueJumpCommand())

	return cmd
}

func queueListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List the play queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			records, err := app.client.Queue(ctx)
			if err != nil {
				return err
			}
			if app.json {
				return printJSON(records)
			}
			return printRecordsTable(records, []string{"pos", "artist", "title", "album"})
		},
	}
}

func queueClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the play queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()
			return app.client.Clear(ctx)
		},
	}
}

func queueRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <pos|start:end>",
		Short: "Remove one entry or a position range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			start, end, err := parseRange(args[0])
			if err != nil {
				return err
			}
			return app.client.Delete(ctx, start, end)
		},
	}
}

func queueJumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "jump <pos>",
		Short: "Play the queue entry at a position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			return app.client.Play(ctx, pos)
		},
	}
}

// parseRange parses "3" or "3:7"; the end of a range is exclusive, matching
// the wire format.
func parseRange(arg string) (int, int, error) {
	startStr, endStr, isRange := strings.Cut(arg, ":")
	start, err := strconv.Atoi(startStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid position %q", startStr)
	}
	if !isRange {
		return start, -1, nil
	}
	end, err := strconv.Atoi(endStr)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid position %q", endStr)
	}
	return start, end, nil
}
