package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func playCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play [position]",
		Short: "Start playback, optionally at a queue position",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()

			pos := -1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return err
				}
				pos = n
			}
			return app.client.Play(ctx, pos)
		},
	}
}

func pauseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause playback",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()
			return app.client.Pause(ctx, true)
		},
	}
}

func toggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Toggle between playing and paused",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()
			return app.client.Toggle(ctx)
		},
	}
}

func stopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop playback",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()
			return app.client.Stop(ctx)
		},
	}
}

func nextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Skip to the next queue entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()
			return app.client.Next(ctx)
		},
	}
}

func prevCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prev",
		Short: "Return to the previous queue entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, cancel := app.opCtx(cmd)
			defer cancel()
			return app.client.Previous(ctx)
		},
	}
}
