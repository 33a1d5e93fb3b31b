package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mkeats/cadenza/internal/client"
)

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print server change notifications until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher := client.NewWatcher(app.log, app.client.Channel(), app.cfg.MPD.IdleDebounce(), func(changed []string) {
				if app.json {
					_ = printJSON(map[string]any{"subsystems": changed, "ts": time.Now().Unix()})
					return
				}
				pterm.Info.Printfln("changed: %s", strings.Join(changed, ", "))
			})

			// The long-poll read has no deadline; closing the connection is
			// what unblocks it on shutdown.
			go func() {
				<-ctx.Done()
				_ = app.client.Close()
			}()

			return watcher.Run(ctx)
		},
	}
}
