package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mkeats/cadenza/internal/bridge"
	"github.com/mkeats/cadenza/internal/client"
)

func bridgeCommand() *cobra.Command {
	var broker string

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Republish change notifications over MQTT",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fromContext(cmd)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := app.cfg.Bridge
			if broker != "" {
				cfg.Broker = broker
			}

			if cfg.Embedded {
				embedded, err := bridge.NewBroker(app.log, bridge.BrokerConfig{
					Listen:         cfg.Listen,
					AllowAnonymous: cfg.AllowAnonymous,
					Username:       cfg.Username,
					Password:       cfg.Password,
				})
				if err != nil {
					return err
				}
				go func() {
					if err := embedded.Run(ctx); err != nil {
						app.log.Error("embedded broker exited", zap.Error(err))
						stop()
					}
				}()
				if cfg.Broker == "" {
					cfg.Broker = bridge.BrokerURL(cfg.Listen)
				}
			}
			if cfg.Broker == "" {
				return fmt.Errorf("bridge broker is required (set [bridge] broker or --broker)")
			}

			publisher, err := bridge.NewPublisher(app.log, bridge.Options{
				BrokerURL: cfg.Broker,
				ClientID:  fmt.Sprintf("cadenza-%d", time.Now().UnixNano()),
				Username:  cfg.Username,
				Password:  cfg.Password,
				TLSCA:     cfg.TLSCA,
				TLSCert:   cfg.TLSCert,
				TLSKey:    cfg.TLSKey,
				TopicBase: cfg.TopicBase,
			})
			if err != nil {
				return err
			}
			defer publisher.Close()

			watcher := client.NewWatcher(app.log, app.client.Channel(), app.cfg.MPD.IdleDebounce(), func(changed []string) {
				if err := publisher.PublishChanges(changed); err != nil {
					app.log.Warn("publish failed", zap.Error(err))
				}
			})

			go func() {
				<-ctx.Done()
				_ = app.client.Close()
			}()

			app.log.Info("bridge running", zap.String("broker", cfg.Broker))
			return watcher.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&broker, "broker", "", "MQTT broker URL override")
	return cmd
}
