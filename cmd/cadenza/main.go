package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mkeats/cadenza/internal/client"
	"github.com/mkeats/cadenza/internal/config"
	"github.com/mkeats/cadenza/pkg/protocol"
)

// Exit codes.
const (
	exitOK         = 0
	exitRuntime    = 1
	exitUsage      = 2
	exitProtocol   = 3
	exitConnection = 4
)

type app struct {
	client  *client.Client
	cfg     config.Config
	log     *zap.Logger
	json    bool
	timeout time.Duration
}

func main() {
	root := &cobra.Command{
		Use:           "cadenza",
		Short:         "Terminal client for MPD",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		configPath string
		host       string
		port       int
		timeout    time.Duration
		jsonOut    bool
		verbose    bool
	)

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	root.PersistentFlags().StringVarP(&host, "host", "H", "", "MPD host")
	root.PersistentFlags().IntVarP(&port, "port", "p", 0, "MPD port")
	root.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 0, "command timeout")
	root.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output json")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if host != "" {
			cfg.MPD.Host = host
		}
		if port != 0 {
			cfg.MPD.Port = port
		}
		if timeout != 0 {
			cfg.MPD.TimeoutMS = timeout.Milliseconds()
		}

		log, err := newLogger(cfg.Log.Level, verbose)
		if err != nil {
			return err
		}

		mpd := client.New(log, client.Options{
			Host:    cfg.MPD.Host,
			Port:    cfg.MPD.Port,
			Timeout: cfg.MPD.Timeout(),
		})

		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{
			client:  mpd,
			cfg:     cfg,
			log:     log,
			json:    jsonOut,
			timeout: cfg.MPD.Timeout(),
		}))
		return nil
	}

	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if a := fromContext(cmd); a != nil {
			_ = a.client.Close()
			_ = a.log.Sync()
		}
	}

	root.AddCommand(statusCommand())
	root.AddCommand(playCommand())
	root.AddCommand(pauseCommand())
	root.AddCommand(toggleCommand())
	root.AddCommand(stopCommand())
	root.AddCommand(nextCommand())
	root.AddCommand(prevCommand())
	root.AddCommand(queueCommand())
	root.AddCommand(libraryCommand())
	root.AddCommand(podcastCommand())
	root.AddCommand(watchCommand())
	root.AddCommand(bridgeCommand())

	if err := root.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(exitCode(err))
	}
}

type appKey struct{}

func fromContext(cmd *cobra.Command) *app {
	val := cmd.Context().Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

func (a *app) opCtx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	// AddAndPlay runs several commands back to back, so the operation
	// deadline is a multiple of the per-command timeout.
	return context.WithTimeout(cmd.Context(), 4*a.timeout)
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	if verbose {
		level = "debug"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.WarnLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ack *protocol.AckError
	if errors.As(err, &ack) {
		return exitProtocol
	}
	var connErr *client.ConnectionError
	var handshakeErr *client.HandshakeError
	if errors.As(err, &connErr) || errors.As(err, &handshakeErr) {
		return exitConnection
	}
	if errors.Is(err, client.ErrContract) {
		return exitUsage
	}
	return exitRuntime
}
