package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"go.uber.org/zap"
)

// BrokerConfig configures the embedded MQTT broker, for setups without an
// external one.
type BrokerConfig struct {
	Listen         string
	AllowAnonymous bool
	Username       string
	Password       string
}

// Broker runs an embedded MQTT broker.
type Broker struct {
	log    *zap.Logger
	server *mqtt.Server
	config BrokerConfig
}

// NewBroker creates an embedded broker.
func NewBroker(log *zap.Logger, cfg BrokerConfig) (*Broker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = "127.0.0.1:1883"
	}

	server, err := newServer(cfg)
	if err != nil {
		return nil, err
	}
	return &Broker{log: log, server: server, config: cfg}, nil
}

// Run serves until the context ends.
func (b *Broker) Run(ctx context.Context) error {
	listener := listeners.NewTCP(listeners.Config{ID: "tcp-embedded", Address: b.config.Listen})
	if err := b.server.AddListener(listener); err != nil {
		return err
	}

	b.log.Info("embedded broker listening", zap.String("listen", b.config.Listen))
	go func() {
		_ = b.server.Serve()
	}()

	<-ctx.Done()
	return b.server.Close()
}

func newServer(cfg BrokerConfig) (*mqtt.Server, error) {
	// mochi logs through slog; its per-connection chatter is not worth
	// forwarding, so it is discarded.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := mqtt.New(&mqtt.Options{InlineClient: true, Logger: quiet})

	switch {
	case cfg.AllowAnonymous:
		if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
			return nil, err
		}
	case cfg.Username != "":
		ledger := &auth.Ledger{
			Auth: auth.AuthRules{{Username: auth.RString(cfg.Username), Password: auth.RString(cfg.Password), Allow: true}},
			ACL:  auth.ACLRules{{Username: auth.RString(cfg.Username), Filters: auth.Filters{auth.RString("#"): auth.ReadWrite}}},
		}
		if err := server.AddHook(new(auth.Hook), &auth.Options{Ledger: ledger}); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("embedded broker requires allow_anonymous or a username")
	}

	return server, nil
}

// BrokerURL returns the client URL for a listen address.
func BrokerURL(listen string) string {
	return fmt.Sprintf("mqtt://%s", listen)
}
