// Package bridge republishes server change notifications over MQTT so other
// home-automation consumers can react to playlist and player updates without
// speaking the line protocol themselves.
package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// BaseTopic is the default topic prefix for bridge messages.
const BaseTopic = "cadenza/v1"

// Event is the payload published once per change batch.
type Event struct {
	Subsystems []string `json:"subsystems"`
	TS         int64    `json:"ts"`
}

// Options configures the MQTT publisher.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TLSCA     string
	TLSCert   string
	TLSKey    string
	TopicBase string
	Timeout   time.Duration
}

// Publisher forwards change batches to an MQTT broker.
type Publisher struct {
	log       *zap.Logger
	client    paho.Client
	topicBase string
	timeout   time.Duration
}

// NewPublisher creates and connects a publisher.
func NewPublisher(log *zap.Logger, opts Options) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TopicBase == "" {
		opts.TopicBase = BaseTopic
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}

	clientOpts := paho.NewClientOptions().AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetConnectTimeout(opts.Timeout)
	clientOpts.SetAutoReconnect(true)
	// The embedded broker may still be binding its listener when the
	// publisher first connects.
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectRetryInterval(500 * time.Millisecond)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	tlsConfig, err := opts.tlsConfig()
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		clientOpts.SetTLSConfig(tlsConfig)
	}

	p := &Publisher{
		log:       log,
		client:    paho.NewClient(clientOpts),
		topicBase: opts.TopicBase,
		timeout:   opts.Timeout,
	}
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return p, nil
}

// PublishChanges publishes one change batch. The latest batch is also
// retained so late subscribers see the most recent change.
func (p *Publisher) PublishChanges(changed []string) error {
	payload, err := json.Marshal(Event{Subsystems: changed, TS: time.Now().Unix()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if token := p.client.Publish(TopicEvents(p.topicBase), 1, false, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	if token := p.client.Publish(TopicLastEvent(p.topicBase), 1, true, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	p.log.Debug("published change batch", zap.Strings("subsystems", changed))
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(uint(p.timeout.Milliseconds()))
}

// TopicEvents builds the per-batch event topic.
func TopicEvents(topicBase string) string {
	return fmt.Sprintf("%s/events", topicBase)
}

// TopicLastEvent builds the retained last-event topic.
func TopicLastEvent(topicBase string) string {
	return fmt.Sprintf("%s/events/last", topicBase)
}
