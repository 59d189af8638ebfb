package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ErrNotConnected is returned while the broker connection is down.
var ErrNotConnected = errors.New("events: mqtt not connected")

// MQTTConfig configures the MQTT publisher.
type MQTTConfig struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
	Username string
	Password string
	Topic    string // prefix; events go to <Topic>/<kind>

	// Kinds limits what is forwarded. Empty means hazards, narrations
	// and triggers; per-frame detections are too chatty for displays.
	Kinds []Kind

	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// DefaultMQTTConfig returns a config for a local broker.
func DefaultMQTTConfig() MQTTConfig {
	return MQTTConfig{
		Broker:         "tcp://localhost:1883",
		ClientID:       "narrator",
		Topic:          "narrator",
		ConnectTimeout: 5 * time.Second,
	}
}

// MQTT publishes events as JSON. Publishing never waits on the broker:
// hazards use QoS 1 and everything else QoS 0, and delivery failures are
// counted when the token completes.
type MQTT struct {
	config MQTTConfig
	client mqtt.Client
	kinds  map[Kind]bool
	logger *slog.Logger

	mu        sync.Mutex
	connected bool

	published atomic.Uint64
	failed    atomic.Uint64
	skipped   atomic.Uint64
}

// MQTTStats counts publisher activity.
type MQTTStats struct {
	Connected bool   `json:"connected"`
	Published uint64 `json:"published"`
	Failed    uint64 `json:"failed"`
	Skipped   uint64 `json:"skipped"`
}

// DialMQTT connects to the broker. The client reconnects on its own
// after the first successful connection.
func DialMQTT(cfg MQTTConfig) (*MQTT, error) {
	def := DefaultMQTTConfig()
	if cfg.Broker == "" {
		return nil, fmt.Errorf("events: mqtt broker required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = def.ClientID
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = def.ConnectTimeout
	}

	m := newMQTT(cfg)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		m.setConnected(true)
		m.logger.Info("mqtt connected", "broker", cfg.Broker, "client_id", cfg.ClientID)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		m.setConnected(false)
		m.logger.Warn("mqtt connection lost, reconnecting", "broker", cfg.Broker, "error", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("events: mqtt connect to %s: timeout", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("events: mqtt connect to %s: %w", cfg.Broker, err)
	}

	m.client = client
	m.setConnected(true)
	return m, nil
}

// NewMQTT wraps an already connected client.
func NewMQTT(client mqtt.Client, cfg MQTTConfig) *MQTT {
	m := newMQTT(cfg)
	m.client = client
	m.connected = client.IsConnected()
	return m
}

func newMQTT(cfg MQTTConfig) *MQTT {
	if cfg.Topic == "" {
		cfg.Topic = DefaultMQTTConfig().Topic
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	kinds := cfg.Kinds
	if len(kinds) == 0 {
		kinds = []Kind{KindHazard, KindNarration, KindTrigger}
	}
	set := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return &MQTT{
		config: cfg,
		kinds:  set,
		logger: cfg.Logger.With("component", "events.mqtt"),
	}
}

// Topic returns the topic an event of kind is published on.
func (m *MQTT) Topic(kind Kind) string {
	return m.config.Topic + "/" + string(kind)
}

// Publish implements Publisher.
func (m *MQTT) Publish(_ context.Context, e Event) error {
	if !m.kinds[e.Kind] {
		m.skipped.Add(1)
		return nil
	}
	if !m.isConnected() {
		m.failed.Add(1)
		return ErrNotConnected
	}

	payload, err := json.Marshal(e)
	if err != nil {
		m.failed.Add(1)
		return fmt.Errorf("events: marshal %s: %w", e.Kind, err)
	}

	var qos byte
	if e.Kind == KindHazard {
		qos = 1
	}

	topic := m.Topic(e.Kind)
	token := m.client.Publish(topic, qos, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			m.failed.Add(1)
			return fmt.Errorf("events: publish %s: %w", topic, err)
		}
		m.published.Add(1)
	default:
		go m.await(topic, token)
	}
	return nil
}

func (m *MQTT) await(topic string, token mqtt.Token) {
	token.Wait()
	if err := token.Error(); err != nil {
		m.failed.Add(1)
		m.logger.Debug("mqtt publish failed", "topic", topic, "error", err)
		return
	}
	m.published.Add(1)
}

// Stats returns a snapshot of the counters.
func (m *MQTT) Stats() MQTTStats {
	return MQTTStats{
		Connected: m.isConnected(),
		Published: m.published.Load(),
		Failed:    m.failed.Load(),
		Skipped:   m.skipped.Load(),
	}
}

// Close disconnects with a short grace period.
func (m *MQTT) Close() error {
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
	}
	m.setConnected(false)
	return nil
}

func (m *MQTT) setConnected(v bool) {
	m.mu.Lock()
	m.connected = v
	m.mu.Unlock()
}

func (m *MQTT) isConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

var _ Publisher = (*MQTT)(nil)
