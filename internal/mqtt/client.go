// Package mqtt mirrors station telemetry to an MQTT broker and lets
// consoles subscribe to it.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/weather_station/internal/env"
	"github.com/relabs-tech/weather_station/internal/trend"
)

const publishTimeout = 5 * time.Second

// Options configures the broker connection.
type Options struct {
	Broker   string // e.g. tcp://localhost:1883
	ClientID string
}

type Client struct {
	client    paho.Client
	opts      Options
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewClient(o Options, logger *slog.Logger) *Client {
	c := &Client{
		opts:   o,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(o.Broker)
	opts.SetClientID(o.ClientID)
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ paho.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", o.Broker)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = paho.NewClient(opts)
	return c
}

// Connect waits for the initial connection; it respects ctx and Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return fmt.Errorf("client stopped")
	default:
	}
	if c.IsConnected() {
		return nil
	}

	token := c.client.Connect()
	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			return fmt.Errorf("client stopped")
		default:
		}
	}
}

// PublishJSON marshals v and publishes it on topic, waiting for the broker
// acknowledgement.
func (c *Client) PublishJSON(topic string, v any) error {
	if !c.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}
	token := c.client.Publish(topic, 1, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	c.logger.Debug("published", "topic", topic, "bytes", len(data))
	return nil
}

// Subscribe calls handle with the payload of every message on topic.
func (c *Client) Subscribe(topic string, handle func(payload []byte)) error {
	token := c.client.Subscribe(topic, 1, func(_ paho.Client, msg paho.Message) {
		handle(msg.Payload())
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	c.logger.Info("mqtt subscribed", "topic", topic)
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect stops the client. Idempotent; Connect fails afterwards.
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.client != nil {
		c.client.Disconnect(250)
	}
	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// Publisher sends one Telemetry message per cycle for a station.
type Publisher struct {
	client    *Client
	topic     string
	stationID string
}

func NewPublisher(client *Client, topic, stationID string) *Publisher {
	return &Publisher{client: client, topic: topic, stationID: stationID}
}

// Publish sends t on the station topic.
func (p *Publisher) Publish(t Telemetry) error {
	t.StationID = p.stationID
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	return p.client.PublishJSON(p.topic, t)
}

// PublishReading sends the telemetry for one station cycle.
func (p *Publisher) PublishReading(r env.Reading, ts time.Time, dir trend.Direction) error {
	return p.Publish(NewTelemetry(p.stationID, r, ts, dir))
}
