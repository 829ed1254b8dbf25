// Package telemetry publishes gesture events and a periodic status heartbeat
// over MQTT.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ayusman/mudra/internal/gesture"
)

const connectTimeout = 10 * time.Second

// Config carries the broker connection settings.
type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

// Publisher pushes events to <prefix>/events and heartbeats to
// <prefix>/status. It satisfies the output sink contract, so the dispatcher
// treats MQTT like any other consumer.
type Publisher struct {
	client mqtt.Client
	prefix string
}

// Connect dials the broker and returns a ready publisher.
func Connect(cfg Config) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Printf("telemetry: connection lost: %v", err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout after %s", connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	log.Printf("telemetry: connected to %s as %s", cfg.Broker, cfg.ClientID)
	return newPublisher(client, cfg.TopicPrefix), nil
}

func newPublisher(client mqtt.Client, prefix string) *Publisher {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = "mudra"
	}
	return &Publisher{client: client, prefix: prefix}
}

// Name identifies the sink in logs.
func (p *Publisher) Name() string { return "mqtt" }

// PublishEvent sends one gesture event.
func (p *Publisher) PublishEvent(ev gesture.Event) error {
	return p.publish(p.prefix+"/events", false, ev)
}

// PublishStatus sends the heartbeat, retained so late subscribers see the
// last known state immediately.
func (p *Publisher) PublishStatus(status any) error {
	return p.publish(p.prefix+"/status", true, status)
}

func (p *Publisher) publish(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	if token := p.client.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
