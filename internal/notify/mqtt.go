package notify

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/ivlev/story2video/internal/config"
)

const (
	connectTimeout = 10 * time.Second
	qos            = 1
)

// publisher is the part of mqtt.Client the notifier uses
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes events as JSON to <topic>/<job id>
type MQTT struct {
	client publisher
	topic  string
}

// NewMQTT connects to the broker of cfg
func NewMQTT(cfg config.MQTTConfig) (*MQTT, error) {
	options := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(5 * time.Second).
		SetAutoReconnect(true)
	client := mqtt.NewClient(options)

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", cfg.Broker, err)
	}
	return newMQTT(client, cfg.Topic), nil
}

func newMQTT(client publisher, topic string) *MQTT {
	return &MQTT{client: client, topic: topic}
}

// Topic returns the topic events of job id are published on
func (m *MQTT) Topic(id string) string {
	return m.topic + "/" + id
}

func (m *MQTT) Notify(ctx context.Context, ev Event) error {
	b, err := ev.Payload()
	if err != nil {
		return err
	}
	token := m.client.Publish(m.Topic(ev.JobID), qos, false, b)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}
