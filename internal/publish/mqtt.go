package publish

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttTimeout = 5 * time.Second

var newMQTTClient = mqtt.NewClient

type MQTTOptions struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
}

// MQTTSink publishes JSON events to a single topic. Events are not
// retained; each one is a discrete occurrence.
type MQTTSink struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

func NewMQTT(o MQTTOptions) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttTimeout)
	client := newMQTTClient(opts)
	if err := wait(client.Connect(), mqttTimeout); err != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", o.Broker, err)
	}
	return &MQTTSink{client: client, topic: o.Topic, qos: o.QoS, timeout: mqttTimeout}, nil
}

func (s *MQTTSink) Publish(ev Event) error {
	payload, err := ev.Marshal()
	if err != nil {
		return err
	}
	if err := wait(s.client.Publish(s.topic, s.qos, false, payload), s.timeout); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", s.topic, err)
	}
	return nil
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}

func wait(tok mqtt.Token, timeout time.Duration) error {
	if !tok.WaitTimeout(timeout) {
		return fmt.Errorf("timed out after %s", timeout)
	}
	return tok.Error()
}
