package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	done bool
	err  error
}

func (t *fakeToken) Wait() bool                     { return t.done }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type pubRecord struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	mqtt.Client

	opts         *mqtt.ClientOptions
	connectTok   *fakeToken
	publishTok   *fakeToken
	published    []pubRecord
	disconnected []uint
}

func (c *fakeClient) Connect() mqtt.Token { return c.connectTok }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.published = append(c.published, pubRecord{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return c.publishTok
}

func (c *fakeClient) Disconnect(quiesce uint) { c.disconnected = append(c.disconnected, quiesce) }

func withFakeClient(t *testing.T, fc *fakeClient) {
	t.Helper()
	old := newMQTTClient
	t.Cleanup(func() { newMQTTClient = old })
	newMQTTClient = func(o *mqtt.ClientOptions) mqtt.Client {
		fc.opts = o
		return fc
	}
}

func TestNewMQTT_ConnectsWithOptions(t *testing.T) {
	fc := &fakeClient{connectTok: &fakeToken{done: true}, publishTok: &fakeToken{done: true}}
	withFakeClient(t, fc)

	s, err := NewMQTT(MQTTOptions{Broker: "tcp://broker:1883", ClientID: "unit", Topic: "t/ev", QoS: 1})
	if err != nil {
		t.Fatalf("NewMQTT() error: %v", err)
	}
	if fc.opts.ClientID != "unit" {
		t.Fatalf("client id=%q want unit", fc.opts.ClientID)
	}
	if len(fc.opts.Servers) != 1 || fc.opts.Servers[0].Host != "broker:1883" {
		t.Fatalf("servers=%v want broker:1883", fc.opts.Servers)
	}

	if err := s.Publish(Event{Type: "shock", Severity: 7}); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}
	if len(fc.published) != 1 {
		t.Fatalf("published=%d want 1", len(fc.published))
	}
	p := fc.published[0]
	if p.topic != "t/ev" || p.qos != 1 || p.retained {
		t.Fatalf("publish=%+v want t/ev qos1 not retained", p)
	}
	var ev Event
	if err := json.Unmarshal(p.payload, &ev); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if ev.Type != "shock" || ev.Severity != 7 {
		t.Fatalf("event=%+v", ev)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if len(fc.disconnected) != 1 || fc.disconnected[0] != 250 {
		t.Fatalf("disconnect=%v want [250]", fc.disconnected)
	}
}

func TestNewMQTT_ConnectError(t *testing.T) {
	fc := &fakeClient{connectTok: &fakeToken{done: true, err: errors.New("refused")}}
	withFakeClient(t, fc)
	if _, err := NewMQTT(MQTTOptions{Broker: "tcp://x:1883"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewMQTT_ConnectTimeout(t *testing.T) {
	fc := &fakeClient{connectTok: &fakeToken{done: false}}
	withFakeClient(t, fc)
	if _, err := NewMQTT(MQTTOptions{Broker: "tcp://x:1883"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMQTTSink_PublishError(t *testing.T) {
	fc := &fakeClient{publishTok: &fakeToken{done: true, err: errors.New("not connected")}}
	s := &MQTTSink{client: fc, topic: "t", timeout: time.Second}
	if err := s.Publish(Event{Type: "wake"}); err == nil {
		t.Fatalf("expected error")
	}
}
