package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/swapstation/core/metrics"
	"github.com/kilianp07/swapstation/core/monitoring"
	"github.com/kilianp07/swapstation/core/station"
	"github.com/kilianp07/swapstation/infra/logger"
)

// Controller is the part of the station controller driven over MQTT.
type Controller interface {
	Apply(a station.Action) error
	Snapshot() station.Snapshot
}

// Command is the payload accepted on the command topic.
type Command struct {
	Action    string `json:"action"`
	RequestID string `json:"request_id,omitempty"`
}

// Ack answers a Command on the ack topic.
type Ack struct {
	RequestID string    `json:"request_id,omitempty"`
	Action    string    `json:"action"`
	Accepted  bool      `json:"accepted"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Bridge) { b.log = l }
}

// WithActionRecorder records every command received over MQTT.
func WithActionRecorder(r metrics.ActionRecorder) Option {
	return func(b *Bridge) { b.rec = r }
}

// Bridge exposes a station controller on an MQTT broker: commands come in on
// <prefix>/<station>/command, snapshots and events go out on the state and
// events topics.
type Bridge struct {
	cfg       Config
	stationID string
	topics    Topics
	ctrl      Controller
	client    pahoClient
	log       logger.Logger
	rec       metrics.ActionRecorder
	now       func() time.Time

	mu     sync.Mutex
	closed bool
}

// NewBridge connects to the broker and subscribes to the command topic.
func NewBridge(cfg Config, stationID string, ctrl Controller, opts ...Option) (*Bridge, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Bridge{
		cfg:       cfg,
		stationID: stationID,
		topics:    TopicsFor(cfg.TopicPrefix, stationID),
		ctrl:      ctrl,
		log:       logger.NopLogger{},
		rec:       metrics.NopSink{},
		now:       time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	copts, err := NewClientOptions(cfg, b.topics)
	if err != nil {
		return nil, err
	}
	copts.SetOnConnectHandler(func(paho.Client) { b.onConnect() })
	b.client = newMQTTClient(copts)
	if tok := b.client.Connect(); tok.Wait() && tok.Error() != nil {
		monitoring.CaptureException(tok.Error(), map[string]string{"module": "mqtt", "station_id": stationID})
		return nil, fmt.Errorf("mqtt connect: %w", tok.Error())
	}
	return b, nil
}

// onConnect runs on every (re)connection. Sessions are clean, so the
// command subscription is renewed each time.
func (b *Bridge) onConnect() {
	tok := b.client.Subscribe(b.topics.Command, b.cfg.qos("command"), b.handleCommand)
	if tok.Wait() && tok.Error() != nil {
		b.log.Errorf("subscribe %s: %v", b.topics.Command, tok.Error())
		monitoring.CaptureException(tok.Error(), map[string]string{"module": "mqtt", "topic": b.topics.Command})
		return
	}
	b.log.Infof("mqtt bridge subscribed to %s", b.topics.Command)
	_ = b.publish(b.topics.Status, b.cfg.qos("status"), true, []byte(statusOnline))
	b.publishState(b.ctrl.Snapshot())
}

// Topics returns the topics used by the bridge.
func (b *Bridge) Topics() Topics { return b.topics }

func (b *Bridge) handleCommand(_ paho.Client, msg paho.Message) {
	var cmd Command
	ack := Ack{Time: b.now()}
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		ack.Error = fmt.Sprintf("invalid command: %v", err)
		b.log.Warnf("mqtt: %s", ack.Error)
		b.sendAck(ack)
		return
	}
	ack.RequestID = cmd.RequestID
	ack.Action = cmd.Action
	a, err := station.ParseAction(cmd.Action)
	if err == nil {
		err = b.ctrl.Apply(a)
	}
	if err != nil {
		ack.Error = err.Error()
	} else {
		ack.Accepted = true
	}
	b.log.Debugw("mqtt command", map[string]any{"action": cmd.Action, "request_id": cmd.RequestID, "accepted": ack.Accepted})
	if rerr := b.rec.RecordAction(metrics.ActionEvent{
		StationID: b.stationID,
		Action:    cmd.Action,
		Source:    "mqtt",
		Accepted:  ack.Accepted,
		Error:     ack.Error,
		Time:      ack.Time,
	}); rerr != nil {
		b.log.Warnf("record action: %v", rerr)
	}
	b.sendAck(ack)
}

func (b *Bridge) sendAck(ack Ack) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.log.Errorf("marshal ack: %v", err)
		return
	}
	_ = b.publish(b.topics.Ack, b.cfg.qos("command"), false, payload)
}

// Run forwards events to the broker until ctx is done or events is closed.
// The last snapshot of every event is republished, retained, on the state
// topic.
func (b *Bridge) Run(ctx context.Context, events <-chan station.Event) {
	defer b.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			b.forward(ev)
		}
	}
}

func (b *Bridge) forward(ev station.Event) {
	if ev.Kind != station.EventState {
		payload, err := json.Marshal(ev)
		if err != nil {
			b.log.Errorf("marshal event: %v", err)
			return
		}
		_ = b.publish(b.topics.Events, b.cfg.qos("events"), false, payload)
	}
	b.publishState(ev.Snapshot)
}

func (b *Bridge) publishState(s station.Snapshot) {
	payload, err := json.Marshal(s)
	if err != nil {
		b.log.Errorf("marshal snapshot: %v", err)
		return
	}
	_ = b.publish(b.topics.State, b.cfg.qos("state"), true, payload)
}

// publish sends payload, retrying with a linear backoff.
func (b *Bridge) publish(topic string, qos byte, retained bool, payload []byte) error {
	var lastErr error
	for attempt := 1; attempt <= b.cfg.MaxRetries; attempt++ {
		tok := b.client.Publish(topic, qos, retained, payload)
		if tok.Wait() && tok.Error() == nil {
			return nil
		}
		lastErr = tok.Error()
		b.log.Warnf("publish %s attempt %d failed: %v", topic, attempt, lastErr)
		if attempt < b.cfg.MaxRetries {
			time.Sleep(time.Duration(attempt*b.cfg.BackoffMS) * time.Millisecond)
		}
	}
	err := fmt.Errorf("publish %s: %w", topic, lastErr)
	monitoring.CaptureException(err, map[string]string{"module": "mqtt", "topic": topic})
	return err
}

// Close marks the station offline and disconnects. It is safe to call more
// than once.
func (b *Bridge) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	if b.client.IsConnected() {
		_ = b.publish(b.topics.Status, b.cfg.qos("status"), true, []byte(statusOffline))
	}
	b.client.Disconnect(250)
}
