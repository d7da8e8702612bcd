package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/swapstation/core/metrics"
	"github.com/kilianp07/swapstation/core/monitoring"
	"github.com/kilianp07/swapstation/core/station"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockClient implements pahoClient for tests
type mockClient struct {
	mu          sync.Mutex
	opts        *paho.ClientOptions
	handlers    map[string]paho.MessageHandler
	subscribed  map[string]byte
	published   []published
	publishErrs []error
	connectErr  error
	connected   bool
}

func newMock() *mockClient {
	return &mockClient{handlers: map[string]paho.MessageHandler{}, subscribed: map[string]byte{}}
}

func (m *mockClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockClient) Connect() paho.Token {
	if m.connectErr != nil {
		return &dummyToken{err: m.connectErr}
	}
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{}
}

func (m *mockClient) Disconnect(uint) {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
}

func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, published{topic, qos, retained, payload.([]byte)})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

func (m *mockClient) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed[topic] = qos
	m.handlers[topic] = cb
	return &dummyToken{}
}

func (m *mockClient) deliver(topic string, payload string) {
	m.mu.Lock()
	h := m.handlers[topic]
	m.mu.Unlock()
	h(nil, mockMessage{topic: topic, p: []byte(payload)})
}

func (m *mockClient) on(topic string) []published {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []published
	for _, p := range m.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct {
	topic string
	p     []byte
}

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return m.topic }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}

type fakeController struct {
	mu      sync.Mutex
	applied []station.Action
	reject  map[station.Action]error
}

func (f *fakeController) Apply(a station.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, a)
	return f.reject[a]
}

func (f *fakeController) Snapshot() station.Snapshot {
	return station.Snapshot{StationID: "s1", ActivePct: 60, HubPct: 100}
}

type actionLog struct {
	mu     sync.Mutex
	events []metrics.ActionEvent
}

func (a *actionLog) RecordAction(ev metrics.ActionEvent) error {
	a.mu.Lock()
	a.events = append(a.events, ev)
	a.mu.Unlock()
	return nil
}

type captureMonitor struct {
	mu   sync.Mutex
	errs []error
	tags []map[string]string
}

func (c *captureMonitor) CaptureException(err error, tags map[string]string) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.tags = append(c.tags, tags)
	c.mu.Unlock()
}
func (c *captureMonitor) CapturePanic(any)    {}
func (c *captureMonitor) Flush(time.Duration) {}

func useMock(t *testing.T, mc *mockClient) {
	t.Helper()
	prev := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = prev })
}

func testConfig() Config {
	return Config{Enabled: true, Broker: "tcp://localhost:1883", ClientID: "id", BackoffMS: 1, QoS: map[string]byte{"command": 1, "state": 1}}
}

func TestBridgeSubscribesAndAnnounces(t *testing.T) {
	mc := newMock()
	useMock(t, mc)
	b, err := NewBridge(testConfig(), "s1", &fakeController{})
	require.NoError(t, err)

	assert.Equal(t, byte(1), mc.subscribed["bmh/s1/command"])
	status := mc.on(b.Topics().Status)
	require.Len(t, status, 1)
	assert.Equal(t, statusOnline, string(status[0].payload))
	assert.True(t, status[0].retained)

	state := mc.on(b.Topics().State)
	require.Len(t, state, 1)
	assert.True(t, state[0].retained)
	assert.Equal(t, byte(1), state[0].qos)
	var snap station.Snapshot
	require.NoError(t, json.Unmarshal(state[0].payload, &snap))
	assert.Equal(t, 60, snap.ActivePct)
}

func TestBridgeConnectError(t *testing.T) {
	mc := newMock()
	mc.connectErr = errors.New("refused")
	useMock(t, mc)
	mon := &captureMonitor{}
	monitoring.Init(mon)
	t.Cleanup(func() { monitoring.Init(monitoring.NopMonitor{}) })

	_, err := NewBridge(testConfig(), "s1", &fakeController{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
	require.Len(t, mon.errs, 1)
	assert.Equal(t, "mqtt", mon.tags[0]["module"])
}

func TestBridgeRejectsInvalidConfig(t *testing.T) {
	_, err := NewBridge(Config{Enabled: true}, "s1", &fakeController{})
	require.Error(t, err)
}

func TestBridgeAppliesCommands(t *testing.T) {
	mc := newMock()
	useMock(t, mc)
	ctrl := &fakeController{reject: map[station.Action]error{station.ActionEmergencyStop: station.ErrNothingToStop}}
	rec := &actionLog{}
	b, err := NewBridge(testConfig(), "s1", ctrl, WithActionRecorder(rec))
	require.NoError(t, err)

	mc.deliver(b.Topics().Command, `{"action":"initiate-swap","request_id":"r1"}`)
	mc.deliver(b.Topics().Command, `{"action":"emergency_stop","request_id":"r2"}`)
	mc.deliver(b.Topics().Command, `{"action":"self_destruct","request_id":"r3"}`)

	assert.Equal(t, []station.Action{station.ActionInitiateSwap, station.ActionEmergencyStop}, ctrl.applied)

	acks := mc.on(b.Topics().Ack)
	require.Len(t, acks, 3)
	var got []Ack
	for _, p := range acks {
		var a Ack
		require.NoError(t, json.Unmarshal(p.payload, &a))
		got = append(got, a)
	}
	assert.True(t, got[0].Accepted)
	assert.Equal(t, "r1", got[0].RequestID)
	assert.False(t, got[1].Accepted)
	assert.Contains(t, got[1].Error, station.ErrNothingToStop.Error())
	assert.False(t, got[2].Accepted)
	assert.Contains(t, got[2].Error, "unknown action")

	require.Len(t, rec.events, 3)
	assert.Equal(t, "mqtt", rec.events[0].Source)
	assert.True(t, rec.events[0].Accepted)
	assert.False(t, rec.events[2].Accepted)
}

func TestBridgeInvalidPayload(t *testing.T) {
	mc := newMock()
	useMock(t, mc)
	ctrl := &fakeController{}
	b, err := NewBridge(testConfig(), "s1", ctrl)
	require.NoError(t, err)

	mc.deliver(b.Topics().Command, `not json`)
	assert.Empty(t, ctrl.applied)
	acks := mc.on(b.Topics().Ack)
	require.Len(t, acks, 1)
	assert.Contains(t, string(acks[0].payload), "invalid command")
}

func TestBridgeRunForwardsEvents(t *testing.T) {
	mc := newMock()
	useMock(t, mc)
	b, err := NewBridge(testConfig(), "s1", &fakeController{})
	require.NoError(t, err)

	events := make(chan station.Event, 4)
	events <- station.Event{Kind: station.EventState, Snapshot: station.Snapshot{ActivePct: 59}}
	events <- station.Event{Kind: station.EventFault, Fault: station.FaultAlignment, Snapshot: station.Snapshot{ActivePct: 58, HasError: true}}
	close(events)

	b.Run(context.Background(), events)

	ev := mc.on(b.Topics().Events)
	require.Len(t, ev, 1)
	var got station.Event
	require.NoError(t, json.Unmarshal(ev[0].payload, &got))
	assert.Equal(t, station.EventFault, got.Kind)
	assert.Equal(t, station.FaultAlignment, got.Fault)

	// initial snapshot plus one per event
	assert.Len(t, mc.on(b.Topics().State), 3)

	status := mc.on(b.Topics().Status)
	require.Len(t, status, 2)
	assert.Equal(t, statusOffline, string(status[1].payload))
	assert.False(t, mc.IsConnected())
}

func TestBridgeRunStopsOnContext(t *testing.T) {
	mc := newMock()
	useMock(t, mc)
	b, err := NewBridge(testConfig(), "s1", &fakeController{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx, make(chan station.Event))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	b.Close()
	assert.Len(t, mc.on(b.Topics().Status), 2)
}

func TestPublishRetries(t *testing.T) {
	mc := newMock()
	useMock(t, mc)
	b, err := NewBridge(testConfig(), "s1", &fakeController{})
	require.NoError(t, err)

	mc.publishErrs = []error{fmt.Errorf("net fail"), nil}
	require.NoError(t, b.publish("bmh/s1/events", 0, false, []byte("x")))
	assert.Len(t, mc.on("bmh/s1/events"), 2)
}

func TestPublishGivesUp(t *testing.T) {
	mc := newMock()
	useMock(t, mc)
	mon := &captureMonitor{}
	monitoring.Init(mon)
	t.Cleanup(func() { monitoring.Init(monitoring.NopMonitor{}) })
	cfg := testConfig()
	cfg.MaxRetries = 2
	b, err := NewBridge(cfg, "s1", &fakeController{})
	require.NoError(t, err)

	fail := errors.New("net fail")
	mc.publishErrs = []error{fail, fail}
	err = b.publish("bmh/s1/events", 0, false, []byte("x"))
	require.ErrorIs(t, err, fail)
	assert.Len(t, mc.on("bmh/s1/events"), 2)
	require.Len(t, mon.errs, 1)
	assert.Equal(t, "bmh/s1/events", mon.tags[0]["topic"])
}
