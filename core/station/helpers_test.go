package station

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/swapstation/core/timeline"
)

var epoch = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

type fixedRandom struct {
	v     float64
	calls int
}

func (f *fixedRandom) Float64() float64 {
	f.calls++
	return f.v
}

type recordDisplay struct {
	active   []int
	hub      []int
	samples  []int
	logs     []string
	status   []string
	severity []Severity
	feedback []string
	battery  []BatteryStatus
	alerts   int
	alertErr error
}

func (d *recordDisplay) RenderActiveBattery(p int) { d.active = append(d.active, p) }
func (d *recordDisplay) RenderHubBattery(p int)    { d.hub = append(d.hub, p) }
func (d *recordDisplay) AppendHistorySample(p int) { d.samples = append(d.samples, p) }
func (d *recordDisplay) LogEvent(msg string)       { d.logs = append(d.logs, msg) }
func (d *recordDisplay) SetFeedback(msg string)    { d.feedback = append(d.feedback, msg) }

func (d *recordDisplay) RenderBatteryStatus(b BatteryStatus, _ Health) {
	d.battery = append(d.battery, b)
}

func (d *recordDisplay) SetStatusText(label string, sev Severity) {
	d.status = append(d.status, label)
	d.severity = append(d.severity, sev)
}

func (d *recordDisplay) PlayFaultAlert() error {
	d.alerts++
	return d.alertErr
}

func (d *recordDisplay) lastStatus() string {
	if len(d.status) == 0 {
		return ""
	}
	return d.status[len(d.status)-1]
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Publish(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) kinds(k EventKind) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	c   *Controller
	tl  *timeline.Virtual
	d   *recordDisplay
	ev  *eventLog
	rnd *fixedRandom
}

func newHarness(t *testing.T, cfg Config, coin float64) *harness {
	t.Helper()
	h := &harness{
		tl:  timeline.NewVirtual(epoch),
		d:   &recordDisplay{},
		ev:  &eventLog{},
		rnd: &fixedRandom{v: coin},
	}
	c, err := New(cfg, Options{Timeline: h.tl, Display: h.d, Random: h.rnd, Publisher: h.ev})
	require.NoError(t, err)
	h.c = c
	return h
}

// advance moves the virtual clock in small steps so that ramp ticks
// interleave the way they would on a wall clock.
func (h *harness) advance(d time.Duration) {
	const step = 100 * time.Millisecond
	for d > step {
		h.tl.Advance(step)
		d -= step
	}
	h.tl.Advance(d)
}

// completeFirstSwap runs the guaranteed first swap to the end of its hub
// charge and leaves the clock 11.5s after initiation.
func (h *harness) completeFirstSwap(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.InitiateSwap())
	h.advance(11500 * time.Millisecond)
	s := h.c.Snapshot()
	require.False(t, s.SwapInProgress)
	require.Equal(t, 1, s.TotalSwaps)
}

// stable drops the fields that move with the clock.
func stable(s Snapshot) Snapshot {
	s.Time = time.Time{}
	s.Uptime = 0
	return s
}

var errNoSpeaker = errors.New("no audio device")
