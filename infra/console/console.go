// Package console keeps the operator view of a station: gauges, status
// line, feedback line and the bounded event log shown on the served page.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kilianp07/swapstation/core/station"
	"github.com/kilianp07/swapstation/infra/logger"
)

// ErrNoAlertDevice is returned by PlayFaultAlert when no alert output is set.
var ErrNoAlertDevice = errors.New("no alert output configured")

// Entry is one line of the operator event log.
type Entry struct {
	Time    time.Time `json:"time"`
	Clock   string    `json:"clock"`
	Message string    `json:"message"`
}

// String renders the entry the way the log panel shows it.
func (e Entry) String() string { return "[" + e.Clock + "] " + e.Message }

// View is what the operator currently sees.
type View struct {
	ActivePct      int                   `json:"active_pct"`
	HubPct         int                   `json:"hub_pct"`
	Status         string                `json:"status"`
	Severity       station.Severity      `json:"severity"`
	Feedback       string                `json:"feedback"`
	BatteryStatus  station.BatteryStatus `json:"battery_status"`
	Health         station.Health        `json:"health"`
	Alerts         int                   `json:"alerts"`
	LastSampledPct int                   `json:"last_sampled_pct"`
}

// Options configures a Console.
type Options struct {
	// Size bounds the event log. Zero means 200 lines.
	Size int
	// Now stamps log lines. Nil means time.Now.
	Now func() time.Time
	// Alert receives a bell for every fault alert. Nil makes PlayFaultAlert
	// report ErrNoAlertDevice.
	Alert io.Writer
	Log   logger.Logger
}

// Console implements station.Display together with the optional battery
// status and feedback renderers.
type Console struct {
	mu      sync.RWMutex
	size    int
	now     func() time.Time
	alert   io.Writer
	log     logger.Logger
	entries []Entry
	view    View
}

// New creates a console.
func New(o Options) *Console {
	if o.Size <= 0 {
		o.Size = 200
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Log == nil {
		o.Log = logger.NopLogger{}
	}
	return &Console{size: o.Size, now: o.Now, alert: o.Alert, log: o.Log}
}

func (c *Console) RenderActiveBattery(pct int) {
	c.mu.Lock()
	c.view.ActivePct = pct
	c.mu.Unlock()
}

func (c *Console) RenderHubBattery(pct int) {
	c.mu.Lock()
	c.view.HubPct = pct
	c.mu.Unlock()
}

func (c *Console) AppendHistorySample(pct int) {
	c.mu.Lock()
	c.view.LastSampledPct = pct
	c.mu.Unlock()
}

// LogEvent appends a timestamped line, dropping the oldest once full.
func (c *Console) LogEvent(msg string) {
	t := c.now()
	e := Entry{Time: t, Clock: station.ClockTime(t), Message: msg}
	c.mu.Lock()
	if len(c.entries) == c.size {
		copy(c.entries, c.entries[1:])
		c.entries = c.entries[:c.size-1]
	}
	c.entries = append(c.entries, e)
	c.mu.Unlock()
	c.log.Infof("%s", e)
}

func (c *Console) SetStatusText(label string, sev station.Severity) {
	c.mu.Lock()
	c.view.Status = label
	c.view.Severity = sev
	c.mu.Unlock()
}

func (c *Console) SetFeedback(msg string) {
	c.mu.Lock()
	c.view.Feedback = msg
	c.mu.Unlock()
}

func (c *Console) RenderBatteryStatus(status station.BatteryStatus, health station.Health) {
	c.mu.Lock()
	c.view.BatteryStatus = status
	c.view.Health = health
	c.mu.Unlock()
}

// PlayFaultAlert rings the configured alert output.
func (c *Console) PlayFaultAlert() error {
	c.mu.Lock()
	c.view.Alerts++
	w := c.alert
	c.mu.Unlock()
	if w == nil {
		return ErrNoAlertDevice
	}
	if _, err := io.WriteString(w, "\a"); err != nil {
		return fmt.Errorf("fault alert: %w", err)
	}
	return nil
}

// Entries returns up to limit log lines, newest first. A limit of zero or
// less returns all of them.
func (c *Console) Entries(limit int) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := len(c.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, c.entries[i])
	}
	return out
}

// View returns the current operator view.
func (c *Console) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Render draws the view and the newest log lines as plain text.
func (c *Console) Render(lines int) string {
	v := c.View()
	var b strings.Builder
	fmt.Fprintf(&b, "AGV %3d%% %s | BMH %3d%% | %s | %s\n", v.ActivePct, bar(v.ActivePct), v.HubPct, v.BatteryStatus, v.Health)
	fmt.Fprintf(&b, "status: %s (%s)\n", v.Status, v.Severity)
	if v.Feedback != "" {
		fmt.Fprintf(&b, "> %s\n", v.Feedback)
	}
	for _, e := range c.Entries(lines) {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func bar(pct int) string {
	n := pct / 10
	return "[" + strings.Repeat("#", n) + strings.Repeat(".", 10-n) + "]"
}
