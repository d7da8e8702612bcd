package station

import (
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/swapstation/core/logger"
	"github.com/kilianp07/swapstation/core/timeline"
)

// Options carries the collaborators of a Controller. Nil fields get
// defaults: wall-clock timeline, NopDisplay, a source seeded from
// Config.Seed, no publisher and a silent logger.
type Options struct {
	Timeline  timeline.Timeline
	Display   Display
	Random    RandomSource
	Publisher Publisher
	Logger    logger.Logger
}

// Controller owns the station state and runs every timed sequence. All
// operator triggers and timer callbacks take the same lock, so mutations
// never interleave.
type Controller struct {
	mu      sync.Mutex
	cfg     Config
	tl      timeline.Timeline
	display Display
	rng     RandomSource
	pub     Publisher
	log     logger.Logger
	started time.Time

	st state

	depletion *task
	charging  *task
	homing    *task
	standby   *task
	seq       *sequence
}

// New creates a controller in its initial state: AGV battery at
// cfg.InitialActivePct, hub battery full, nothing running.
func New(cfg Config, opts Options) (*Controller, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("station config: %w", err)
	}
	c := &Controller{
		cfg:     cfg,
		tl:      opts.Timeline,
		display: opts.Display,
		rng:     opts.Random,
		pub:     opts.Publisher,
		log:     opts.Logger,
	}
	if c.tl == nil {
		c.tl = timeline.Wall{}
	}
	if c.display == nil {
		c.display = NopDisplay{}
	}
	if c.rng == nil {
		c.rng = NewRandom(cfg.Seed)
	}
	if c.log == nil {
		c.log = nopLogger{}
	}
	c.started = c.tl.Now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.restore(cfg.InitialActivePct)
	c.logEvent("System initialized and ready")
	c.emit(EventState, "")
	return c, nil
}

// Config returns the effective configuration.
func (c *Controller) Config() Config { return c.cfg }

// Snapshot returns a consistent copy of the station state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// InitiateSwap starts the swap sequence selected by the current mode. It is
// rejected while a swap runs or a fault is latched.
func (c *Controller) InitiateSwap() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.swapInProgress {
		return ErrSwapInProgress
	}
	if c.st.hasError {
		return ErrFaultActive
	}
	if c.st.homing {
		c.stopHoming()
		c.logEvent("AGV homing interrupted, vehicle at BMH")
	}
	c.st.swapInProgress = true
	path := c.choosePath()
	seq := &sequence{id: newEventID(), path: path}
	c.seq = seq
	c.status("Active", SeverityNeutral)
	c.logEvent("Battery swap initiated")
	c.log.Debugw("swap initiated", map[string]any{"swap_id": seq.id, "path": path.String(), "active_pct": c.st.activePct})
	c.emitSwap(EventSwapStarted, seq, "")
	c.runStages(seq, c.stagesFor(seq))
	return nil
}

// EmergencyStop halts charging and abandons the running swap sequence. The
// AGV keeps consuming power: depletion is never stopped, and it is resumed
// if the vehicle carries a swapped battery above the floor.
func (c *Controller) EmergencyStop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.st.hasError && !c.st.charging && !c.st.swapInProgress {
		return ErrNothingToStop
	}
	c.stopCharging()
	c.cancelSequence()
	c.st.swapInProgress = false
	c.st.hasError = false
	c.status("Emergency Stop", SeverityWarning)
	c.logEvent("EMERGENCY STOP activated by operator")
	c.feedback("Emergency stop activated. Charging halted but AGV continues to operate.")
	if !c.st.depleting && c.st.firstSwapCompleted && c.st.activePct > c.cfg.FloorPct {
		c.batteryStatus(BatteryInUse, HealthGood)
		c.startDepletion()
	}
	c.logEvent("AGV continues to operate with current battery despite emergency stop")
	c.scheduleStandby()
	c.emit(EventEmergencyStop, "emergency stop")
	return nil
}

// ActivateManualMode arms the manual-change override and clears a latched
// fault. The next swap exchanges batteries unconditionally.
func (c *Controller) ActivateManualMode() {
	c.activateMode(ModeManual)
}

// ActivateAlignmentMode arms the alignment-calibration override and clears a
// latched fault. The next swap calibrates, then exchanges unconditionally.
func (c *Controller) ActivateAlignmentMode() {
	c.activateMode(ModeAlignment)
}

func (c *Controller) activateMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	faulted := c.st.hasError
	c.st.mode = m
	c.st.hasError = false
	if faulted && c.st.swapInProgress {
		// the faulted swap never completes on its own
		c.cancelSequence()
		c.st.swapInProgress = false
	}
	switch m {
	case ModeManual:
		if c.st.lastError == FaultCharging {
			c.logEvent("OPERATOR ACTION: Manual Change Mode activated to resolve charging error")
		} else {
			c.logEvent("OPERATOR ACTION: Manual Change Mode activated")
		}
		c.feedback("Manual mode activated. Ready for swap.")
		c.logEvent("Manual Change Mode enabled by operator")
	case ModeAlignment:
		if c.st.lastError == FaultAlignment {
			c.logEvent("OPERATOR ACTION: Alignment Adjustment Mode activated to resolve alignment error")
		} else {
			c.logEvent("OPERATOR ACTION: Alignment Adjustment Mode activated")
		}
		c.feedback("Alignment mode activated. Ready for calibration.")
		c.logEvent("Alignment Adjustment Mode enabled by operator")
	}
	if faulted {
		c.batteryStatus(c.st.battery, HealthGood)
		c.status("Standby", SeverityNeutral)
		c.emit(EventRecovered, m.String()+" mode activated")
		return
	}
	c.emit(EventState, "")
}

// StartHoming drives the AGV back to the hub. Depletion pauses while the
// vehicle travels; the battery drops one point per tick down to the homing
// target, after which the vehicle is docked.
func (c *Controller) StartHoming() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.st.swapInProgress {
		return ErrSwapInProgress
	}
	if c.st.homing {
		return ErrAlreadyHoming
	}
	c.stopDepletion()
	c.st.homing = true
	c.st.docked = false
	c.logEvent("AGV homing process initiated")
	c.feedback("AGV homing process initiated. Returning to BMH...")
	r := Ramp{Direction: Down, Step: 1, Bound: c.cfg.HomingTargetPct, Interval: ms(c.cfg.HomingTickMS)}
	c.homing = c.every(r.Interval, func() { c.homingTick(r) })
	c.emit(EventState, "")
	return nil
}

// Reset cancels every pending action and restores the reset defaults.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCharging()
	c.stopDepletion()
	c.stopHoming()
	c.cancelSequence()
	c.standby.stop()
	c.standby = nil
	c.restore(c.cfg.ResetActivePct)
	c.feedback("System reset, awaiting action...")
	c.logEvent("System reset")
	c.emit(EventReset, "system reset")
}

// restore rebuilds the default state around the given AGV level.
func (c *Controller) restore(activePct int) {
	h := NewHistory(c.cfg.HistorySize)
	h.Fill(activePct)
	c.st = state{history: h}
	c.setActive(activePct)
	c.setHub(100)
	c.batteryStatus(BatteryNotConnected, HealthGood)
	c.status("Standby", SeverityNeutral)
}

func (c *Controller) scheduleStandby() {
	c.standby.stop()
	c.standby = c.after(ms(c.cfg.StandbyDelayMS), func() {
		c.standby = nil
		c.status("Standby", SeverityNeutral)
		c.feedback("System ready for next operation. AGV battery continues to deplete.")
		c.emit(EventState, "")
	})
}

// snapshot must be called with c.mu held.
func (c *Controller) snapshot() Snapshot {
	now := c.tl.Now()
	return Snapshot{
		StationID:          c.cfg.ID,
		ActivePct:          c.st.activePct,
		HubPct:             c.st.hubPct,
		Mode:               c.st.mode,
		SwapInProgress:     c.st.swapInProgress,
		Depleting:          c.st.depleting,
		Charging:           c.st.charging,
		Homing:             c.st.homing,
		Docked:             c.st.docked,
		HasError:           c.st.hasError,
		LastError:          c.st.lastError,
		FirstSwapCompleted: c.st.firstSwapCompleted,
		TotalSwaps:         c.st.totalSwaps,
		LastSwap:           c.st.lastSwap,
		History:            c.st.history.Values(),
		BatteryType:        c.cfg.BatteryType,
		BatteryVoltage:     c.cfg.BatteryVoltage,
		BatteryStatus:      c.st.battery,
		Health:             c.st.health,
		StatusLabel:        c.st.statusLabel,
		StatusSeverity:     c.st.statusSeverity,
		Feedback:           c.st.feedback,
		Uptime:             now.Sub(c.started),
		Time:               now,
	}
}

// Output helpers. All of them expect c.mu to be held.

func (c *Controller) setActive(v int) {
	c.st.activePct = clampPct(v)
	c.display.RenderActiveBattery(c.st.activePct)
}

func (c *Controller) setHub(v int) {
	c.st.hubPct = clampPct(v)
	c.display.RenderHubBattery(c.st.hubPct)
}

func (c *Controller) sample() {
	c.st.history.Append(c.st.activePct)
	c.display.AppendHistorySample(c.st.activePct)
}

func (c *Controller) logEvent(msg string) {
	c.display.LogEvent(msg)
	c.log.Debugf("%s", msg)
}

func (c *Controller) status(label string, sev Severity) {
	c.st.statusLabel = label
	c.st.statusSeverity = sev
	c.display.SetStatusText(label, sev)
}

func (c *Controller) feedback(msg string) {
	c.st.feedback = msg
	if f, ok := c.display.(FeedbackRenderer); ok {
		f.SetFeedback(msg)
	}
}

func (c *Controller) batteryStatus(b BatteryStatus, h Health) {
	c.st.battery = b
	c.st.health = h
	if r, ok := c.display.(BatteryStatusRenderer); ok {
		r.RenderBatteryStatus(b, h)
	}
}

func (c *Controller) emit(kind EventKind, msg string) {
	if c.pub == nil {
		return
	}
	c.pub.Publish(Event{ID: newEventID(), Kind: kind, Time: c.tl.Now(), Message: msg, Snapshot: c.snapshot()})
}

func (c *Controller) emitSwap(kind EventKind, seq *sequence, msg string) {
	if c.pub == nil {
		return
	}
	c.pub.Publish(Event{
		ID:       newEventID(),
		Kind:     kind,
		Time:     c.tl.Now(),
		SwapID:   seq.id,
		Path:     seq.path,
		Fault:    seq.fault,
		Message:  msg,
		Snapshot: c.snapshot(),
	})
}

func clampPct(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
