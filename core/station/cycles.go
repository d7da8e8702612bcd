package station

import (
	"fmt"
	"time"

	"github.com/kilianp07/swapstation/core/timeline"
)

// task is a scheduled callback bound to the controller lock. Once stopped it
// never runs again, even if its timer already fired and is waiting for the
// lock.
type task struct {
	timer   timeline.Timer
	stopped bool
}

func (t *task) stop() {
	if t == nil {
		return
	}
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}

// every and after must be called with c.mu held.

func (c *Controller) every(d time.Duration, fn func()) *task {
	t := &task{}
	t.timer = c.tl.Every(d, c.guard(t, fn))
	return t
}

func (c *Controller) after(d time.Duration, fn func()) *task {
	t := &task{}
	t.timer = c.tl.AfterFunc(d, c.guard(t, fn))
	return t
}

func (c *Controller) guard(t *task, fn func()) func() {
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if t.stopped {
			return
		}
		fn()
	}
}

// startCharging ramps the hub battery to 100% in total, whatever its current
// level, then calls onDone.
func (c *Controller) startCharging(total time.Duration, onDone func()) {
	c.stopCharging()
	r := Ramp{Direction: Up, Step: c.cfg.ChargeStepPct, Bound: 100}
	r.Interval = TickInterval(r.Bound-c.st.hubPct, r.Step, total)
	if r.Interval <= 0 {
		onDone()
		return
	}
	c.st.charging = true
	c.charging = c.every(r.Interval, func() {
		v, done := r.Next(c.st.hubPct)
		c.setHub(v)
		if done {
			c.stopCharging()
			onDone()
		}
		c.emit(EventState, "")
	})
}

func (c *Controller) stopCharging() {
	c.charging.stop()
	c.charging = nil
	c.st.charging = false
}

// startDepletion drains the AGV battery one point per tick down to the
// floor. It does nothing while depletion already runs or the AGV is homing.
func (c *Controller) startDepletion() {
	if c.st.depleting || c.st.homing {
		return
	}
	c.st.depleting = true
	c.batteryStatus(BatteryInUse, c.st.health)
	c.logEvent("AGV battery is now being used and will deplete over time")
	c.feedback("AGV is operational. Battery depleting during use.")
	if c.st.firstSwapCompleted {
		c.logEvent("AGV operating at higher power. Battery depleting faster.")
	}
	r := Ramp{Direction: Down, Step: 1, Bound: c.cfg.FloorPct, Interval: c.cfg.DepletionPeriod(c.st.firstSwapCompleted)}
	c.depletion = c.every(r.Interval, func() { c.depletionTick(r) })
}

func (c *Controller) depletionTick(r Ramp) {
	v, done := r.Next(c.st.activePct)
	if v != c.st.activePct {
		c.setActive(v)
		c.sample()
		if v%10 == 0 {
			c.logEvent(fmt.Sprintf("AGV battery depleted to %d%%", v))
		}
		if v == c.cfg.LowBatteryPct {
			c.logEvent(fmt.Sprintf("WARNING: AGV battery level low (%d%%)", v))
			c.feedback("WARNING: Battery level low. Consider swapping soon.")
		}
	}
	if !done {
		c.emit(EventState, "")
		return
	}
	c.stopDepletion()
	c.logEvent(fmt.Sprintf("CRITICAL: AGV battery at minimum safe level (%d%%)", c.cfg.FloorPct))
	c.feedback("CRITICAL: Battery at minimum safe level. Swap required.")
	c.batteryStatus(BatteryCritical, c.st.health)
	c.log.Warnf("station %s: AGV battery at floor %d%%", c.cfg.ID, c.cfg.FloorPct)
	c.emit(EventCritical, "battery at minimum safe level")
}

func (c *Controller) stopDepletion() {
	c.depletion.stop()
	c.depletion = nil
	c.st.depleting = false
}

func (c *Controller) homingTick(r Ramp) {
	v, done := r.Next(c.st.activePct)
	if v != c.st.activePct {
		c.setActive(v)
		c.sample()
	}
	if !done {
		c.emit(EventState, "")
		return
	}
	c.stopHoming()
	c.st.docked = true
	c.logEvent("AGV homing completed. AGV docked at BMH.")
	c.feedback("AGV successfully docked at Battery Management Hub.")
	c.batteryStatus(BatteryDocked, c.st.health)
	c.emit(EventHomingCompleted, "docked")
}

func (c *Controller) stopHoming() {
	c.homing.stop()
	c.homing = nil
	c.st.homing = false
}
