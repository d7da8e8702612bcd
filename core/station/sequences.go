package station

import (
	"fmt"
	"time"
)

// SwapPath names the sequence a swap request runs.
type SwapPath string

const (
	// PathFirst is the guaranteed first swap of a session.
	PathFirst SwapPath = "first"
	// PathContested is a normal-mode swap after the first one. It always
	// ends in a simulated fault.
	PathContested SwapPath = "contested"
	// PathManual exchanges both batteries under operator override.
	PathManual SwapPath = "manual"
	// PathAlignment calibrates the alignment mechanism, then exchanges.
	PathAlignment SwapPath = "alignment"
)

func (p SwapPath) String() string { return string(p) }

// sequence is one running swap. Cancelling it drops every stage that has
// not run yet.
type sequence struct {
	id        string
	path      SwapPath
	fault     FaultKind
	cancelled bool
	pending   *task
}

// stage runs after delay has elapsed since the previous stage ran.
type stage struct {
	delay time.Duration
	run   func()
}

func (c *Controller) choosePath() SwapPath {
	switch {
	case c.st.mode == ModeAlignment:
		return PathAlignment
	case c.st.mode == ModeManual:
		return PathManual
	case c.st.firstSwapCompleted:
		return PathContested
	default:
		return PathFirst
	}
}

func (c *Controller) stagesFor(seq *sequence) []stage {
	switch seq.path {
	case PathAlignment:
		return c.alignmentStages(seq)
	case PathManual:
		return c.manualStages(seq)
	case PathContested:
		return c.contestedStages(seq)
	default:
		return c.firstStages(seq)
	}
}

// runStages executes stages strictly in order. Each stage is scheduled only
// once the previous one has run; zero-delay stages run inline.
func (c *Controller) runStages(seq *sequence, stages []stage) {
	for len(stages) > 0 && stages[0].delay <= 0 {
		if !c.current(seq) {
			return
		}
		stages[0].run()
		stages = stages[1:]
	}
	if len(stages) == 0 || !c.current(seq) {
		return
	}
	s, rest := stages[0], stages[1:]
	seq.pending = c.after(s.delay, func() {
		seq.pending = nil
		if !c.current(seq) {
			return
		}
		s.run()
		c.emitSwap(EventState, seq, "")
		c.runStages(seq, rest)
	})
}

func (c *Controller) current(seq *sequence) bool {
	return !seq.cancelled && c.seq == seq
}

func (c *Controller) cancelSequence() {
	if c.seq == nil {
		return
	}
	c.seq.cancelled = true
	c.seq.pending.stop()
	c.seq = nil
}

func (c *Controller) detected() string {
	return fmt.Sprintf("Battery detected: %s (%s) at %d%%", c.cfg.BatteryType, c.cfg.BatteryVoltage, c.st.activePct)
}

func (c *Controller) firstStages(seq *sequence) []stage {
	return []stage{
		{0, func() {
			c.feedback("Communicating with central computer...")
		}},
		{time.Second, func() {
			c.feedback("Detecting battery...")
			c.logEvent("Detecting battery type and parameters")
		}},
		{2 * time.Second, func() {
			c.logEvent(c.detected())
			c.feedback("Battery detected, preparing for swap...")
		}},
		{2 * time.Second, func() {
			c.feedback("Battery swap in progress...")
			c.logEvent("Swapping batteries between AGV and BMH")
			c.setActive(100)
			c.setHub(c.cfg.FirstSwapHubPct)
			c.sample()
			c.batteryStatus(BatteryFullyCharged, HealthGood)
		}},
		{time.Second, func() {
			c.logEvent("Battery swap completed successfully")
			c.feedback("Battery swap successful! Charging depleted battery...")
			c.beginOperation()
			c.startCharging(ms(c.cfg.StandardChargeMS), func() {
				c.logEvent("BMH battery fully charged")
				c.feedback("All batteries fully charged")
				c.finishSwap(seq)
			})
		}},
	}
}

func (c *Controller) contestedStages(seq *sequence) []stage {
	return []stage{
		{0, func() {
			c.feedback("Communicating with central computer...")
		}},
		{time.Second, func() {
			c.feedback("Detecting battery...")
			c.logEvent("Detecting battery type and parameters")
		}},
		{2 * time.Second, func() {
			c.logEvent(c.detected())
			c.feedback("Battery detected, preparing for swap...")
		}},
		{2 * time.Second, func() {
			c.feedback("Battery swap in progress...")
			c.logEvent("Attempting to swap batteries between AGV and BMH")
			seq.fault = pickFault(c.rng)
		}},
		{2 * time.Second, func() {
			c.revealFault(seq)
		}},
	}
}

// revealFault latches the fault drawn for seq. The swap stays in progress
// until the operator recovers; the AGV keeps draining its battery.
func (c *Controller) revealFault(seq *sequence) {
	if !c.st.depleting && c.st.activePct > c.cfg.FloorPct {
		c.startDepletion()
	}
	c.st.hasError = true
	c.st.lastError = seq.fault
	var msg string
	switch seq.fault {
	case FaultAlignment:
		msg = "Battery alignment mechanism failure"
		c.logEvent("ERROR: Battery alignment mechanism failure detected")
		c.feedback("ERROR: Battery alignment mechanism failure. Swap aborted.")
		c.batteryStatus(BatteryAlignmentError, HealthCheckRequired)
	default:
		msg = "Electric charging circuit failure"
		c.logEvent("ERROR: Electric charging circuit failure detected")
		c.feedback("ERROR: Electric charging circuit failure. Swap aborted.")
		c.batteryStatus(BatteryChargingError, HealthCheckRequired)
	}
	c.status("ERROR", SeverityDanger)
	if err := c.display.PlayFaultAlert(); err != nil {
		c.log.Warnf("fault alert: %v", err)
	}
	c.logEvent("AGV continues to operate with current battery")
	c.log.Warnf("station %s: swap %s faulted: %s", c.cfg.ID, seq.id, seq.fault)
	c.emitSwap(EventFault, seq, msg)
}

func (c *Controller) manualStages(seq *sequence) []stage {
	return []stage{
		{0, func() {
			c.stopDepletion()
			c.feedback("Communicating with central computer...")
		}},
		{time.Second, func() {
			c.feedback("Detecting battery...")
			c.logEvent("Detecting battery type and parameters in manual mode")
		}},
		{time.Second, func() {
			c.logEvent(c.detected())
			c.feedback("Battery detected, preparing for manual swap...")
		}},
		{time.Second, func() {
			c.feedback("Manual battery swap in progress...")
			c.logEvent("Manual override: Swapping batteries between AGV and BMH")
			c.exchange()
			c.logEvent(fmt.Sprintf("Manual swap: AGV battery now at %d%%, BMH battery now at %d%%", c.st.activePct, c.st.hubPct))
			c.feedback("Battery levels swapped. Charging BMH battery to 100%...")
			c.beginOperation()
			c.startCharging(ms(c.cfg.ManualChargeMS), func() {
				c.logEvent("Manual battery swap and charging completed successfully")
				c.feedback("Manual swap successful! BMH battery charged to 100%.")
				if c.st.mode == ModeManual {
					c.st.mode = ModeNormal
				}
				c.finishSwap(seq)
			})
		}},
	}
}

func (c *Controller) alignmentStages(seq *sequence) []stage {
	stages := []stage{
		{0, func() {
			c.stopDepletion()
			c.feedback("Communicating with central computer...")
		}},
		{time.Second, func() {
			c.feedback("Detecting alignment mechanism...")
			c.logEvent("Detecting alignment mechanism parameters")
		}},
		{time.Second, func() {
			c.logEvent("Alignment mechanism detected, starting calibration")
			c.feedback("Alignment mechanism detected, starting calibration...")
		}},
		{time.Second, func() {
			c.feedback("Mechanism calibrating in progress...")
			c.logEvent("Calibrating battery alignment mechanism")
		}},
	}
	for p := 20; p <= 100; p += 20 {
		p := p
		stages = append(stages, stage{time.Second, func() {
			c.feedback(fmt.Sprintf("Mechanism calibrating: %d%% complete...", p))
			if p < 100 {
				return
			}
			c.logEvent("Alignment calibration completed successfully")
			c.feedback("Alignment calibration successful! Proceeding with battery swap...")
			if c.st.mode == ModeAlignment {
				c.st.mode = ModeNormal
			}
		}})
	}
	return append(stages, stage{time.Second, func() {
		c.logEvent("Swapping batteries between AGV and BMH after successful calibration")
		c.feedback("Battery swap in progress...")
		c.exchange()
		c.logEvent("Battery swap completed successfully")
		c.feedback("Battery swap successful! Charging depleted battery...")
		c.beginOperation()
		c.startCharging(ms(c.cfg.StandardChargeMS), func() {
			c.logEvent("BMH battery fully charged")
			c.feedback("All batteries fully charged")
			c.finishSwap(seq)
		})
	}})
}

// exchange trades the AGV and hub battery levels.
func (c *Controller) exchange() {
	agv := c.st.activePct
	c.setActive(c.st.hubPct)
	c.setHub(agv)
	c.sample()
}

// beginOperation puts the AGV back to work on its fresh battery.
func (c *Controller) beginOperation() {
	c.st.firstSwapCompleted = true
	c.st.docked = false
	c.logEvent("AGV is now operational. Battery will deplete during charging process.")
	c.batteryStatus(BatteryInUse, HealthGood)
	c.startDepletion()
}

// finishSwap closes a swap once the hub battery is charged again.
func (c *Controller) finishSwap(seq *sequence) {
	if !c.current(seq) {
		return
	}
	c.seq = nil
	c.st.swapInProgress = false
	c.st.hasError = false
	c.st.totalSwaps++
	c.st.lastSwap = c.tl.Now()
	c.status("Standby", SeverityNeutral)
	c.log.Infof("station %s: swap %s (%s) completed, total %d", c.cfg.ID, seq.id, seq.path, c.st.totalSwaps)
	c.emitSwap(EventSwapCompleted, seq, "")
}
