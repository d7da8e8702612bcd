package station

import "time"

// Direction of a ramp.
type Direction int

const (
	Up Direction = iota
	Down
)

// Ramp moves a percentage by Step per tick towards Bound: a ceiling when
// ramping up, a floor when ramping down.
type Ramp struct {
	Direction Direction
	Step      int
	Bound     int
	Interval  time.Duration
}

// Next returns the value after one tick and whether the bound is reached.
// Overshoot is clamped to the bound; a value already at or past the bound is
// returned unchanged.
func (r Ramp) Next(v int) (int, bool) {
	switch r.Direction {
	case Up:
		if v >= r.Bound {
			return v, true
		}
		v += r.Step
		if v >= r.Bound {
			return r.Bound, true
		}
		return v, false
	default:
		if v <= r.Bound {
			return v, true
		}
		v -= r.Step
		if v <= r.Bound {
			return r.Bound, true
		}
		return v, false
	}
}

// TicksRequired returns the number of steps needed to cover distance.
func TicksRequired(distance, step int) int {
	if distance <= 0 || step <= 0 {
		return 0
	}
	return (distance + step - 1) / step
}

// TickInterval spreads total evenly over the ticks needed to cover distance,
// so a ramp takes the same time whatever its starting point. It returns zero
// when there is nothing to cover.
func TickInterval(distance, step int, total time.Duration) time.Duration {
	n := TicksRequired(distance, step)
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}
