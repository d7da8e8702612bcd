package scenarios

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/swapstation/core/station"
	"github.com/kilianp07/swapstation/core/timeline"
	"github.com/kilianp07/swapstation/infra/console"
)

// Epoch is the virtual start time of every scenario.
var Epoch = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

// tick is the clock granularity, so that interleaved ramps fire in the same
// order as on a wall clock.
const tick = 100 * time.Millisecond

// Result is the outcome of a scenario run.
type Result struct {
	Name     string
	Steps    int
	Elapsed  time.Duration
	Failures []string
	Final    station.Snapshot
	Console  *console.Console
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool { return len(r.Failures) == 0 }

type fixedCoin float64

func (f fixedCoin) Float64() float64 { return float64(f) }

// Run replays sc on a virtual clock. It returns an error only when the
// station cannot be built; failed expectations are listed in the result.
func Run(sc *Scenario) (Result, error) {
	tl := timeline.NewVirtual(Epoch)
	con := console.New(console.Options{Size: 1000, Now: tl.Now})
	var rnd station.RandomSource
	if sc.Coin != nil {
		rnd = fixedCoin(*sc.Coin)
	}
	ctrl, err := station.New(sc.Station, station.Options{Timeline: tl, Display: con, Random: rnd})
	if err != nil {
		return Result{}, err
	}
	defer ctrl.Reset()

	res := Result{Name: sc.Name, Console: con}
	var at time.Duration
	for i, st := range sc.Steps {
		target := at + st.After
		if st.At != nil {
			target = *st.At
		}
		advance(tl, target-at)
		at = target

		label := fmt.Sprintf("step %d (t=%s)", i+1, at)
		if st.Action != "" {
			label += " " + st.Action
			a, err := station.ParseAction(st.Action)
			if err == nil {
				err = ctrl.Apply(a)
			}
			switch {
			case st.Error == "" && err != nil:
				res.Failures = append(res.Failures, fmt.Sprintf("%s: unexpected error: %v", label, err))
			case st.Error != "" && err == nil:
				res.Failures = append(res.Failures, fmt.Sprintf("%s: expected error containing %q", label, st.Error))
			case st.Error != "" && !strings.Contains(err.Error(), st.Error):
				res.Failures = append(res.Failures, fmt.Sprintf("%s: error %q does not contain %q", label, err, st.Error))
			}
		}
		if st.Expect != nil {
			for _, f := range check(*st.Expect, ctrl.Snapshot(), con) {
				res.Failures = append(res.Failures, label+": "+f)
			}
		}
		res.Steps++
	}
	res.Elapsed = at
	res.Final = ctrl.Snapshot()
	return res, nil
}

func advance(tl *timeline.Virtual, d time.Duration) {
	for d > tick {
		tl.Advance(tick)
		d -= tick
	}
	if d > 0 {
		tl.Advance(d)
	}
}

func check(e Expect, s station.Snapshot, con *console.Console) []string {
	var out []string
	mismatch := func(field string, got, want any) {
		out = append(out, fmt.Sprintf("%s: got %v, want %v", field, got, want))
	}
	eqInt := func(field string, got int, want *int) {
		if want != nil && got != *want {
			mismatch(field, got, *want)
		}
	}
	eqBool := func(field string, got bool, want *bool) {
		if want != nil && got != *want {
			mismatch(field, got, *want)
		}
	}
	eqStr := func(field, got string, want *string) {
		if want != nil && !strings.EqualFold(got, *want) {
			mismatch(field, got, *want)
		}
	}
	eqInt("active_pct", s.ActivePct, e.ActivePct)
	if r := e.ActivePctRange; len(r) == 2 && (s.ActivePct < r[0] || s.ActivePct > r[1]) {
		mismatch("active_pct", s.ActivePct, fmt.Sprintf("within [%d,%d]", r[0], r[1]))
	}
	eqInt("hub_pct", s.HubPct, e.HubPct)
	eqStr("mode", s.Mode.String(), e.Mode)
	eqBool("swap_in_progress", s.SwapInProgress, e.SwapInProgress)
	eqBool("depleting", s.Depleting, e.Depleting)
	eqBool("charging", s.Charging, e.Charging)
	eqBool("homing", s.Homing, e.Homing)
	eqBool("docked", s.Docked, e.Docked)
	eqBool("has_error", s.HasError, e.HasError)
	eqStr("last_error", s.LastError.String(), e.LastError)
	eqInt("total_swaps", s.TotalSwaps, e.TotalSwaps)
	eqStr("status", s.StatusLabel, e.Status)
	eqStr("battery_status", s.BatteryStatus.String(), e.BatteryStatus)
	eqStr("health", s.Health.String(), e.Health)
	eqStr("feedback", s.Feedback, e.Feedback)
	if e.LogContains != "" && !logged(con, e.LogContains) {
		out = append(out, fmt.Sprintf("event log: no line contains %q", e.LogContains))
	}
	return out
}

func logged(con *console.Console, substr string) bool {
	for _, e := range con.Entries(0) {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}
