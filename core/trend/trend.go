// Package trend summarises the battery history shown on the trend graph.
package trend

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a window of battery samples.
type Summary struct {
	Samples int     `json:"samples"`
	Latest  int     `json:"latest"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"`
	// Slope is the least-squares change in percent per sample.
	Slope float64 `json:"slope_per_sample"`
	// SlopePerMinute is Slope scaled by the sampling tick.
	SlopePerMinute float64 `json:"slope_per_minute"`
	// TimeToFloor estimates when the battery reaches the floor at the
	// current slope. Zero when the level is not declining or already there.
	TimeToFloor time.Duration `json:"time_to_floor_ns"`
}

// Analyze fits a line through samples, oldest first, taken every tick.
func Analyze(samples []int, tick time.Duration, floor int) Summary {
	n := len(samples)
	if n == 0 {
		return Summary{}
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, v := range samples {
		xs[i] = float64(i)
		ys[i] = float64(v)
	}
	s := Summary{
		Samples: n,
		Latest:  samples[n-1],
		Min:     floats.Min(ys),
		Max:     floats.Max(ys),
	}
	s.Mean, s.StdDev = stat.MeanStdDev(ys, nil)
	if n < 2 || s.Min == s.Max {
		s.StdDev = 0
		return s
	}
	_, s.Slope = stat.LinearRegression(xs, ys, nil, false)
	if tick > 0 {
		s.SlopePerMinute = s.Slope * float64(time.Minute) / float64(tick)
	}
	above := float64(s.Latest - floor)
	if s.Slope < 0 && above > 0 && tick > 0 {
		ticks := math.Ceil(above / -s.Slope)
		s.TimeToFloor = time.Duration(ticks) * tick
	}
	return s
}
