package trend

import (
	"math"
	"testing"
	"time"
)

func TestAnalyzeEmpty(t *testing.T) {
	if s := Analyze(nil, time.Second, 5); s.Samples != 0 {
		t.Fatalf("expected empty summary, got %+v", s)
	}
}

func TestAnalyzeFlat(t *testing.T) {
	s := Analyze([]int{35, 35, 35, 35}, time.Second, 5)
	if s.Mean != 35 || s.Min != 35 || s.Max != 35 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if s.Slope != 0 || s.TimeToFloor != 0 || s.StdDev != 0 {
		t.Fatalf("flat history should not trend: %+v", s)
	}
}

func TestAnalyzeDeclining(t *testing.T) {
	samples := []int{100, 99, 98, 97, 96, 95}
	s := Analyze(samples, time.Second, 5)
	if math.Abs(s.Slope+1) > 1e-9 {
		t.Fatalf("expected slope -1, got %v", s.Slope)
	}
	if math.Abs(s.SlopePerMinute+60) > 1e-6 {
		t.Fatalf("expected -60/min, got %v", s.SlopePerMinute)
	}
	if s.TimeToFloor != 90*time.Second {
		t.Fatalf("expected 90s to floor, got %v", s.TimeToFloor)
	}
	if s.Latest != 95 || s.Min != 95 || s.Max != 100 {
		t.Fatalf("unexpected extremes %+v", s)
	}
	if math.Abs(s.Mean-97.5) > 1e-9 {
		t.Fatalf("expected mean 97.5, got %v", s.Mean)
	}
}

func TestAnalyzeRising(t *testing.T) {
	s := Analyze([]int{30, 32, 34, 36}, 500*time.Millisecond, 5)
	if s.Slope <= 0 {
		t.Fatalf("expected positive slope, got %v", s.Slope)
	}
	if s.TimeToFloor != 0 {
		t.Fatalf("rising battery has no time to floor, got %v", s.TimeToFloor)
	}
}
