package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/swapstation/core/metrics"
)

// PromSink records station activity in Prometheus metrics.
type PromSink struct {
	active    *prometheus.GaugeVec
	hub       *prometheus.GaugeVec
	inSwap    *prometheus.GaugeVec
	faulted   *prometheus.GaugeVec
	swapsDone *prometheus.GaugeVec
	swaps     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	faults    *prometheus.CounterVec
	actions   *prometheus.CounterVec
}

// NewPromSink registers station metrics on the default Prometheus registerer.
// The scrape endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, []string{"station_id"})
	}
	s := &PromSink{
		active:    gauge("bmh_active_battery_percent", "Charge of the battery installed in the AGV"),
		hub:       gauge("bmh_hub_battery_percent", "Charge of the battery held by the hub"),
		inSwap:    gauge("bmh_swap_in_progress", "1 while a swap sequence runs"),
		faulted:   gauge("bmh_fault_active", "1 while a swap fault is latched"),
		swapsDone: gauge("bmh_completed_swaps", "Completed swaps since start or reset"),
		swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bmh_swaps_total",
			Help: "Swap attempts by path and outcome",
		}, []string{"station_id", "path", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bmh_swap_duration_seconds",
			Help:    "Time from swap initiation to its outcome",
			Buckets: []float64{1, 2, 5, 7, 10, 12, 15, 20, 30},
		}, []string{"station_id", "path", "outcome"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bmh_faults_total",
			Help: "Simulated swap faults by kind",
		}, []string{"station_id", "kind"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bmh_operator_actions_total",
			Help: "Operator triggers by action, source and acceptance",
		}, []string{"station_id", "action", "source", "accepted"}),
	}
	var err error
	for _, g := range []**prometheus.GaugeVec{&s.active, &s.hub, &s.inSwap, &s.faulted, &s.swapsDone} {
		if *g, err = register(reg, *g); err != nil {
			return nil, err
		}
	}
	if s.swaps, err = register(reg, s.swaps); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.faults, err = register(reg, s.faults); err != nil {
		return nil, err
	}
	if s.actions, err = register(reg, s.actions); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordStationSample updates the station gauges.
func (s *PromSink) RecordStationSample(m coremetrics.StationSample) error {
	s.active.WithLabelValues(m.StationID).Set(float64(m.ActivePct))
	s.hub.WithLabelValues(m.StationID).Set(float64(m.HubPct))
	s.inSwap.WithLabelValues(m.StationID).Set(boolGauge(m.SwapInProgress))
	s.faulted.WithLabelValues(m.StationID).Set(boolGauge(m.HasError))
	s.swapsDone.WithLabelValues(m.StationID).Set(float64(m.TotalSwaps))
	return nil
}

// RecordSwap counts the swap outcome and observes its duration.
func (s *PromSink) RecordSwap(ev coremetrics.SwapEvent) error {
	s.swaps.WithLabelValues(ev.StationID, ev.Path, ev.Outcome).Inc()
	if ev.Duration > 0 {
		s.duration.WithLabelValues(ev.StationID, ev.Path, ev.Outcome).Observe(ev.Duration.Seconds())
	}
	return nil
}

// RecordFault counts a latched fault.
func (s *PromSink) RecordFault(ev coremetrics.FaultEvent) error {
	s.faults.WithLabelValues(ev.StationID, ev.Kind).Inc()
	return nil
}

// RecordAction counts an operator trigger.
func (s *PromSink) RecordAction(ev coremetrics.ActionEvent) error {
	s.actions.WithLabelValues(ev.StationID, ev.Action, ev.Source, strconv.FormatBool(ev.Accepted)).Inc()
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
