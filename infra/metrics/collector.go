package metrics

import (
	"context"
	"sync"
	"time"

	coremetrics "github.com/kilianp07/swapstation/core/metrics"
	"github.com/kilianp07/swapstation/core/monitoring"
	"github.com/kilianp07/swapstation/core/station"
	"github.com/kilianp07/swapstation/infra/logger"
	"github.com/kilianp07/swapstation/internal/eventbus"
)

// Collector turns station events into sink records. Station samples from
// plain state events are throttled to one per interval; every other event
// is sampled.
type Collector struct {
	sink     coremetrics.Sink
	interval time.Duration
	log      logger.Logger

	mu         sync.Mutex
	started    map[string]startedSwap
	lastSample time.Time
}

type startedSwap struct {
	path string
	at   time.Time
}

// NewCollector creates a collector writing to sink.
func NewCollector(sink coremetrics.Sink, interval time.Duration, log logger.Logger) *Collector {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Collector{sink: sink, interval: interval, log: log, started: map[string]startedSwap{}}
}

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[station.Event], c *Collector) {
	if bus == nil || c == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				c.Handle(ev)
			}
		}
	}()
}

// Handle records a single event.
func (c *Collector) Handle(ev station.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := ev.Snapshot
	switch ev.Kind {
	case station.EventSwapStarted:
		c.started[ev.SwapID] = startedSwap{path: ev.Path.String(), at: ev.Time}
	case station.EventSwapCompleted:
		c.finish(ev.SwapID, ev.Path.String(), "completed", ev.Time, s.StationID)
	case station.EventFault:
		c.finish(ev.SwapID, ev.Path.String(), "fault", ev.Time, s.StationID)
		if r, ok := c.sink.(coremetrics.FaultRecorder); ok {
			c.check(r.RecordFault(coremetrics.FaultEvent{
				StationID: s.StationID,
				SwapID:    ev.SwapID,
				Kind:      ev.Fault.String(),
				Time:      ev.Time,
			}))
		}
	case station.EventEmergencyStop:
		c.abandon("stopped", ev.Time, s.StationID)
	case station.EventReset:
		c.abandon("reset", ev.Time, s.StationID)
	case station.EventState:
		if !c.lastSample.IsZero() && ev.Time.Sub(c.lastSample) < c.interval {
			return
		}
	}
	c.lastSample = ev.Time
	c.check(c.sink.RecordStationSample(SampleFromSnapshot(s)))
}

// finish records the outcome of a started swap. Unknown swaps still count,
// without a duration.
func (c *Collector) finish(id, path, outcome string, at time.Time, stationID string) {
	var d time.Duration
	if st, ok := c.started[id]; ok {
		d = at.Sub(st.at)
		path = st.path
		delete(c.started, id)
	}
	r, ok := c.sink.(coremetrics.SwapRecorder)
	if !ok {
		return
	}
	c.check(r.RecordSwap(coremetrics.SwapEvent{
		StationID: stationID,
		SwapID:    id,
		Path:      path,
		Outcome:   outcome,
		Duration:  d,
		Time:      at,
	}))
}

func (c *Collector) abandon(outcome string, at time.Time, stationID string) {
	for id := range c.started {
		c.finish(id, "", outcome, at, stationID)
	}
}

func (c *Collector) check(err error) {
	if err == nil {
		return
	}
	c.log.Warnf("metrics sink: %v", err)
	monitoring.CaptureException(err, map[string]string{"module": "metrics"})
}

// SampleFromSnapshot maps a station snapshot to a sink sample.
func SampleFromSnapshot(s station.Snapshot) coremetrics.StationSample {
	return coremetrics.StationSample{
		StationID:      s.StationID,
		ActivePct:      s.ActivePct,
		HubPct:         s.HubPct,
		Mode:           s.Mode.String(),
		SwapInProgress: s.SwapInProgress,
		Depleting:      s.Depleting,
		Charging:       s.Charging,
		Homing:         s.Homing,
		HasError:       s.HasError,
		TotalSwaps:     s.TotalSwaps,
		Time:           s.Time,
	}
}
