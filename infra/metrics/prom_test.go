package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/swapstation/core/metrics"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, s.RecordStationSample(coremetrics.StationSample{StationID: "bmh-1", ActivePct: 64, HubPct: 30, SwapInProgress: true, TotalSwaps: 1}))
	assert.Equal(t, 64.0, testutil.ToFloat64(s.active.WithLabelValues("bmh-1")))
	assert.Equal(t, 30.0, testutil.ToFloat64(s.hub.WithLabelValues("bmh-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.inSwap.WithLabelValues("bmh-1")))
	assert.Equal(t, 0.0, testutil.ToFloat64(s.faulted.WithLabelValues("bmh-1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.swapsDone.WithLabelValues("bmh-1")))

	require.NoError(t, s.RecordSwap(coremetrics.SwapEvent{StationID: "bmh-1", Path: "first", Outcome: "completed", Duration: 11 * time.Second}))
	require.NoError(t, s.RecordSwap(coremetrics.SwapEvent{StationID: "bmh-1", Path: "contested", Outcome: "fault", Duration: 7 * time.Second}))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.swaps.WithLabelValues("bmh-1", "first", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.swaps.WithLabelValues("bmh-1", "contested", "fault")))
	assert.Equal(t, 2, testutil.CollectAndCount(s.duration))

	require.NoError(t, s.RecordFault(coremetrics.FaultEvent{StationID: "bmh-1", Kind: "charging"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.faults.WithLabelValues("bmh-1", "charging")))

	require.NoError(t, s.RecordAction(coremetrics.ActionEvent{StationID: "bmh-1", Action: "reset", Source: "http", Accepted: true}))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.actions.WithLabelValues("bmh-1", "reset", "http", "true")))
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, a.RecordFault(coremetrics.FaultEvent{StationID: "bmh-1", Kind: "alignment"}))
	require.NoError(t, b.RecordFault(coremetrics.FaultEvent{StationID: "bmh-1", Kind: "alignment"}))
	assert.Equal(t, 2.0, testutil.ToFloat64(b.faults.WithLabelValues("bmh-1", "alignment")))
}

func TestFactoryRegistersBuiltins(t *testing.T) {
	names := coremetrics.Registered()
	assert.Contains(t, names, "nop")
	assert.Contains(t, names, "prometheus")
	assert.Contains(t, names, "influx")

	_, err := coremetrics.New([]coremetrics.SinkConfig{{Type: "influx", Conf: map[string]any{"org": "o"}}})
	assert.Error(t, err)

	s, err := coremetrics.New([]coremetrics.SinkConfig{{Type: "influx", Conf: map[string]any{"url": "http://127.0.0.1:1", "bucket": "b", "skip_health_check": "true"}}})
	require.NoError(t, err)
	_, ok := s.(*InfluxSink)
	assert.True(t, ok)
}
