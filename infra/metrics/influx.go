package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/swapstation/core/metrics"
	"github.com/kilianp07/swapstation/infra/logger"
)

// InfluxSink writes station activity to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordStationSample writes a station_state point.
func (s *InfluxSink) RecordStationSample(m coremetrics.StationSample) error {
	p := write.NewPointWithMeasurement("station_state").
		AddTag("station_id", m.StationID).
		AddTag("mode", m.Mode).
		AddField("active_pct", m.ActivePct).
		AddField("hub_pct", m.HubPct).
		AddField("swap_in_progress", m.SwapInProgress).
		AddField("depleting", m.Depleting).
		AddField("charging", m.Charging).
		AddField("homing", m.Homing).
		AddField("has_error", m.HasError).
		AddField("total_swaps", m.TotalSwaps).
		SetTime(m.Time)
	return s.write(p)
}

// RecordSwap writes a swap outcome.
func (s *InfluxSink) RecordSwap(ev coremetrics.SwapEvent) error {
	p := write.NewPointWithMeasurement("swap").
		AddTag("station_id", ev.StationID).
		AddTag("path", ev.Path).
		AddTag("outcome", ev.Outcome).
		AddTag("swap_id", ev.SwapID).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordFault writes a latched fault.
func (s *InfluxSink) RecordFault(ev coremetrics.FaultEvent) error {
	p := write.NewPointWithMeasurement("fault").
		AddTag("station_id", ev.StationID).
		AddTag("kind", ev.Kind).
		AddTag("swap_id", ev.SwapID).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordAction writes an operator trigger.
func (s *InfluxSink) RecordAction(ev coremetrics.ActionEvent) error {
	p := write.NewPointWithMeasurement("operator_action").
		AddTag("station_id", ev.StationID).
		AddTag("action", ev.Action).
		AddTag("source", ev.Source).
		AddTag("accepted", strconv.FormatBool(ev.Accepted)).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.write(p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }
