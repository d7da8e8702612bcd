package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/swapstation/core/metrics"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (l *lineRecorder) last() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.bodies) == 0 {
		return ""
	}
	return l.bodies[len(l.bodies)-1]
}

func lineOf(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordStationSample(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	s := coremetrics.StationSample{StationID: "bmh-1", ActivePct: 42, HubPct: 100, Mode: "normal", Depleting: true, TotalSwaps: 2, Time: now}
	if err := sink.RecordStationSample(s); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("station_state").
		AddTag("station_id", "bmh-1").
		AddTag("mode", "normal").
		AddField("active_pct", 42).
		AddField("hub_pct", 100).
		AddField("swap_in_progress", false).
		AddField("depleting", true).
		AddField("charging", false).
		AddField("homing", false).
		AddField("has_error", false).
		AddField("total_swaps", 2).
		SetTime(now)
	if got := rec.last(); got != lineOf(p) {
		t.Errorf("unexpected body: %s", got)
	}
}

func TestInfluxSink_RecordSwapAndFault(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Now()
	if err := sink.RecordSwap(coremetrics.SwapEvent{StationID: "bmh-1", SwapID: "s1", Path: "first", Outcome: "completed", Duration: 11500 * time.Millisecond, Time: now}); err != nil {
		t.Fatalf("record swap: %v", err)
	}
	swap := write.NewPointWithMeasurement("swap").
		AddTag("station_id", "bmh-1").
		AddTag("path", "first").
		AddTag("outcome", "completed").
		AddTag("swap_id", "s1").
		AddField("duration_ms", int64(11500)).
		SetTime(now)
	if got := rec.last(); got != lineOf(swap) {
		t.Errorf("unexpected swap body: %s", got)
	}

	if err := sink.RecordFault(coremetrics.FaultEvent{StationID: "bmh-1", SwapID: "s2", Kind: "alignment", Time: now}); err != nil {
		t.Fatalf("record fault: %v", err)
	}
	if got := rec.last(); !strings.HasPrefix(got, "fault,") || !strings.Contains(got, "kind=alignment") {
		t.Errorf("unexpected fault body: %s", got)
	}

	if err := sink.RecordAction(coremetrics.ActionEvent{StationID: "bmh-1", Action: "reset", Source: "http", Accepted: true, Time: now}); err != nil {
		t.Fatalf("record action: %v", err)
	}
	if got := rec.last(); !strings.HasPrefix(got, "operator_action,") || !strings.Contains(got, "accepted=true") {
		t.Errorf("unexpected action body: %s", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
