package test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/swapstation/app"
	"github.com/kilianp07/swapstation/config"
	"github.com/kilianp07/swapstation/test/util"
)

func startService(t *testing.T, cfg *config.Config) (*app.Service, context.CancelFunc) {
	t.Helper()
	svc, err := app.New(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("service did not stop")
		}
		_ = svc.Close()
	})
	waitCtx, waitCancel := context.WithTimeout(ctx, util.HTTPTimeout)
	defer waitCancel()
	require.NoError(t, util.WaitForHTTP(waitCtx, "http://"+cfg.HTTP.Addr+"/health"))
	return svc, cancel
}

func TestServiceExportsOperatorMetrics(t *testing.T) {
	apiAddr, err := util.FreeAddr()
	require.NoError(t, err)
	promAddr, err := util.FreeAddr()
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Station.ID = "bmh-it"
	cfg.HTTP.Addr = apiAddr
	cfg.Metrics.PrometheusAddr = promAddr
	cfg.Metrics.SampleIntervalMS = 100
	svc, _ := startService(t, cfg)

	resp, err := http.Post("http://"+apiAddr+"/api/actions/initiate_swap", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, err = http.Post("http://"+apiAddr+"/api/actions/initiate_swap", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), util.MetricTimeout)
	defer cancel()
	metricsURL := "http://" + promAddr + "/metrics"
	require.NoError(t, util.WaitForMetric(ctx, metricsURL,
		`bmh_operator_actions_total{accepted="true",action="initiate_swap",source="http",station_id="bmh-it"} 1`))
	require.NoError(t, util.WaitForMetric(ctx, metricsURL,
		`bmh_operator_actions_total{accepted="false",action="initiate_swap",source="http",station_id="bmh-it"} 1`))
	require.NoError(t, util.WaitForMetric(ctx, metricsURL, `bmh_swap_in_progress{station_id="bmh-it"} 1`))
	require.True(t, svc.Station.Snapshot().SwapInProgress)
}
