package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/swapstation/core/metrics"
)

// HTTPConfig defines the operator API listener.
type HTTPConfig struct {
	Addr string `json:"addr"`
	// StateIntervalMS is the default websocket push period.
	StateIntervalMS int `json:"state_interval_ms"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.StateIntervalMS <= 0 {
		c.StateIntervalMS = 500
	}
}

func (c HTTPConfig) Validate() error {
	if c.StateIntervalMS < 50 {
		return fmt.Errorf("state_interval_ms must be at least 50")
	}
	return nil
}

// StateInterval returns the websocket push period.
func (c HTTPConfig) StateInterval() time.Duration {
	return time.Duration(c.StateIntervalMS) * time.Millisecond
}

// MetricsConfig selects metric sinks and the Prometheus scrape endpoint.
type MetricsConfig struct {
	Sinks []metrics.SinkConfig `json:"sinks"`
	// PrometheusAddr serves /metrics when set.
	PrometheusAddr string `json:"prometheus_addr"`
	// SampleIntervalMS is the period of station samples sent to sinks.
	SampleIntervalMS int `json:"sample_interval_ms"`
}

func (c *MetricsConfig) SetDefaults() {
	if c.SampleIntervalMS <= 0 {
		c.SampleIntervalMS = 1000
	}
}

func (c MetricsConfig) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sinks[%d]: type is required", i)
		}
	}
	return nil
}

// SampleInterval returns the station sample period.
func (c MetricsConfig) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMS) * time.Millisecond
}
