package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/swapstation/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.Register("nop", func(map[string]any) (coremetrics.Sink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.Register("prometheus", func(map[string]any) (coremetrics.Sink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.Register("influx", func(conf map[string]any) (coremetrics.Sink, error) {
		var c struct {
			URL             string `json:"url"`
			Token           string `json:"token"`
			Org             string `json:"org"`
			Bucket          string `json:"bucket"`
			SkipHealthCheck bool   `json:"skip_health_check"`
		}
		if err := coremetrics.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.URL == "" || c.Bucket == "" {
			return nil, fmt.Errorf("influx sink requires url and bucket")
		}
		if c.SkipHealthCheck {
			return NewInfluxSink(c.URL, c.Token, c.Org, c.Bucket), nil
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
