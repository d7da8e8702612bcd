package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	api "github.com/kilianp07/swapstation/api/station"
	"github.com/kilianp07/swapstation/config"
	coremetrics "github.com/kilianp07/swapstation/core/metrics"
	"github.com/kilianp07/swapstation/core/monitoring"
	"github.com/kilianp07/swapstation/core/station"
	"github.com/kilianp07/swapstation/infra/console"
	"github.com/kilianp07/swapstation/infra/logger"
	"github.com/kilianp07/swapstation/infra/metrics"
	inframon "github.com/kilianp07/swapstation/infra/monitoring"
	"github.com/kilianp07/swapstation/infra/mqtt"
	"github.com/kilianp07/swapstation/internal/eventbus"
)

const busBuffer = 64

// Service wires the station controller to its operator surfaces and
// metrics sinks.
type Service struct {
	Station *station.Controller
	Console *console.Console

	cfg     *config.Config
	bus     *eventbus.Bus[station.Event]
	sink    coremetrics.Sink
	bridge  *mqtt.Bridge
	handler *api.Handler
	log     logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logger.Configure(logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logg := logger.New("service")
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	mon, err := inframon.NewSentryMonitor(cfg.Sentry, cfg.Station.ID)
	if err != nil {
		logg.Warnf("monitoring disabled: %v", err)
		mon = monitoring.NopMonitor{}
	}
	monitoring.Init(mon)

	sinkCfgs := cfg.Metrics.Sinks
	if cfg.Metrics.PrometheusAddr != "" && !hasSink(sinkCfgs, "prometheus") {
		sinkCfgs = append(sinkCfgs, coremetrics.SinkConfig{Type: "prometheus"})
	}
	sink, err := coremetrics.New(sinkCfgs)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	var rec coremetrics.ActionRecorder = coremetrics.NopSink{}
	if r, ok := sink.(coremetrics.ActionRecorder); ok {
		rec = r
	}

	bus := eventbus.New[station.Event](busBuffer)
	con := console.New(console.Options{Size: cfg.Logging.EventLogSize, Log: logger.New("console")})
	ctrl, err := station.New(cfg.Station, station.Options{
		Display:   con,
		Publisher: bus,
		Logger:    logger.New("station"),
	})
	if err != nil {
		bus.Close()
		return nil, err
	}

	svc := &Service{
		Station: ctrl,
		Console: con,
		cfg:     cfg,
		bus:     bus,
		sink:    sink,
		log:     logg,
	}
	if cfg.MQTT.Enabled {
		b, err := mqtt.NewBridge(cfg.MQTT, ctrl.Config().ID, ctrl,
			mqtt.WithLogger(logger.New("mqtt")),
			mqtt.WithActionRecorder(rec),
		)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("mqtt bridge: %w", err)
		}
		svc.bridge = b
	}
	svc.handler = api.NewHandler(ctrl, con, bus,
		api.WithLogger(logger.New("api")),
		api.WithActionRecorder(rec),
		api.WithStateInterval(cfg.HTTP.StateInterval()),
	)
	logg.Infof("station %s ready", ctrl.Config().ID)
	return svc, nil
}

func hasSink(cfgs []coremetrics.SinkConfig, typ string) bool {
	for _, c := range cfgs {
		if c.Type == typ {
			return true
		}
	}
	return false
}

// Handler returns the operator API handler.
func (s *Service) Handler() *api.Handler { return s.handler }

// Run starts the background collectors and serves the operator API until
// the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	collector := metrics.NewCollector(s.sink, s.cfg.Metrics.SampleInterval(), logger.New("metrics"))
	metrics.StartEventCollector(ctx, s.bus, collector)
	if s.bridge != nil {
		events := s.bus.Subscribe()
		go func() {
			defer monitoring.Recover()
			defer s.bus.Unsubscribe(events)
			s.bridge.Run(ctx, events)
		}()
	}
	if s.cfg.Metrics.PrometheusAddr != "" {
		metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr, s.log)
	}
	if err := api.Serve(ctx, s.cfg.HTTP.Addr, s.handler.InitRoutes(), s.log); err != nil {
		monitoring.CaptureException(err, map[string]string{"module": "api"})
		return fmt.Errorf("operator api: %w", err)
	}
	return nil
}

// Close stops every station timer and releases resources held by the
// service.
func (s *Service) Close() error {
	s.Station.Reset()
	if s.bridge != nil {
		s.bridge.Close()
	}
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	monitoring.Flush(2 * time.Second)
	return nil
}
