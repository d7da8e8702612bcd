// Package station serves the operator surface of a swap station over HTTP:
// state, event log, trend summary, operator actions and a live websocket.
package station

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/swapstation/core/metrics"
	"github.com/kilianp07/swapstation/core/station"
	"github.com/kilianp07/swapstation/infra/console"
	"github.com/kilianp07/swapstation/infra/logger"
	"github.com/kilianp07/swapstation/internal/eventbus"
)

// Controller is the part of the station controller the API drives.
type Controller interface {
	Apply(a station.Action) error
	Snapshot() station.Snapshot
	Config() station.Config
}

// EventLog exposes the operator event log.
type EventLog interface {
	Entries(limit int) []console.Entry
}

// Handler wires the HTTP layer to the station.
type Handler struct {
	ctrl     Controller
	events   EventLog
	bus      *eventbus.Bus[station.Event]
	rec      metrics.ActionRecorder
	log      logger.Logger
	interval time.Duration
}

// Option customizes a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option { return func(h *Handler) { h.log = l } }

// WithActionRecorder records every action posted to the API.
func WithActionRecorder(r metrics.ActionRecorder) Option {
	return func(h *Handler) { h.rec = r }
}

// WithStateInterval sets the default websocket state period.
func WithStateInterval(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.interval = d
		}
	}
}

// NewHandler constructs a handler. events and bus may be nil.
func NewHandler(ctrl Controller, events EventLog, bus *eventbus.Bus[station.Event], opts ...Option) *Handler {
	h := &Handler{
		ctrl:     ctrl,
		events:   events,
		bus:      bus,
		rec:      metrics.NopSink{},
		log:      logger.NopLogger{},
		interval: defaultInterval,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// InitRoutes builds the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLog)

	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		api.GET("/state", h.getState)
		api.GET("/events", h.getEvents)
		api.GET("/events/export", h.exportEvents)
		api.GET("/trend", h.getTrend)
		api.GET("/actions", h.listActions)
		api.POST("/actions/:action", h.postAction)
	}

	router.GET("/ws", h.wsConnect)
	return router
}

func (h *Handler) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Debugw("http request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.FullPath(),
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// Serve runs the router on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Infof("operator API listening on %s", addr)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
