package station

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/swapstation/core/metrics"
	"github.com/kilianp07/swapstation/core/station"
	"github.com/kilianp07/swapstation/core/trend"
	"github.com/kilianp07/swapstation/infra/console"
	"github.com/kilianp07/swapstation/pkg/export"
)

const (
	statusOK       = "ok"
	statusAccepted = "accepted"

	defaultEventLimit = 50
)

func (h *Handler) health(c *gin.Context) {
	s := h.ctrl.Snapshot()
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "station_id": s.StationID, "uptime": s.Uptime.String()})
}

func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.ctrl.Snapshot())
}

func (h *Handler) getEvents(c *gin.Context) {
	limit := defaultEventLimit
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = v
	}
	if h.events == nil {
		c.JSON(http.StatusOK, gin.H{"events": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": h.events.Entries(limit)})
}

// exportEvents streams the event log oldest first as CSV or JSON.
func (h *Handler) exportEvents(c *gin.Context) {
	var entries []console.Entry
	if h.events != nil {
		entries = export.Chronological(h.events.Entries(0))
	}
	var err error
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="events.csv"`)
		err = export.WriteCSV(c.Writer, entries)
	case "json":
		c.Header("Content-Type", "application/json")
		err = export.WriteJSON(c.Writer, entries)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or json"})
		return
	}
	if err != nil {
		h.log.Errorf("export events: %v", err)
	}
}

func (h *Handler) getTrend(c *gin.Context) {
	s := h.ctrl.Snapshot()
	cfg := h.ctrl.Config()
	tick := cfg.DepletionPeriod(s.FirstSwapCompleted)
	c.JSON(http.StatusOK, gin.H{
		"history": s.History,
		"tick":    tick.String(),
		"summary": trend.Analyze(s.History, tick, cfg.FloorPct),
	})
}

func (h *Handler) listActions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actions": station.Actions})
}

func (h *Handler) postAction(c *gin.Context) {
	name := c.Param("action")
	a, err := station.ParseAction(name)
	if err == nil {
		err = h.ctrl.Apply(a)
	}
	ev := metrics.ActionEvent{
		StationID: h.ctrl.Config().ID,
		Action:    name,
		Source:    "http",
		Accepted:  err == nil,
		Time:      time.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if rerr := h.rec.RecordAction(ev); rerr != nil {
		h.log.Warnf("record action: %v", rerr)
	}
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, gin.H{"status": statusAccepted, "action": a, "state": h.ctrl.Snapshot()})
	case errors.Is(err, station.ErrUnknownAction):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "state": h.ctrl.Snapshot()})
	}
}
