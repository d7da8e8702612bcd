package station

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/kilianp07/swapstation/core/station"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12
	defaultInterval  = 500 * time.Millisecond
	minInterval      = 50 * time.Millisecond
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000
)

const (
	msgState = "state"
	msgEvent = "event"
	msgAlert = "alert"
)

// wsEnvelope wraps every websocket message.
type wsEnvelope struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type alert struct {
	Fault   station.FaultKind `json:"fault"`
	Message string            `json:"message"`
	SwapID  string            `json:"swap_id"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("ws upgrade failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	go h.startReader(conn, done)

	var events <-chan station.Event
	if h.bus != nil {
		sub := h.bus.Subscribe()
		defer h.bus.Unsubscribe(sub)
		events = sub
	}

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	if err := h.write(conn, wsEnvelope{Type: msgState, Data: h.ctrl.Snapshot()}); err != nil {
		h.log.Debugf("ws initial write failed: %v", err)
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Debugf("ws ping failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := h.write(conn, wsEnvelope{Type: msgState, Data: h.ctrl.Snapshot()}); err != nil {
				h.log.Debugf("ws write failed: %v", err)
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Kind == station.EventState {
				continue
			}
			if err := h.write(conn, wsEnvelope{Type: msgEvent, Data: ev}); err != nil {
				h.log.Debugf("ws write failed: %v", err)
				return
			}
			if ev.Kind != station.EventFault {
				continue
			}
			if err := h.write(conn, wsEnvelope{Type: msgAlert, Data: alert{Fault: ev.Fault, Message: ev.Message, SwapID: ev.SwapID}}); err != nil {
				h.log.Debugf("ws write failed: %v", err)
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 within bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d >= minInterval && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v >= int(minInterval/time.Millisecond) && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return h.interval
}

// startReader drains incoming frames to process control messages and
// detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, env wsEnvelope) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(env)
}
