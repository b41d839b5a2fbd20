package handlers

import (
	"context"
	"strconv"
	"time"

	"lost_and_found/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000 // 10s in ms

	// backlogWindow is how far back the first batch reaches.
	backlogWindow = 5 * time.Minute
	tailBatch     = 100
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// The zero CheckOrigin rejects cross-origin upgrades.
var upgrader = websocket.Upgrader{}

// eventCursor remembers the newest event already delivered on a stream.
type eventCursor struct {
	after time.Time
}

func (cur *eventCursor) advance(events []models.AuthEvent) {
	if n := len(events); n > 0 {
		cur.after = events[n-1].OccurredAt
	}
}

// @Summary      Stream audit events
// @Description  Upgrades to a WebSocket that sends {"type":"events","data":[...]} batches: the last five minutes first, then new events as they are recorded.
// @Tags         admin
// @Param        interval     query  string  false  "Poll interval, e.g. 2s (max 10s)"
// @Param        interval_ms  query  int     false  "Poll interval in milliseconds (max 10000)"
// @Success      101
// @Failure      401  {object}  lost_and_found.ErrorResponse
// @Failure      403  {object}  lost_and_found.ErrorResponse
// @Router       /api/v1/admin/ws [get]
// @Security     CookieAuth
// @Security     BearerAuth
func (h *Handler) eventStream(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
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

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	cur := &eventCursor{after: time.Now().UTC().Add(-backlogWindow)}

	// The backlog is always sent, even when empty, so clients know the stream is live.
	if err := h.sendEvents(ctx, conn, cur, true); err != nil {
		if h.log != nil {
			h.log.Infow("ws_write_failed_initial", "err", err)
		}
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if err := h.sendEvents(ctx, conn, cur, false); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
	}
}

// sendEvents writes events newer than the cursor and moves it forward.
// Empty batches are skipped unless always is set. A storage error is
// reported to the client as an error envelope and keeps the stream open.
func (h *Handler) sendEvents(ctx context.Context, conn *websocket.Conn, cur *eventCursor, always bool) error {
	events, err := h.services.EventLog.Tail(ctx, cur.after, tailBatch)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_tail_events_failed", "err", err)
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(wsEnvelope{Type: "error", Error: "failed to load events"})
	}
	if len(events) == 0 && !always {
		return nil
	}
	if events == nil {
		events = []models.AuthEvent{}
	}
	cur.advance(events)
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "events", Data: events})
}
