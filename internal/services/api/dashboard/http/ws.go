package http

import (
	"context"
	stdhttp "net/http"
	"net/url"
	"strings"
	"time"

	"insightboard/internal/modkit/httpkit"
	"insightboard/internal/platform/logger"
	pnet "insightboard/internal/platform/net"
	"insightboard/internal/services/api/dashboard/domain"

	"github.com/gorilla/websocket"
)

// Options tunes the push endpoint
type Options struct {
	// AllowedOrigins lists the origins a browser may open /ws from; empty allows any
	AllowedOrigins []string
	WriteWait      time.Duration
	PongWait       time.Duration
	// PingPeriod must stay below PongWait
	PingPeriod time.Duration
	// MaxMessageSize caps inbound frames; clients only send control frames
	MaxMessageSize int64
	Logger         *logger.Logger
}

func (o Options) withDefaults() Options {
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 4 << 10
	}
	if o.Logger == nil {
		o.Logger = logger.Named("dashboard.ws")
	}
	return o
}

// checkOrigin accepts requests without an Origin header and those from an allowed host
func (o Options) checkOrigin(r *stdhttp.Request) bool {
	if len(o.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, a := range o.AllowedOrigins {
		if a == "*" || strings.EqualFold(strings.TrimSuffix(a, "/"), u.Scheme+"://"+u.Host) {
			return true
		}
	}
	return false
}

// swagger:route GET /dashboard/ws Dashboard dashboardWatch
// @Summary Stream filter and view changes of the session
// @Description Upgrades to a websocket; the session comes from X-Session-ID or ?session=.
// @Description The current filter and every view are sent first, then each change as it happens.
// @Tags Dashboard
// @Param session query string false "Session id"
// @Success 101 {object} domain.Event "switching protocols"
// @Router /dashboard/ws [get]
func (h *handlers) watch(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	// the stream outlives the request deadline but keeps its values
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	events, stop, err := h.svc.Watch(ctx)
	if err != nil {
		cancel()
		httpkit.WriteError(w, r, err)
		return
	}

	up := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.opts.checkOrigin,
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the request
		stop()
		cancel()
		h.opts.Logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		conn:    conn,
		events:  events,
		stop:    stop,
		cancel:  cancel,
		opts:    h.opts,
		session: pnet.SessionID(ctx),
	}
	h.opts.Logger.Info().Str("session", c.session).Msg("watcher connected")

	go c.readPump(ctx)
	go c.writePump(ctx)
}

// client is one websocket watcher
type client struct {
	conn    *websocket.Conn
	events  <-chan domain.Event
	stop    func()
	cancel  context.CancelFunc
	opts    Options
	session string
}

// readPump drains inbound frames so pongs and closes are seen; any error ends the watcher
func (c *client) readPump(ctx context.Context) {
	defer c.cancel()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.opts.Logger.Debug().Err(err).Str("session", c.session).Msg("watcher read")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// writePump forwards events and keeps the connection alive with pings
func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.stop()
		c.cancel()
		_ = c.conn.Close()
		c.opts.Logger.Info().Str("session", c.session).Msg("watcher disconnected")
	}()

	for {
		select {
		case <-ctx.Done():
			c.closeFrame(websocket.CloseNormalClosure, "")
			return
		case ev, ok := <-c.events:
			if !ok {
				// the session ended or the service is shutting down
				c.closeFrame(websocket.CloseGoingAway, "session closed")
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) closeFrame(code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait))
}
