package ws

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/SketchBox/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SketchBox/internal/shared/id"
	"github.com/GriffinCanCode/SketchBox/internal/sketch/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	eventBuffer    = 64
)

// Options configures Handler
type Options struct {
	Manager        *session.Manager
	Metrics        *monitoring.Metrics
	Logger         *logging.Logger
	AllowedOrigins []string
}

// Handler streams session events over WebSocket and accepts input,
// resize and ping messages from the client.
type Handler struct {
	manager  *session.Manager
	metrics  *monitoring.Metrics
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Handler{
		manager: opts.Manager,
		metrics: opts.Metrics,
		logger:  opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

// Stream handles GET /sketches/:id/stream. With ?frames=png every frame
// event is followed by a binary PNG message.
func (h *Handler) Stream(c *gin.Context) {
	sid, err := id.ParseSessionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrSessionNotFound.Error()})
		return
	}
	s, err := h.manager.Get(sid)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	events, unsubscribe := s.Subscribe(eventBuffer)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cl := &client{
		ctx:     ctx,
		conn:    conn,
		session: s,
		events:  events,
		replies: make(chan Reply, 16),
		done:    make(chan struct{}),
		frames:  c.Query("frames") == "png",
		metrics: h.metrics,
		logger:  h.logger.With(zap.String("session", sid.String())),
	}

	cl.replies <- Reply{Type: MsgHello, Session: sid.String(), State: string(s.Harness().State())}

	go cl.writePump()
	cl.readPump()
}

// client serializes writes through writePump; gorilla connections allow
// one concurrent writer.
type client struct {
	ctx     context.Context
	conn    *websocket.Conn
	session *session.Session
	events  <-chan session.Event
	replies chan Reply
	done    chan struct{}
	frames  bool
	metrics *monitoring.Metrics
	logger  *logging.Logger
}

func (cl *client) readPump() {
	defer func() {
		close(cl.done)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			cl.reply(Reply{Type: MsgError, Message: "invalid message"})
			continue
		}
		cl.metrics.RecordWSMessage("in", msg.Type)
		cl.handle(msg)
	}
}

func (cl *client) handle(msg Inbound) {
	switch msg.Type {
	case MsgPing:
		cl.reply(Reply{Type: MsgPong})

	case MsgResize:
		if err := cl.session.Resize(msg.Width, msg.Height); err != nil {
			cl.reply(Reply{Type: MsgError, Message: err.Error()})
		}

	case MsgEvent:
		if msg.Event == nil || !msg.Event.Valid() {
			cl.reply(Reply{Type: MsgError, Message: "invalid input event"})
			return
		}
		handled := cl.session.Harness().Dispatch(cl.ctx, *msg.Event)
		cl.reply(Reply{Type: MsgAck, Handled: &handled})

	default:
		cl.reply(Reply{Type: MsgError, Message: "unknown message type " + msg.Type})
	}
}

// reply queues a message for the writer; it never blocks the reader
func (cl *client) reply(r Reply) {
	select {
	case cl.replies <- r:
	case <-cl.done:
	default:
		cl.logger.Warn("WebSocket reply dropped", zap.String("type", r.Type))
	}
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case <-cl.done:
			return

		case r := <-cl.replies:
			if err := cl.writeJSON(r.Type, r); err != nil {
				return
			}

		case ev, ok := <-cl.events:
			if !ok {
				_ = cl.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if err := cl.writeJSON(string(ev.Type), ev); err != nil {
				return
			}
			if cl.frames && ev.Type == session.EventFrame {
				if err := cl.writeFrame(); err != nil {
					return
				}
			}

		case <-ticker.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (cl *client) writeJSON(msgType string, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		cl.logger.Error("WebSocket encode failed", zap.Error(err))
		return nil
	}
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	cl.metrics.RecordWSMessage("out", msgType)
	return nil
}

func (cl *client) writeFrame() error {
	var buf bytes.Buffer
	if err := cl.session.Harness().WriteFrame(&buf); err != nil {
		return nil
	}
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := cl.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
		return err
	}
	cl.metrics.RecordWSMessage("out", "frame_png")
	return nil
}

// originChecker allows requests without an Origin header, any origin when
// the list holds "*", and otherwise only listed origins.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set["*"] || set[origin]
	}
}
