package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codeplayground/internal/domain/dispatch"
	"github.com/GriffinCanCode/codeplayground/internal/domain/session"
)

// Message is a client request.
type Message struct {
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
	Source   string `json:"source,omitempty"`
	Index    int    `json:"index,omitempty"`
}

// Reply is a server message.
type Reply struct {
	Type    string            `json:"type"`
	Session *session.Snapshot `json:"session,omitempty"`
	Result  *dispatch.Result  `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
	Time    int64             `json:"timestamp"`
}

// Recorder receives connection and message counts.
type Recorder interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(direction, msgType string)
}

// Config configures the handler.
type Config struct {
	AllowedOrigins []string
	MaxMessageSize int64
	IdleTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Handler manages WebSocket connections
type Handler struct {
	sessions *session.Manager
	recorder Recorder
	logger   *zap.Logger
	cfg      Config
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(sessions *session.Manager, recorder Recorder, logger *zap.Logger, cfg Config) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 512 * 1024
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	h := &Handler{
		sessions: sessions,
		recorder: recorder,
		logger:   logger.Named("ws"),
		cfg:      cfg,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// conn serializes writes to one websocket connection.
type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// HandleConnection upgrades the request and serves the session named by
// the id path parameter until the client disconnects. Runs execute off the
// read loop so a disconnect cancels a run still in flight.
func (h *Handler) HandleConnection(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	if h.recorder != nil {
		h.recorder.IncWSConnections()
		defer h.recorder.DecWSConnections()
	}
	ws.SetReadLimit(h.cfg.MaxMessageSize)

	logger := h.logger.With(zap.String("session", sess.ID()))
	logger.Debug("WebSocket connected")

	// a hijacked request's context is not cancelled on disconnect
	ctx, cancel := context.WithCancel(context.Background())
	var runs sync.WaitGroup
	defer runs.Wait()
	defer cancel()

	cn := &conn{ws: ws}
	snap := sess.Snapshot()
	if err := h.send(cn, Reply{Type: "session", Session: &snap}); err != nil {
		return
	}

	for {
		_ = ws.SetReadDeadline(time.Now().Add(h.cfg.IdleTimeout))
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.record("in", "invalid")
			if h.sendError(cn, "invalid message") != nil {
				return
			}
			continue
		}
		h.record("in", label(msg.Type))

		if msg.Type == "run" {
			if msg.Source != "" {
				sess.UpdateSource(msg.Source)
			}
			if err := h.send(cn, Reply{Type: "running"}); err != nil {
				return
			}
			runs.Add(1)
			go func() {
				defer runs.Done()
				if err := h.run(ctx, cn, sess); err != nil {
					logger.Debug("WebSocket write failed", zap.Error(err))
					cancel()
					ws.Close()
				}
			}()
			continue
		}

		if err := h.dispatch(ctx, cn, sess, msg); err != nil {
			logger.Debug("WebSocket write failed", zap.Error(err))
			return
		}
	}
}

// run executes the session and reports the result. Only write errors are
// returned.
func (h *Handler) run(ctx context.Context, cn *conn, sess *session.Session) error {
	result, err := sess.Run(ctx)
	if err != nil {
		return h.sendError(cn, err.Error())
	}
	return h.send(cn, Reply{Type: "result", Result: &result})
}

// dispatch handles one message. Only write errors are returned; request
// errors are reported to the client.
func (h *Handler) dispatch(ctx context.Context, cn *conn, sess *session.Session, msg Message) error {
	switch msg.Type {
	case "ping":
		return h.send(cn, Reply{Type: "pong"})

	case "source":
		sess.UpdateSource(msg.Source)
		return h.sendSession(cn, sess)

	case "language":
		if err := sess.SelectLanguage(ctx, msg.Language); err != nil {
			return h.sendError(cn, err.Error())
		}
		return h.sendSession(cn, sess)

	case "example":
		if _, err := sess.LoadExample(msg.Index); err != nil {
			return h.sendError(cn, err.Error())
		}
		return h.sendSession(cn, sess)

	case "clear":
		sess.ClearOutput()
		return h.sendSession(cn, sess)

	default:
		return h.sendError(cn, "unknown message type")
	}
}

func (h *Handler) sendSession(cn *conn, sess *session.Session) error {
	snap := sess.Snapshot()
	return h.send(cn, Reply{Type: "session", Session: &snap})
}

func (h *Handler) sendError(cn *conn, message string) error {
	return h.send(cn, Reply{Type: "error", Error: message})
}

func (h *Handler) send(cn *conn, reply Reply) error {
	reply.Time = time.Now().Unix()
	data, err := sonic.Marshal(reply)
	if err != nil {
		return err
	}

	cn.writeMu.Lock()
	defer cn.writeMu.Unlock()
	_ = cn.ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
	if err := cn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	h.record("out", reply.Type)
	return nil
}

// label bounds the message type values used as metric labels.
func label(msgType string) string {
	switch msgType {
	case "ping", "source", "language", "example", "clear", "run":
		return msgType
	}
	return "unknown"
}

func (h *Handler) record(direction, msgType string) {
	if h.recorder != nil {
		h.recorder.RecordWSMessage(direction, msgType)
	}
}
