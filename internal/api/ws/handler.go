package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	pshttp "github.com/GriffinCanCode/pagestack/internal/api/http"
	"github.com/GriffinCanCode/pagestack/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pagestack/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagestack/internal/session"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 64
	requestTimeout = 10 * time.Second
)

// Navigator is the session surface driven over the stream
type Navigator interface {
	pshttp.Navigator
	Subscribe(fn func(session.Event)) func()
}

// Message is a client request
type Message struct {
	Type       string `json:"type"`
	ID         string `json:"id,omitempty"`
	URL        string `json:"url,omitempty"`
	Selector   string `json:"selector,omitempty"`
	Stack      string `json:"stack,omitempty"`
	Replace    bool   `json:"replace,omitempty"`
	Reverse    bool   `json:"reverse,omitempty"`
	CancelOnly bool   `json:"cancel_only,omitempty"`
}

// Frame is a server message
type Frame struct {
	Type      string         `json:"type"`
	ID        string         `json:"id,omitempty"`
	ClientID  string         `json:"client_id,omitempty"`
	Session   string         `json:"session,omitempty"`
	Message   string         `json:"message,omitempty"`
	Event     *session.Event `json:"event,omitempty"`
	Data      any            `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Handler manages WebSocket connections
type Handler struct {
	nav      Navigator
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	stop    func()
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// NewHandler creates a handler broadcasting session events to every
// connection. metrics may be nil.
func NewHandler(nav Navigator, metrics *monitoring.Metrics, logger *zap.Logger, origins []string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		nav:     nav,
		metrics: metrics,
		logger:  logger,
		clients: make(map[string]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(origins),
	}
	h.stop = nav.Subscribe(h.broadcast)
	return h
}

// originChecker allows same-origin requests plus the configured origins
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin] || origin == "http://"+r.Host || origin == "https://"+r.Host
	}
}

// Close unsubscribes from the session and drops every connection
func (h *Handler) Close() {
	h.stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

// Clients returns the number of open connections
func (h *Handler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.register(cl)
	defer h.unregister(cl)

	go h.writePump(cl)

	h.queue(cl, Frame{
		Type:     "system",
		ClientID: cl.id,
		Session:  h.nav.ID(),
		Message:  "Connected to pagestack",
	})
	if stacks, err := h.nav.Snapshot(c.Request.Context()); err == nil {
		h.queue(cl, Frame{Type: "snapshot", Data: stacks})
	}

	h.readPump(c.Request.Context(), cl)
}

func (h *Handler) register(cl *client) {
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	h.logger.Debug("WebSocket connected", logging.Client(cl.id))
}

func (h *Handler) unregister(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl.id]; ok {
		delete(h.clients, cl.id)
		cl.close()
	}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
	h.logger.Debug("WebSocket disconnected", logging.Client(cl.id))
}

func (h *Handler) readPump(ctx context.Context, cl *client) {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", logging.Client(cl.id), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.queue(cl, Frame{Type: "error", Message: "invalid message"})
			continue
		}
		h.record("in", msg.Type)
		h.queue(cl, h.handle(ctx, msg))
	}
}

func (h *Handler) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case data, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// broadcast runs on the session loop; clients with a full buffer miss the event
func (h *Handler) broadcast(e session.Event) {
	data, err := h.encode(Frame{Type: "event", Event: &e})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cl := range h.clients {
		select {
		case cl.send <- data:
			h.record("out", "event")
		default:
			h.logger.Debug("Dropping event for slow client", logging.Client(cl.id))
		}
	}
}

// queue sends a frame to one registered client
func (h *Handler) queue(cl *client, f Frame) {
	data, err := h.encode(f)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, open := h.clients[cl.id]; !open {
		return
	}
	select {
	case cl.send <- data:
		h.record("out", f.Type)
	default:
		h.logger.Debug("Dropping reply for slow client", logging.Client(cl.id))
	}
}

func (h *Handler) encode(f Frame) ([]byte, error) {
	f.Timestamp = time.Now().Unix()
	data, err := sonic.Marshal(f)
	if err != nil {
		h.logger.Error("Failed to encode frame", zap.String("type", f.Type), zap.Error(err))
	}
	return data, err
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}

// handle runs one request and builds the reply
func (h *Handler) handle(ctx context.Context, msg Message) Frame {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var data any
	var err error
	switch msg.Type {
	case "ping":
		return Frame{Type: "pong", ID: msg.ID}
	case "snapshot":
		data, err = h.nav.Snapshot(ctx)
	case "history":
		data, err = h.nav.History(ctx)
	case "navigate":
		data, err = h.nav.Navigate(ctx, msg.URL)
	case "back":
		data, err = moved(h.nav.Back(ctx))
	case "forward":
		data, err = moved(h.nav.Forward(ctx))
	case "click":
		data, err = h.nav.Click(ctx, msg.Selector)
	case "open":
		data, err = h.nav.Open(ctx, msg.Stack, session.OpenRequest{
			URL:     msg.URL,
			Replace: msg.Replace,
			Reverse: msg.Reverse,
		})
	case "close":
		data, err = h.nav.ClosePage(ctx, msg.Stack)
	case "reload":
		data, err = h.nav.Reload(ctx, msg.Stack)
	case "cancel":
		data, err = h.nav.CancelLoad(ctx, msg.Stack, msg.CancelOnly)
	default:
		return Frame{Type: "error", ID: msg.ID, Message: "unknown message type"}
	}
	if err != nil {
		return Frame{Type: "error", ID: msg.ID, Message: err.Error()}
	}
	return Frame{Type: "result", ID: msg.ID, Data: data}
}

func moved(state session.HistoryState, ok bool, err error) (any, error) {
	return map[string]any{"moved": ok, "history": state}, err
}
