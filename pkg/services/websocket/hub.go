package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jgirmay/privacy-tower/pkg/engine"
	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/services/events"
	"github.com/jgirmay/privacy-tower/pkg/services/sessions"
)

// Config tunes the hub
type Config struct {
	// MessagesPerSecond limits requests per connection; zero disables limiting
	MessagesPerSecond float64
	Burst             int
	CheckOrigin       func(r *http.Request) bool
}

// Hub serves realtime play over WebSocket. Each connection is bound to one
// game session; requests are applied through the session manager and the
// session's events are pushed to every connection watching it.
type Hub struct {
	manager  *sessions.Manager
	cfg      Config
	upgrader websocket.Upgrader
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.RWMutex
	bySession map[string]map[*Client]struct{}
	closed    bool
}

// NewHub creates a hub over manager
func NewHub(manager *sessions.Manager, cfg Config, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(1, int(cfg.MessagesPerSecond))
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		manager: manager,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:    logger.Named("ws"),
		now:       time.Now,
		bySession: make(map[string]map[*Client]struct{}),
	}
}

// ServeWS upgrades the request and attaches the connection to sessionID
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) {
	if _, err := h.manager.Get(sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", zap.Error(err))
		return
	}

	limit := rate.Inf
	if h.cfg.MessagesPerSecond > 0 {
		limit = rate.Limit(h.cfg.MessagesPerSecond)
	}
	client := &Client{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		conn:      conn,
		send:      make(chan Message, sendBuffer),
		limiter:   rate.NewLimiter(limit, h.cfg.Burst),
		done:      make(chan struct{}),
	}
	if !h.register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	h.readPump(client)
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	clients, ok := h.bySession[c.SessionID]
	if !ok {
		clients = make(map[*Client]struct{})
		h.bySession[c.SessionID] = clients
	}
	clients[c] = struct{}{}
	h.logger.Debug("client connected",
		zap.String("client_id", c.ID),
		zap.String("session_id", c.SessionID),
		zap.Int("session_clients", len(clients)))
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if clients, ok := h.bySession[c.SessionID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.bySession, c.SessionID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.bySession {
		n += len(clients)
	}
	return n
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Client
	for _, clients := range h.bySession {
		for c := range clients {
			all = append(all, c)
		}
	}
	h.bySession = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}

// OnEvent pushes session events to the session's connections.
// Subscribe the hub to the session manager's bus.
func (h *Hub) OnEvent(e *events.Event) {
	if e == nil {
		return
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.bySession[e.SessionID]))
	for c := range h.bySession[e.SessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	msg := Message{Type: MsgTypeEvent, SessionID: e.SessionID, Timestamp: e.Timestamp, Data: e}
	for _, c := range clients {
		if !c.enqueue(msg) {
			h.logger.Debug("dropped event for slow client", zap.String("client_id", c.ID))
		}
	}
	if e.Type == events.SessionEnded {
		for _, c := range clients {
			h.unregister(c)
		}
	}
}

func (h *Hub) readPump(c *Client) {
	defer h.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var req Request
		if err := c.conn.ReadJSON(&req); err != nil {
			var (
				syntaxErr *json.SyntaxError
				typeErr   *json.UnmarshalTypeError
			)
			switch {
			case errors.As(err, &syntaxErr):
				h.reply(c, "", MsgTypeError, ErrorPayload{Code: "INVALID_MESSAGE", Message: "message is not valid JSON"})
				continue
			case errors.As(err, &typeErr):
				h.reply(c, "", MsgTypeError, ErrorPayload{Code: "INVALID_MESSAGE", Message: "message fields have the wrong types"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("unexpected close", zap.String("client_id", c.ID), zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.limiter.Allow() {
			h.reply(c, req.ID, MsgTypeError, ErrorPayload{Code: "RATE_LIMITED", Message: "too many messages"})
			continue
		}
		h.route(c, req)
	}
}

// route applies a request to the session and replies
func (h *Hub) route(c *Client, req Request) {
	id := c.SessionID
	var (
		replyType MessageType
		data      interface{}
		err       error
	)

	switch req.Type {
	case MsgTypePing:
		replyType = MsgTypePong
	case MsgTypeState:
		var state models.GameState
		state, err = h.manager.State(id)
		replyType, data = MsgTypeState, state.Public()
	case MsgTypeClick:
		var p BlockPayload
		if err = decode(req.Payload, &p); err == nil {
			var item *models.ContentItem
			if item, err = h.manager.Click(id, p.BlockID); err == nil {
				replyType, data = MsgTypeRevealed, item.View()
			}
		}
	case MsgTypeAnswer:
		var p AnswerPayload
		if err = decode(req.Payload, &p); err == nil {
			if p.SelectedIndex == nil {
				err = errMissingChoice
				break
			}
			elapsed := time.Duration(p.ResponseTimeMs) * time.Millisecond
			replyType = MsgTypeAnswered
			data, err = h.manager.Answer(id, p.BlockID, *p.SelectedIndex, elapsed)
		}
	case MsgTypeRoll:
		var outcome sessions.RollOutcome
		if outcome, err = h.manager.Roll(id); err == nil {
			replyType, data = MsgTypeRolled, RollPayload{
				Roll:             outcome.Roll,
				AccessibleBlocks: models.NewBlockViews(outcome.Accessible),
				SuggestedBlocks:  models.NewBlockViews(outcome.Suggested),
			}
		}
	case MsgTypeRebuild:
		var state models.GameState
		state, err = h.manager.Rebuild(id)
		replyType, data = MsgTypeState, state.Public()
	case MsgTypeReset:
		var state models.GameState
		state, err = h.manager.Reset(id)
		replyType, data = MsgTypeState, state.Public()
	default:
		err = errUnknownType
	}

	if err != nil {
		h.reply(c, req.ID, MsgTypeError, errorPayload(err))
		return
	}
	h.reply(c, req.ID, replyType, data)
}

func (h *Hub) reply(c *Client, id string, t MessageType, data interface{}) {
	msg := Message{Type: t, ID: id, SessionID: c.SessionID, Timestamp: h.now(), Data: data}
	if !c.enqueue(msg) {
		h.logger.Debug("dropped reply for slow client", zap.String("client_id", c.ID))
	}
}

var (
	errUnknownType   = errors.New("unknown message type")
	errBadPayload    = errors.New("invalid payload")
	errMissingChoice = errors.New("selected_index is required")
)

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return errBadPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errBadPayload
	}
	return nil
}

func errorPayload(err error) ErrorPayload {
	code := "INTERNAL_ERROR"
	switch {
	case errors.Is(err, sessions.ErrSessionNotFound), errors.Is(err, engine.ErrBlockNotFound):
		code = "NOT_FOUND"
	case errors.Is(err, errUnknownType), errors.Is(err, errBadPayload), errors.Is(err, errMissingChoice),
		errors.Is(err, engine.ErrInvalidChoice):
		code = "INVALID_REQUEST"
	case errors.Is(err, sessions.ErrBlockUnavailable), errors.Is(err, engine.ErrBlockRemoved),
		errors.Is(err, engine.ErrNoQuestion), errors.Is(err, engine.ErrInvalidPhase):
		code = "INVALID_STATE"
	}
	msg := err.Error()
	if code == "INTERNAL_ERROR" {
		msg = "internal error"
	}
	return ErrorPayload{Code: code, Message: msg}
}
