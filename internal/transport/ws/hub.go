package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"studyhall/internal/engine"
)

// Envelope is the WebSocket message format sent to clients
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans session events out to WebSocket connections. It implements
// engine.Listener, so every state change, message, and quiz event a
// session emits reaches the learner's open connections.
type Hub struct {
	logger *zap.Logger

	// sessionID -> connection set
	conns map[string]map[*Connection]bool

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *sessionMessage
}

// Connection represents one WebSocket connection scoped to a session
type Connection struct {
	SessionID string
	UserID    string
	Send      chan []byte
}

type sessionMessage struct {
	SessionID string
	Data      []byte
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		logger:     logger,
		conns:      make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *sessionMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionID] == nil {
				h.conns[conn.SessionID] = make(map[*Connection]bool)
			}
			h.conns[conn.SessionID][conn] = true
			h.mu.Unlock()
			h.logger.Info("ws connected",
				zap.String("sessionId", conn.SessionID),
				zap.String("userId", conn.UserID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.conns[conn.SessionID]; ok {
				if set[conn] {
					delete(set, conn)
					close(conn.Send)
					if len(set) == 0 {
						delete(h.conns, conn.SessionID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Info("ws disconnected",
				zap.String("sessionId", conn.SessionID))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.conns[msg.SessionID] {
				select {
				case conn.Send <- msg.Data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// OnEvent implements engine.Listener: session events become typed
// WebSocket envelopes for that session's connections.
func (h *Hub) OnEvent(evt engine.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.logger.Warn("event not serializable", zap.Error(err))
		return
	}
	data, err := json.Marshal(&Envelope{
		Type:    string(evt.Type),
		Payload: payload,
	})
	if err != nil {
		return
	}
	h.broadcast <- &sessionMessage{SessionID: evt.SessionID, Data: data}
}
