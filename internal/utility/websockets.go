package utility

import (
	"net/http"
	"sync"
	"time"

	"VitalScan/internal/dashboard"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow CORS for development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub holds live dashboard connections: Map[SessionID] -> Connections.
// Several tabs may watch the same session.
type Hub struct {
	mu      sync.Mutex // Mutex to prevent race conditions
	clients map[string]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*websocket.Conn]struct{})}
}

// Register a new client connection
func (h *Hub) RegisterClient(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[sessionID]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		h.clients[sessionID] = conns
	}
	conns[conn] = struct{}{}
	log.Info().Str("session_id", sessionID).Msg("WebSocket Client Connected")
}

// Unregister a client (when they close the tab)
func (h *Hub) UnregisterClient(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sessionID, conn)
	log.Info().Str("session_id", sessionID).Msg("WebSocket Client Disconnected")
}

// Count returns how many connections watch sessionID.
func (h *Hub) Count(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[sessionID])
}

// Notify pushes ev to every connection watching sessionID. Connections that
// fail to accept the write are closed and dropped.
func (h *Hub) Notify(sessionID string, ev dashboard.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients[sessionID] {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to send WS message, removing client")
			conn.Close()
			h.removeLocked(sessionID, conn)
		}
	}
}

func (h *Hub) removeLocked(sessionID string, conn *websocket.Conn) {
	conns, ok := h.clients[sessionID]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.clients, sessionID)
	}
}
