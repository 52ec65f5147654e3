// Package floor pushes engine events to the floor-plan screens over
// websockets.
package floor

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

const writeWait = 5 * time.Second

// Hub holds every connected screen and the role it authenticated with.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

func (h *Hub) Register(conn *websocket.Conn, role string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = role
}

// Unregister forgets conn and closes it.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()

	if ok {
		_ = conn.Close()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Notify broadcasts msg to every client. Clients that fail a write are
// dropped; the caller never sees the failure.
func (h *Hub) Notify(_ context.Context, msg events.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.WithError(err).WithField("event", msg.Event).Error("floor: marshal failed")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, role := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{"event": msg.Event, "role": role}).
				WithError(err).Warn("floor: dropping client after failed write")
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
	utils.InfoLogger.WithFields(logrus.Fields{"event": msg.Event, "clients": len(h.clients)}).Debug("floor: broadcast")
}
