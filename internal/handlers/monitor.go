package handlers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"bgaming-proxy/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MonitorHandler streams ledger and session events to connected operator
// dashboards. It implements services.Broadcaster.
type MonitorHandler struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	events  chan *MonitorEvent
}

type MonitorEvent struct {
	Type          string              `json:"type"`
	PlayerID      string              `json:"player_id"`
	TokenInternal string              `json:"token_internal,omitempty"`
	State         models.SessionState `json:"state,omitempty"`
	DeltaCents    int64               `json:"delta_cents,omitempty"`
	BalanceCents  int64               `json:"balance_cents,omitempty"`
	BalanceUnits  int64               `json:"balance_units,omitempty"`
	Balance       string              `json:"balance,omitempty"`
	Timestamp     int64               `json:"timestamp"`
}

func NewMonitorHandler() *MonitorHandler {
	h := &MonitorHandler{
		clients: make(map[*websocket.Conn]bool),
		events:  make(chan *MonitorEvent, 100),
	}

	go h.run()

	return h
}

func (h *MonitorHandler) run() {
	for event := range h.events {
		h.mu.Lock()
		for conn := range h.clients {
			if err := conn.WriteJSON(event); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}

func (h *MonitorHandler) BroadcastBalanceUpdate(playerID string, deltaCents, balanceCents int64) {
	h.publish(&MonitorEvent{
		Type:         "BALANCE_UPDATE",
		PlayerID:     playerID,
		DeltaCents:   deltaCents,
		BalanceCents: balanceCents,
		BalanceUnits: models.CentsToUnits(balanceCents),
		Balance:      models.FormatCurrency(balanceCents),
		Timestamp:    time.Now().Unix(),
	})
}

func (h *MonitorHandler) BroadcastSessionState(playerID, tokenInternal string, state models.SessionState) {
	h.publish(&MonitorEvent{
		Type:          "SESSION_STATE",
		PlayerID:      playerID,
		TokenInternal: tokenInternal,
		State:         state,
		Timestamp:     time.Now().Unix(),
	})
}

// publish drops events when the buffer is full so a slow dashboard cannot
// stall gameplay handling.
func (h *MonitorHandler) publish(event *MonitorEvent) {
	select {
	case h.events <- event:
	default:
	}
}

func (h *MonitorHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}
