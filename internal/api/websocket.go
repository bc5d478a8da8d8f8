package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Baduit/Timer/internal/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin only: origin should match host
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // No origin header = same-origin request
		}
		return strings.Contains(origin, r.Host)
	},
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocketHub fans out tick snapshots and log entries to every connected
// client. Close stops the hub and disconnects all clients.
type WebSocketHub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan interface{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex

	logCh     chan logger.LogEntry
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewWebSocketHub() *WebSocketHub {
	h := &WebSocketHub{
		broadcast:  make(chan interface{}),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		clients:    make(map[*websocket.Conn]bool),
		logCh:      logger.Subscribe(),
		quit:       make(chan struct{}),
	}

	h.wg.Add(2)
	go h.forwardLogs()
	go h.run()
	return h
}

func (h *WebSocketHub) forwardLogs() {
	defer h.wg.Done()
	for {
		select {
		case entry, ok := <-h.logCh:
			if !ok {
				return
			}
			h.Broadcast(gin.H{
				"type": "log",
				"data": entry,
			})
		case <-h.quit:
			return
		}
	}
}

func (h *WebSocketHub) run() {
	defer h.wg.Done()
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			logger.Debugf("WebSocket client connected (Total: %d)", len(h.clients))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if err := client.Close(); err != nil {
					logger.Debugf("WebSocket close error: %v", err)
				}
				logger.Debugf("WebSocket client disconnected")
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if err := client.WriteJSON(message); err != nil {
					logger.Debugf("WebSocket write error: %v", err)
					if closeErr := client.Close(); closeErr != nil {
						logger.Debugf("WebSocket close error during broadcast: %v", closeErr)
					}
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				_ = client.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast sends message to every connected client. It is a no-op once
// the hub is closed.
func (h *WebSocketHub) Broadcast(message interface{}) {
	select {
	case h.broadcast <- message:
	case <-h.quit:
	}
}

func (h *WebSocketHub) HandleConnection(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf("Failed to upgrade to WebSocket: %v", err)
		return
	}
	select {
	case h.register <- ws:
	case <-h.quit:
		_ = ws.Close()
		return
	}

	// Send initial ping to verify connection (safe before ping goroutine starts)
	h.mu.Lock()
	if err := ws.WriteJSON(gin.H{"type": "ping", "timestamp": time.Now()}); err != nil {
		logger.Debugf("Failed to send initial ping: %v", err)
	}
	h.mu.Unlock()

	if err := ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Debugf("Failed to set initial read deadline: %v", err)
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPing := make(chan struct{})
	defer func() {
		close(stopPing)
		select {
		case h.unregister <- ws:
		case <-h.quit:
		}
		logger.Debugf("WebSocket client handler exited")
	}()
	go h.ping(ws, stopPing)

	// Reading keeps the pong handler working; the loop ends when the
	// connection is closed by either side.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *WebSocketHub) ping(ws *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.mu.Lock()
			if _, exists := h.clients[ws]; !exists {
				h.mu.Unlock()
				return
			}
			// Write ping while holding mutex to prevent concurrent writes with broadcast
			err := ws.WriteMessage(websocket.PingMessage, nil)
			h.mu.Unlock()
			if err != nil {
				logger.Debugf("WebSocket ping error: %v", err)
				_ = ws.Close()
				return
			}
		}
	}
}

// ClientCount returns the number of connected WebSocket clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and stops the hub goroutines.
func (h *WebSocketHub) Close() {
	h.closeOnce.Do(func() {
		logger.Unsubscribe(h.logCh)
		close(h.quit)
		h.wg.Wait()
	})
}
