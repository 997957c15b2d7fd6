package feed

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/marvelous/backend/internal/service/feed"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	maxReadBytes = 512
)

// Subscriber 抽象事件订阅，便于测试
type Subscriber interface {
	Subscribe() (string, <-chan feed.Event, func())
}

// Handler 角色变更推送的WebSocket处理器
type Handler struct {
	hub      Subscriber
	upgrader websocket.Upgrader
}

// New 创建变更推送处理器
func New(hub Subscriber) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.handleEvents)
}

// handleEvents 升级连接并持续推送变更事件
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[feed] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id, events, cancel := h.hub.Subscribe()
	defer cancel()
	log.Printf("[feed] subscriber %s connected from %s", id, r.RemoteAddr)

	closed := make(chan struct{})
	go readLoop(conn, closed)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Printf("[feed] subscriber %s disconnected", id)
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("[feed] set write deadline for %s failed: %v", id, err)
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("[feed] write to %s failed: %v", id, err)
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("[feed] set write deadline for %s failed: %v", id, err)
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[feed] ping to %s failed: %v", id, err)
				return
			}
		}
	}
}

// readLoop 仅处理控制帧，客户端断开时关闭 closed
func readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxReadBytes)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[feed] set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[feed] read error: %v", err)
			}
			return
		}
	}
}
