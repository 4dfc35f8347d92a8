package feed

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/memorable/backend/internal/middleware"
	feedService "github.com/zhouzirui/memorable/backend/internal/service/feed"
	"github.com/zhouzirui/memorable/backend/pkg/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Handler 通过 WebSocket 推送调用方自己的 todo 变更
type Handler struct {
	hub      *feedService.Hub
	upgrader websocket.Upgrader
}

// New 创建推送处理器，allowedOrigins 与 CORS 白名单一致
func New(hub *feedService.Hub, allowedOrigins []string) *Handler {
	allowed := append([]string(nil), allowedOrigins...)
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// 非浏览器客户端不带 Origin
				if origin == "" {
					return true
				}
				return middleware.OriginAllowed(allowed, origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册推送路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/todos/events", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, middleware.ErrOriginUnavailable.Error())
		return
	}

	// Upgrade 在 Origin 不被允许时已返回 403
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[feed] upgrade failed for client=%s: %v", clientID, err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(clientID)
	defer h.hub.Unsubscribe(sub)
	log.Printf("[feed] subscription %s opened for client=%s", sub.ID, clientID)

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			log.Printf("[feed] subscription %s closed by client", sub.ID)
			return
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			reportDropped(sub)
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("[feed] write failed for subscription %s: %v", sub.ID, err)
				return
			}
		case <-ticker.C:
			reportDropped(sub)
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reportDropped 在存储锁之外记录丢弃的事件
func reportDropped(sub *feedService.Subscription) {
	if n := sub.TakeDropped(); n > 0 {
		log.Printf("[feed] subscription %s dropped %d events: buffer full", sub.ID, n)
	}
}

// readLoop 消费控制帧，连接断开时关闭 closed；忽略客户端数据帧
func (h *Handler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
