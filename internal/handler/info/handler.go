package info

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zhouzirui/memorable/backend/pkg/utils"
)

// ClientCounter 返回存储中的客户端分区数量
type ClientCounter interface {
	ClientCount() int
}

// AppInfo 服务信息，挂在 API 根路径
type AppInfo struct {
	AppName     string    `json:"app_name"`
	Description string    `json:"description"`
	InstanceID  string    `json:"instance_id"`
	StartedAt   time.Time `json:"started_at"`
	Clients     int       `json:"clients"`
}

// Handler 服务信息处理器。instanceID 每次重启都会变化，客户端据此得知数据已清空
type Handler struct {
	counter    ClientCounter
	instanceID string
	startedAt  time.Time
}

// New 创建服务信息处理器
func New(counter ClientCounter) *Handler {
	return &Handler{
		counter:    counter,
		instanceID: uuid.NewString(),
		startedAt:  time.Now().UTC(),
	}
}

// RegisterRoutes 注册服务信息路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleInfo)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, AppInfo{
		AppName:     "Memorable",
		Description: "In-memory todo list API. Every caller IP gets its own list; nothing survives a restart.",
		InstanceID:  h.instanceID,
		StartedAt:   h.startedAt,
		Clients:     h.counter.ClientCount(),
	})
}
