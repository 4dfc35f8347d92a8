package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zhouzirui/memorable/backend/internal/config"
	feedHandler "github.com/zhouzirui/memorable/backend/internal/handler/feed"
	"github.com/zhouzirui/memorable/backend/internal/handler/info"
	todoHandler "github.com/zhouzirui/memorable/backend/internal/handler/todo"
	"github.com/zhouzirui/memorable/backend/internal/middleware"
	feedService "github.com/zhouzirui/memorable/backend/internal/service/feed"
	todoService "github.com/zhouzirui/memorable/backend/internal/service/todo"
)

// TodoStore 路由所需的存储接口
type TodoStore interface {
	todoService.Store
	info.ClientCounter
}

// NewRouter 将 HTTP 路由绑定到核心服务。hub 为 nil 时不提供变更推送。
func NewRouter(cfg config.ServerConfig, todos TodoStore, hub *feedService.Hub) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(api chi.Router) {
		info.New(todos).RegisterRoutes(api)

		api.Group(func(scoped chi.Router) {
			scoped.Use(middleware.ClientID)

			todoHandler.New(todos, cfg.MaxBodyBytes).RegisterRoutes(scoped)

			// WebSocket 推送复用 CORS 白名单
			if hub != nil {
				feedHandler.New(hub, cfg.AllowedOrigins).RegisterRoutes(scoped)
			}
		})
	})

	return r
}
