package todo

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/memorable/backend/internal/middleware"
	"github.com/zhouzirui/memorable/backend/internal/model/todo"
	todoService "github.com/zhouzirui/memorable/backend/internal/service/todo"
	"github.com/zhouzirui/memorable/backend/pkg/utils"
)

const defaultMaxBodyBytes = 1 << 20

// Handler todo 服务的HTTP处理器，路由需挂在 ClientID 中间件之后
type Handler struct {
	store        todoService.Store
	maxBodyBytes int64
}

// New 创建todo处理器，maxBodyBytes 非正数时使用 1 MiB
func New(store todoService.Store, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		store:        store,
		maxBodyBytes: maxBodyBytes,
	}
}

// RegisterRoutes 注册todo相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/todos", h.handleList)
	r.Post("/todos", h.handleCreate)
	r.Get("/todos/{id}", h.handleGet)
	r.Put("/todos/{id}", h.handleUpdate)
	r.Delete("/todos/{id}", h.handleDelete)
}

type createPayload struct {
	Title  *string `json:"title"`
	Desc   *string `json:"desc"`
	IsDone *bool   `json:"is_done"`
}

type createResponse struct {
	Message string    `json:"message"`
	Todo    todo.Todo `json:"todo"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClientID(w, r)
	if !ok {
		return
	}

	items, err := h.store.List(r.Context(), clientID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, items)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClientID(w, r)
	if !ok {
		return
	}

	var payload createPayload
	if !h.decode(w, r, &payload) {
		return
	}
	if payload.Title == nil || payload.Desc == nil || payload.IsDone == nil {
		utils.RespondError(w, http.StatusBadRequest, "title, desc and is_done are required")
		return
	}

	created, err := h.store.Create(r.Context(), clientID, todo.CreateRequest{
		Title:  *payload.Title,
		Desc:   *payload.Desc,
		IsDone: *payload.IsDone,
	})
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, createResponse{
		Message: "todo created successfully",
		Todo:    created,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClientID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	item, err := h.store.Get(r.Context(), clientID, id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClientID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var payload todo.UpdateRequest
	if !h.decode(w, r, &payload) {
		return
	}

	item, err := h.store.Update(r.Context(), clientID, id, payload)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, item)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	clientID, ok := requireClientID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), clientID, id); err != nil {
		h.respondStoreError(w, err)
		return
	}
	utils.RespondMessage(w, http.StatusOK, "todo deleted successfully")
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, todoService.ErrTodoNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, todoService.ErrClientIDRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[todo] store error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

func requireClientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	clientID, ok := middleware.ClientIDFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, middleware.ErrOriginUnavailable.Error())
		return "", false
	}
	return clientID, true
}

// parseID 对不可能存在的 id 直接返回 404
func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(w, http.StatusNotFound, todoService.ErrTodoNotFound.Error())
		return 0, false
	}
	return id, true
}
