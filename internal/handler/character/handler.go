package character

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/marvelous/backend/internal/model/character"
	"github.com/zhouzirui/marvelous/backend/pkg/utils"
)

const (
	maxBodyBytes = 100 << 10

	msgNotFound    = "Character not found"
	msgListFailed  = "Failed to read characters"
	msgCreateFail  = "Failed to create character"
	msgReadFailed  = "Failed to read character"
	msgUpdateFail  = "Failed to update character"
	msgDeleteFail  = "Failed to delete character"
	msgInvalidBody = "invalid request body"
)

// CharacterService 抽象角色业务，便于测试与替换实现
type CharacterService interface {
	List(ctx context.Context) ([]character.Character, error)
	Create(ctx context.Context, fields *character.Fields) (character.Character, error)
	Get(ctx context.Context, id int) (character.Character, error)
	Update(ctx context.Context, id int, fields *character.Fields) (character.Character, error)
	Delete(ctx context.Context, id int) error
}

// Handler 角色服务的HTTP处理器
type Handler struct {
	characters CharacterService
}

// New 创建角色处理器
func New(characters CharacterService) *Handler {
	return &Handler{
		characters: characters,
	}
}

// RegisterRoutes 注册角色相关的路由，r 应挂载在 /characters 下
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
}

// handleList 列出所有角色
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.characters.List(r.Context())
	if err != nil {
		h.respondFailure(w, r, err, msgListFailed)
		return
	}
	utils.RespondJSON(w, http.StatusOK, items)
}

// handleCreate 创建角色
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	created, err := h.characters.Create(r.Context(), fields)
	if err != nil {
		h.respondFailure(w, r, err, msgCreateFail)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

// handleGet 获取单个角色
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, msgNotFound)
		return
	}

	found, err := h.characters.Get(r.Context(), id)
	if err != nil {
		h.respondFailure(w, r, err, msgReadFailed)
		return
	}
	utils.RespondJSON(w, http.StatusOK, found)
}

// handleUpdate 合并更新角色字段，路径中的 id 为准
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, msgNotFound)
		return
	}
	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	updated, err := h.characters.Update(r.Context(), id, fields)
	if err != nil {
		h.respondFailure(w, r, err, msgUpdateFail)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

// handleDelete 删除角色
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, msgNotFound)
		return
	}

	if err := h.characters.Delete(r.Context(), id); err != nil {
		h.respondFailure(w, r, err, msgDeleteFail)
		return
	}
	utils.RespondNoContent(w)
}

func (h *Handler) decodeFields(w http.ResponseWriter, r *http.Request) (*character.Fields, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		utils.RespondError(w, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}

	fields, err := character.ParseFields(body)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}
	return fields, true
}

// respondFailure 将业务错误映射为 404 或通用 500
func (h *Handler) respondFailure(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, character.ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, msgNotFound)
		return
	}
	log.Printf("[characters] %s %s failed: %v", r.Method, r.URL.Path, err)
	utils.RespondError(w, http.StatusInternalServerError, message)
}

// parseID 非数字 id 视为查无此角色
func parseID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, false
	}
	return id, true
}
