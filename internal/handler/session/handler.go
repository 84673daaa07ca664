package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/mood-story/backend/internal/model/story"
	"github.com/zhouzirui/mood-story/backend/internal/service/generation"
	"github.com/zhouzirui/mood-story/backend/internal/service/pipeline"
	"github.com/zhouzirui/mood-story/backend/internal/service/prompt"
	sessionService "github.com/zhouzirui/mood-story/backend/internal/service/session"
	"github.com/zhouzirui/mood-story/backend/pkg/utils"
)

// Generator 对单个提示词执行完整的故事生成流程
type Generator interface {
	Generate(ctx context.Context, target pipeline.Appender, text string, observe pipeline.Observer) (story.Record, error)
}

// Handler 会话与生成相关的HTTP处理器
type Handler struct {
	sessions  *sessionService.Service
	generator Generator
}

// New 创建会话处理器
func New(sessions *sessionService.Service, generator Generator) *Handler {
	return &Handler{
		sessions:  sessions,
		generator: generator,
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/moods", h.handleMoods)
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleDeleteSession)
		r.Put("/prompt", h.handleSetPrompt)
		r.Post("/generate", h.handleGenerate)
		r.Post("/reset", h.handleReset)
		r.Get("/history", h.handleHistory)
	})
}

// HistoryResponse 历史记录接口的响应体
type HistoryResponse struct {
	SessionID string         `json:"sessionId"`
	Order     string         `json:"order"`
	Records   []story.Record `json:"records"`
}

func (h *Handler) handleMoods(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, prompt.Styles())
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, sess.Summary())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess.Summary())
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetPrompt(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Prompt string `json:"prompt"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessions.SetPrompt(r.Context(), chi.URLParam(r, "sessionID"), payload.Prompt); err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerate 运行一次完整的生成流程。请求体缺少 prompt 时使用会话中的草稿。
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Prompt *string `json:"prompt"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := h.sessions.Acquire(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}
	defer sess.Release()

	text := sess.Prompt()
	if payload.Prompt != nil {
		text = *payload.Prompt
	}

	record, err := h.generator.Generate(r.Context(), sess, text, nil)
	if err != nil {
		utils.RespondError(w, StatusFor(err), pipeline.Describe(err))
		return
	}
	utils.RespondJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.sessions.Reset(r.Context(), sessionID); err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}

	sess, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess.Summary())
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, StatusFor(err), err.Error())
		return
	}

	order := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("order")))
	resp := HistoryResponse{SessionID: sess.ID(), Order: "insertion"}
	switch order {
	case "", "insertion", "oldest":
		resp.Records = sess.History().All()
	case "newest":
		resp.Order = "newest"
		resp.Records = sess.History().Newest()
	default:
		utils.RespondError(w, http.StatusBadRequest, "order must be insertion or newest")
		return
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// StatusClientClosedRequest 客户端在生成结束前断开连接（沿用 nginx 的 499）
const StatusClientClosedRequest = 499

// StatusFor 将服务层错误映射为HTTP状态码
func StatusFor(err error) int {
	var (
		storyErr *generation.StoryGenerationError
		imageErr *generation.ImageGenerationError
	)

	switch {
	case pipeline.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, sessionService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessionService.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	case errors.As(err, &storyErr), errors.As(err, &imageErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
