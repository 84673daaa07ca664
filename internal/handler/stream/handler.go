package stream

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	sessionHandler "github.com/zhouzirui/mood-story/backend/internal/handler/session"
	"github.com/zhouzirui/mood-story/backend/internal/logging"
	"github.com/zhouzirui/mood-story/backend/internal/service/pipeline"
	sessionService "github.com/zhouzirui/mood-story/backend/internal/service/session"
	"github.com/zhouzirui/mood-story/backend/pkg/utils"
)

// Handler streams pipeline progress via Server-Sent Events.
type Handler struct {
	sessions  *sessionService.Service
	generator sessionHandler.Generator
	logger    *logrus.Entry
}

// New creates a new stream handler
func New(sessions *sessionService.Service, generator sessionHandler.Generator) *Handler {
	return &Handler{
		sessions:  sessions,
		generator: generator,
		logger:    logging.For("stream"),
	}
}

// RegisterRoutes mounts the SSE endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId,omitempty"`
	State     string `json:"state,omitempty"`
	Error     string `json:"error,omitempty"`
	Status    int    `json:"status,omitempty"`
}

// handleStream runs one generation and reports every state change. The
// prompt comes from the query string, or the session's buffer when absent.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sess, err := h.sessions.Acquire(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, sessionHandler.StatusFor(err), err.Error())
		return
	}
	defer sess.Release()

	text := sess.Prompt()
	if r.URL.Query().Has("prompt") {
		text = r.URL.Query().Get("prompt")
	}
	if strings.TrimSpace(text) == "" {
		utils.RespondError(w, http.StatusBadRequest, pipeline.ErrBlankPrompt.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	logger := h.logger.WithField("session", sessionID)
	logger.Debug("stream opened")

	var writeErr error
	send := func(event string, payload any) {
		if writeErr != nil {
			return
		}
		writeErr = utils.SendSSEEvent(w, flusher, event, payload)
	}

	record, err := h.generator.Generate(r.Context(), sess, text, func(s pipeline.State) {
		send("state", StreamResponse{Event: "state", SessionID: sessionID, State: string(s)})
	})
	if err != nil {
		send("error", StreamResponse{
			Event:     "error",
			SessionID: sessionID,
			Error:     pipeline.Describe(err),
			Status:    sessionHandler.StatusFor(err),
		})
	} else {
		send("record", record)
	}
	send("end", StreamResponse{Event: "end", SessionID: sessionID})

	if writeErr != nil && !errors.Is(writeErr, r.Context().Err()) {
		logger.WithError(fmt.Errorf("write sse: %w", writeErr)).Warn("stream interrupted")
	}
}
