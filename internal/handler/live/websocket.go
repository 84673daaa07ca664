package live

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	sessionHandler "github.com/zhouzirui/mood-story/backend/internal/handler/session"
	"github.com/zhouzirui/mood-story/backend/internal/logging"
	"github.com/zhouzirui/mood-story/backend/internal/service/pipeline"
	sessionService "github.com/zhouzirui/mood-story/backend/internal/service/session"
)

const (
	defaultReadTimeout = 60 * time.Second
	writeTimeout       = 10 * time.Second
)

// WebSocketHandler WebSocket实时生成处理器
type WebSocketHandler struct {
	sessions  *sessionService.Service
	generator sessionHandler.Generator
	upgrader  websocket.Upgrader
	logger    *logrus.Entry

	// ping 必须早于读超时到达
	readTimeout  time.Duration
	pingInterval time.Duration
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(sessions *sessionService.Service, generator sessionHandler.Generator) *WebSocketHandler {
	return &WebSocketHandler{
		sessions:  sessions,
		generator: generator,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:       logging.For("websocket"),
		readTimeout:  defaultReadTimeout,
		pingInterval: defaultReadTimeout * 9 / 10,
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// GenerateMessage 生成请求，未携带 prompt 时使用会话中的草稿
type GenerateMessage struct {
	Prompt *string `json:"prompt"`
}

// HistoryMessage 历史记录请求
type HistoryMessage struct {
	Order string `json:"order"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connection 串行化写操作，gorilla 只允许一个并发写者
type connection struct {
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

func (c *connection) send(msgType string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	sess, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, err.Error(), sessionHandler.StatusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("upgrade failed")
		return
	}
	defer conn.Close()

	logger := h.logger.WithField("session", sessionID)
	logger.Info("connection opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go h.pingLoop(ctx, conn)

	c := &connection{conn: conn, sessionID: sessionID}
	h.sendInfo(c, map[string]any{
		"type":    "connected",
		"session": sess.Summary(),
	})

	for {
		// 生成期间不读取连接，每次读取前重新计算读超时
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))

		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Warn("read error")
			}
			return
		}

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(c, "session mismatch", http.StatusBadRequest)
			continue
		}

		h.handleMessage(ctx, c, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, c *connection, msg *inboundMessage) {
	switch msg.Type {
	case "generate":
		h.handleGenerate(ctx, c, msg.Data)
	case "reset":
		h.handleReset(ctx, c)
	case "history":
		h.handleHistory(ctx, c, msg.Data)
	case "ping":
		h.sendInfo(c, map[string]any{"type": "pong"})
	default:
		h.sendError(c, "unknown message type: "+msg.Type, http.StatusBadRequest)
	}
}

func (h *WebSocketHandler) handleGenerate(ctx context.Context, c *connection, raw json.RawMessage) {
	var payload GenerateMessage
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			h.sendError(c, "invalid generate payload", http.StatusBadRequest)
			return
		}
	}

	sess, err := h.sessions.Acquire(ctx, c.sessionID)
	if err != nil {
		h.sendError(c, err.Error(), sessionHandler.StatusFor(err))
		return
	}
	defer sess.Release()

	text := sess.Prompt()
	if payload.Prompt != nil {
		text = *payload.Prompt
	}

	record, err := h.generator.Generate(ctx, sess, text, func(s pipeline.State) {
		if err := c.send("state", map[string]string{"state": string(s)}); err != nil {
			h.logger.WithError(err).Debug("write state failed")
		}
	})
	if err != nil {
		h.sendError(c, pipeline.Describe(err), sessionHandler.StatusFor(err))
		return
	}

	h.sendInfo(c, map[string]any{
		"type":   "record",
		"record": record,
	})
}

func (h *WebSocketHandler) handleReset(ctx context.Context, c *connection) {
	if err := h.sessions.Reset(ctx, c.sessionID); err != nil {
		h.sendError(c, err.Error(), sessionHandler.StatusFor(err))
		return
	}
	h.sendInfo(c, map[string]any{"type": "reset"})
}

func (h *WebSocketHandler) handleHistory(ctx context.Context, c *connection, raw json.RawMessage) {
	var payload HistoryMessage
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &payload)
	}

	sess, err := h.sessions.GetSession(ctx, c.sessionID)
	if err != nil {
		h.sendError(c, err.Error(), sessionHandler.StatusFor(err))
		return
	}

	order := "insertion"
	records := sess.History().All()
	if strings.EqualFold(payload.Order, "newest") {
		order = "newest"
		records = sess.History().Newest()
	}

	h.sendInfo(c, map[string]any{
		"type":    "history",
		"order":   order,
		"records": records,
	})
}

func (h *WebSocketHandler) sendInfo(c *connection, data map[string]any) {
	if err := c.send("result", data); err != nil {
		h.logger.WithError(err).Warn("write info failed")
	}
}

func (h *WebSocketHandler) sendError(c *connection, message string, status int) {
	data := map[string]any{"message": message, "status": status}
	if err := c.send("error", data); err != nil {
		h.logger.WithError(err).Warn("write error failed")
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
