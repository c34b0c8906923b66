package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/soothe/backend/internal/service/session"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Handler runs chat turns over a WebSocket connection.
type Handler struct {
	sessions    *session.Service
	countryCode string
	logger      *zap.Logger
	upgrader    websocket.Upgrader
}

// New 创建WebSocket处理器
func New(sessions *session.Service, countryCode string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions:    sessions,
		countryCode: countryCode,
		logger:      logger.Named("ws"),
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
	r.Get("/ws/{userID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type textMessage struct {
	Text    string `json:"text"`
	Country string `json:"country"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	UserID    string      `json:"userId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		http.Error(w, "userID is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.logger.With(zap.String("user_id", userID))
	log.Info("connection opened")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go pingLoop(ctx, conn)

	h.send(conn, userID, "connected", h.sessions.Status(userID))

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("read error", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		switch msg.Type {
		case "message":
			h.handleText(ctx, conn, userID, msg.Data)
		case "ping":
			h.send(conn, userID, "pong", nil)
		default:
			h.sendError(conn, userID, "unsupported message type: "+msg.Type)
		}
	}
}

// handleText runs one turn; a crisis turn sends the safety event before the reply.
func (h *Handler) handleText(ctx context.Context, conn *websocket.Conn, userID string, raw json.RawMessage) {
	var payload textMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(conn, userID, "invalid message payload")
		return
	}

	country := payload.Country
	if country == "" {
		country = h.countryCode
	}

	turn, err := h.sessions.HandleMessage(ctx, userID, payload.Text, country)
	if err != nil {
		if errors.Is(err, session.ErrEmptyMessage) || errors.Is(err, session.ErrUserRequired) {
			h.sendError(conn, userID, err.Error())
			return
		}
		h.logger.Error("turn failed", zap.String("user_id", userID), zap.Error(err))
		h.sendError(conn, userID, "failed to handle message")
		return
	}

	if turn.Banner != "" {
		h.send(conn, userID, "safety", map[string]any{
			"banner":    turn.Banner,
			"resources": turn.Resources,
		})
	}
	h.send(conn, userID, "reply", turn)
}

func (h *Handler) send(conn *websocket.Conn, userID, kind string, data interface{}) {
	msg := outgoingMessage{
		Type:      kind,
		UserID:    userID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Warn("write failed", zap.String("type", kind), zap.Error(err))
	}
}

func (h *Handler) sendError(conn *websocket.Conn, userID, message string) {
	h.send(conn, userID, "error", map[string]string{"message": message})
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
