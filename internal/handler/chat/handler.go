package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	chatModel "github.com/zhouzirui/soothe/backend/internal/model/chat"
	"github.com/zhouzirui/soothe/backend/internal/service/session"
	"github.com/zhouzirui/soothe/backend/pkg/utils"
)

const defaultTranscriptLimit = 50

// Handler 聊天服务的HTTP处理器
type Handler struct {
	sessions *session.Service
	// countryCode is used when a request carries no locale.
	countryCode string
}

// New 创建聊天处理器
func New(sessions *session.Service, countryCode string) *Handler {
	return &Handler{
		sessions:    sessions,
		countryCode: countryCode,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/users", h.handleRegisterUser)
	r.Post("/messages", h.handleSendMessage)
	r.Get("/messages/{userID}", h.handleTranscript)
	r.Get("/status", h.handleStatus)
	r.Get("/status/{userID}", h.handleStatus)
}

func (h *Handler) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID      string  `json:"userId"`
		DisplayName *string `json:"displayName"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := h.sessions.RegisterUser(r.Context(), payload.UserID, payload.DisplayName)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{"userId": userID})
}

// handleSendMessage runs one chat turn and returns it.
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID  string `json:"userId"`
		Text    string `json:"text"`
		Country string `json:"country"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	country := payload.Country
	if country == "" {
		country = h.countryCode
	}

	turn, err := h.sessions.HandleMessage(r.Context(), payload.UserID, payload.Text, country)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrUserRequired) || errors.Is(err, session.ErrEmptyMessage) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, turn)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	limit := defaultTranscriptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.sessions.Transcript(r.Context(), chi.URLParam(r, "userID"), limit)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}

	if entries == nil {
		entries = []chatModel.LogEntry{}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": entries})
}

// handleStatus reports the reply mode, plus the caller's last reply outcome
// when a userID is given.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.sessions.Status(chi.URLParam(r, "userID")))
}
