package mood

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	moodModel "github.com/zhouzirui/soothe/backend/internal/model/mood"
	"github.com/zhouzirui/soothe/backend/internal/service/session"
	"github.com/zhouzirui/soothe/backend/internal/storage"
	"github.com/zhouzirui/soothe/backend/pkg/utils"
)

// Handler serves daily mood check-ins.
type Handler struct {
	sessions *session.Service
}

func New(sessions *session.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes 注册心情打卡路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/mood", h.handleCheckIn)
	r.Get("/mood/{userID}", h.handleSeries)
}

type checkInRequest struct {
	UserID string `json:"userId"`
	Mood   int    `json:"mood"`
	Note   string `json:"note"`
	// Date defaults to today when empty.
	Date string `json:"date"`
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.sessions.CheckInMood(r.Context(), req.UserID, req.Mood, req.Note, req.Date)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidMood) || errors.Is(err, storage.ErrUserRequired) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to save mood")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleSeries(w http.ResponseWriter, r *http.Request) {
	days := moodModel.DefaultSeriesDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.RespondError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	points, err := h.sessions.MoodSeries(r.Context(), chi.URLParam(r, "userID"), days)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load mood series")
		return
	}
	if points == nil {
		points = []moodModel.Point{}
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"points": points})
}
