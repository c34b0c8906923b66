package breathing

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/soothe/backend/internal/service/breathing"
	"github.com/zhouzirui/soothe/backend/pkg/utils"
)

// Handler streams a paced breathing exercise via Server-Sent Events.
type Handler struct {
	sleep  breathing.SleepFunc
	logger *zap.Logger
}

// New creates a breathing handler. A nil sleep uses real time.
func New(sleep breathing.SleepFunc, logger *zap.Logger) *Handler {
	if sleep == nil {
		sleep = breathing.Sleep
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sleep: sleep, logger: logger.Named("breathing")}
}

// RegisterRoutes 注册呼吸练习路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/breathing/stream", h.handleStream)
}

type stepEvent struct {
	breathing.Step
	Label string `json:"label"`
}

type doneEvent struct {
	Message string `json:"message"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	pattern, err := parsePattern(r)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := pattern.Validate(); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, breathing.ErrInvalidPattern) {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	if err := utils.SendSSEEvent(w, flusher, "start", pattern); err != nil {
		return
	}

	err = breathing.Run(r.Context(), pattern, h.sleep, func(step breathing.Step) error {
		return utils.SendSSEEvent(w, flusher, "step", stepEvent{Step: step, Label: step.Label()})
	})
	switch {
	case err == nil:
		_ = utils.SendSSEEvent(w, flusher, "done", doneEvent{Message: breathing.Completion})
	case errors.Is(err, context.Canceled):
		h.logger.Debug("client left breathing stream")
	default:
		h.logger.Warn("breathing stream aborted", zap.Error(err))
		_ = utils.SendSSEEvent(w, flusher, "error", map[string]string{"error": err.Error()})
	}
}

// parsePattern overlays query parameters onto the default pattern.
func parsePattern(r *http.Request) (breathing.Pattern, error) {
	pattern := breathing.DefaultPattern()
	query := r.URL.Query()
	for _, field := range []struct {
		key string
		dst *int
	}{
		{"inhale", &pattern.Inhale},
		{"hold", &pattern.Hold},
		{"exhale", &pattern.Exhale},
		{"cycles", &pattern.Cycles},
	} {
		raw := query.Get(field.key)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return breathing.Pattern{}, errors.New(field.key + " must be an integer")
		}
		*field.dst = value
	}
	return pattern, nil
}
