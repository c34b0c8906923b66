package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/soothe/backend/internal/handler/breathing"
	"github.com/zhouzirui/soothe/backend/internal/handler/chat"
	"github.com/zhouzirui/soothe/backend/internal/handler/mood"
	"github.com/zhouzirui/soothe/backend/internal/handler/resources"
	"github.com/zhouzirui/soothe/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/soothe/backend/internal/middleware"
	breathingService "github.com/zhouzirui/soothe/backend/internal/service/breathing"
	resourcesService "github.com/zhouzirui/soothe/backend/internal/service/resources"
	"github.com/zhouzirui/soothe/backend/internal/service/session"
)

// Dependencies are the services exposed over HTTP.
type Dependencies struct {
	Sessions  *session.Service
	Resources *resourcesService.Directory
	Logger    *zap.Logger
	// Sleep paces the breathing stream; nil uses real time.
	Sleep breathingService.SleepFunc
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	countryCode := deps.Resources.CountryCode()

	r.Route("/api", func(api chi.Router) {
		chat.New(deps.Sessions, countryCode).RegisterRoutes(api)
		mood.New(deps.Sessions).RegisterRoutes(api)
		resources.New(deps.Resources).RegisterRoutes(api)
		breathing.New(deps.Sleep, logger).RegisterRoutes(api)
		ws.New(deps.Sessions, countryCode, logger).RegisterRoutes(api)
	})

	return r
}
