package resources

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/soothe/backend/internal/service/resources"
	"github.com/zhouzirui/soothe/backend/pkg/utils"
)

// Handler 紧急资源的HTTP处理器
type Handler struct {
	directory *resources.Directory
}

// New 创建资源处理器
func New(directory *resources.Directory) *Handler {
	return &Handler{directory: directory}
}

// RegisterRoutes 注册资源相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/resources", h.handleListResources)
}

type resourcesResponse struct {
	Country string   `json:"country"`
	Banner  string   `json:"banner"`
	Lines   []string `json:"lines"`
}

func (h *Handler) handleListResources(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")
	if country == "" {
		country = h.directory.CountryCode()
	}

	utils.RespondJSON(w, http.StatusOK, resourcesResponse{
		Country: resources.Normalize(country),
		Banner:  h.directory.SafetyBanner(country),
		Lines:   h.directory.EmergencyLines(country),
	})
}
