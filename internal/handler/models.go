package handler

import (
	"net/http"

	"prooftree/internal/config"
	"prooftree/internal/httputil"
)

// ProviderLister reports which chat providers are usable.
type ProviderLister interface {
	Available() map[string]bool
}

// ModelsHandler reports the configured models and provider availability.
type ModelsHandler struct {
	config    *config.Config
	providers ProviderLister
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(cfg *config.Config, providers ProviderLister) *ModelsHandler {
	return &ModelsHandler{
		config:    cfg,
		providers: providers,
	}
}

// ModelsResponse is the body of GET /api/models.
type ModelsResponse struct {
	DefaultModel string          `json:"default_model"`
	JudgeModel   string          `json:"judge_model"`
	FanOutCap    int             `json:"fan_out_cap"`
	Providers    map[string]bool `json:"providers"`
}

// GetModels returns provider availability
// GET /api/models
func (h *ModelsHandler) GetModels(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, ModelsResponse{
		DefaultModel: h.config.DefaultModel,
		JudgeModel:   h.config.JudgeModel,
		FanOutCap:    h.config.FanOutCap,
		Providers:    h.providers.Available(),
	})
}
