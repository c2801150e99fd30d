package handlers

import (
	"net/http"
	"sort"

	"github.com/vfiala/photo-inspector/internal/config"
)

// ConfigHandler exposes the effective configuration to the frontend.
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{config: cfg}
}

// ModelInfo describes one selectable embedding model.
type ModelInfo struct {
	Name string `json:"name"`
	Dim  int    `json:"dim"`
}

// Get returns the settings the frontend needs to render its controls.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	models := make([]ModelInfo, 0, len(h.config.Models.Models))
	for name, preset := range h.config.Models.Models {
		models = append(models, ModelInfo{Name: name, Dim: preset.Dim})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	respondJSON(w, http.StatusOK, map[string]any{
		"model":             h.config.Embedding.Model,
		"models":            models,
		"default_threshold": h.config.Cluster.Threshold,
		"extensions":        h.config.Scan.Extensions,
		"workers":           h.config.Embedding.Workers,
		"approximate":       h.config.Cluster.Approximate,
	})
}
