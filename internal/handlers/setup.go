package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inkwell-blog/inkwell/internal/config"
)

// SetupHandler reports which required configuration is present. It sits
// behind the owner-only gate and returns booleans only, never values.
type SetupHandler struct {
	cfg *config.Config
}

// NewSetupHandler creates a new setup handler
func NewSetupHandler(cfg *config.Config) *SetupHandler {
	return &SetupHandler{cfg: cfg}
}

// RegisterRoutes registers setup routes on the given router
// The router should already have the /setup/api prefix
func (h *SetupHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/status", h.GetStatus).Methods("GET")
}

// GetStatus returns setup completeness for the setup wizard
func (h *SetupHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"github_app_configured":  h.cfg.GitHubClientID != "" && h.cfg.GitHubClientSecret != "",
		"repository_configured":  h.cfg.GitHubRepoOwner != "" && h.cfg.GitHubRepoName != "",
		"signing_key_configured": h.cfg.JWTSecret != "",
		"production":             h.cfg.IsProduction(),
	})
}
