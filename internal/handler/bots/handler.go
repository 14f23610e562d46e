package bots

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emalabs/mini-ema/internal/bot"
	"github.com/emalabs/mini-ema/pkg/utils"
)

// Handler exposes the bot registry to the frontend selector.
type Handler struct {
	registry *bot.Registry
}

// New creates the bots handler.
func New(registry *bot.Registry) *Handler {
	return &Handler{registry: registry}
}

// RegisterRoutes registers bot listing routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/bots", h.handleListBots)
}

type botInfo struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

func (h *Handler) handleListBots(w http.ResponseWriter, r *http.Request) {
	defaultName := h.registry.Default()

	names := h.registry.Names()
	infos := make([]botInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, botInfo{Name: name, Default: name == defaultName})
	}

	utils.RespondJSON(w, http.StatusOK, infos)
}
