package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emalabs/mini-ema/internal/avatar"
	"github.com/emalabs/mini-ema/internal/bot"
	"github.com/emalabs/mini-ema/internal/config"
	chatModel "github.com/emalabs/mini-ema/internal/model/chat"
	chatService "github.com/emalabs/mini-ema/internal/service/chat"
	"github.com/emalabs/mini-ema/pkg/utils"
)

// Handler serves session lifecycle endpoints.
type Handler struct {
	chatSvc  *chatService.Service
	registry *bot.Registry
	library  *avatar.Library
	assets   config.AssetConfig
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, registry *bot.Registry, library *avatar.Library, assets config.AssetConfig) *Handler {
	return &Handler{
		chatSvc:  chatSvc,
		registry: registry,
		library:  library,
		assets:   assets,
	}
}

// RegisterRoutes registers session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}/transcript", h.handleTranscript)
	r.Post("/session/{sessionID}/clear", h.handleClear)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		BotName  string `json:"botName"`
		Username string `json:"username"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.BotName == "" {
		payload.BotName = h.registry.Default()
	}
	if payload.Username == "" {
		payload.Username = "Phoenix"
	}

	// Unknown names collapse to the default bot, mirroring the selector
	// fallback in the frontend.
	_, resolvedName := h.registry.Resolve(payload.BotName)
	if resolvedName == "" {
		utils.RespondError(w, http.StatusServiceUnavailable, "no bots registered")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), resolvedName, payload.Username)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, sessionResponse{
		Session:    session,
		UserAvatar: "/" + h.assets.UserAvatar,
		BotAvatar:  "/" + h.assets.BotAvatar,
	})
}

// sessionResponse carries the avatar URLs alongside the session so the page
// can render chat bubbles without a second round trip.
type sessionResponse struct {
	chatModel.Session
	UserAvatar string `json:"userAvatar"`
	BotAvatar  string `json:"botAvatar"`
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	messages, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleClear resets the session transcript, the selected bot's history
// and the character portrait. Backs the clear button and the
// bot-selector change in the UI.
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.chatSvc.ClearTranscript(r.Context(), sessionID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	selected, _ := h.registry.Resolve(session.BotName)
	if selected != nil {
		selected.Clear()
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status": "cleared",
		"image":  "/" + h.library.ImagePath(avatar.DefaultExpression, avatar.DefaultAction),
	})
}
