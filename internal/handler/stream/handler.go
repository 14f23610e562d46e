package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/emalabs/mini-ema/internal/avatar"
	"github.com/emalabs/mini-ema/internal/bot"
	"github.com/emalabs/mini-ema/internal/model/chat"
	chatService "github.com/emalabs/mini-ema/internal/service/chat"
	"github.com/emalabs/mini-ema/pkg/utils"
)

// Handler streams one bot turn to the page via Server-Sent Events.
type Handler struct {
	registry *bot.Registry
	chatSvc  *chatService.Service
	library  *avatar.Library
}

// New creates a new stream handler.
func New(registry *bot.Registry, chatSvc *chatService.Service, library *avatar.Library) *Handler {
	return &Handler{
		registry: registry,
		chatSvc:  chatSvc,
		library:  library,
	}
}

// StreamResponse represents one streamed event.
type StreamResponse struct {
	Event     string         `json:"event"`
	SessionID string         `json:"sessionId,omitempty"`
	Bot       string         `json:"bot,omitempty"`
	Fragment  *chat.Fragment `json:"fragment,omitempty"`
	Image     string         `json:"image,omitempty"`
	Finished  bool           `json:"finished,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// HandleStreamRequest runs a single user turn: it resolves the session's
// bot, invokes it, and forwards every fragment (with the matching portrait
// update) before the next fragment is produced. The end event is sent
// unconditionally so the page always re-enables its input.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID string, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	session, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("session not found: %v", err))
		return err
	}

	selected, resolvedName := h.registry.Resolve(session.BotName)
	if selected == nil {
		h.sendSSEError(w, flusher, "no bots registered")
		return fmt.Errorf("no bots registered")
	}

	if err := h.chatSvc.BeginTurn(sessionID); err != nil {
		if errors.Is(err, chatService.ErrTurnInProgress) {
			h.sendSSEError(w, flusher, "a response is already in flight for this session")
		} else {
			h.sendSSEError(w, flusher, err.Error())
		}
		return err
	}
	defer h.chatSvc.EndTurn(sessionID)

	userMsg := chat.Message{
		SessionID: sessionID,
		Role:      "user",
		Content:   userMessage,
	}
	if err := h.chatSvc.SaveMessage(ctx, userMsg); err != nil {
		log.Printf("[stream] failed to save user message: %v", err)
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
		Bot:       resolvedName,
	})

	err = selected.Respond(ctx, userMessage, session.Username, func(f chat.Fragment) error {
		if err := h.chatSvc.SaveMessage(ctx, chat.FromFragment(sessionID, f)); err != nil {
			log.Printf("[stream] failed to save assistant fragment: %v", err)
		}

		h.sendSSE(w, flusher, StreamResponse{
			Event:     "fragment",
			SessionID: sessionID,
			Fragment:  &f,
		})
		h.sendSSE(w, flusher, StreamResponse{
			Event:     "avatar",
			SessionID: sessionID,
			Image:     "/" + h.library.ImageForContent(f.Content),
		})

		return ctx.Err()
	})
	if err != nil {
		// Emit failures mean the client went away; the turn still ends.
		log.Printf("[stream] turn aborted for session=%s: %v", sessionID, err)
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed turn for session=%s, bot=%s", sessionID, resolvedName)
	return nil
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
