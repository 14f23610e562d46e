package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/emalabs/mini-ema/internal/avatar"
	"github.com/emalabs/mini-ema/internal/bot"
	"github.com/emalabs/mini-ema/internal/model/chat"
	chatService "github.com/emalabs/mini-ema/internal/service/chat"
)

// Handler carries chat turns over a websocket for clients that prefer a
// bidirectional connection to per-turn SSE streams. Events mirror the SSE
// stream exactly.
type Handler struct {
	registry *bot.Registry
	chatSvc  *chatService.Service
	library  *avatar.Library
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(registry *bot.Registry, chatSvc *chatService.Service, library *avatar.Library) *Handler {
	return &Handler{
		registry: registry,
		chatSvc:  chatSvc,
		library:  library,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the websocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

const (
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

type textMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId,omitempty"`
	Bot       string         `json:"bot,omitempty"`
	Fragment  *chat.Fragment `json:"fragment,omitempty"`
	Image     string         `json:"image,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		log.Printf("[ws] set read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, outgoingMessage{Type: "connected", SessionID: sessionID, Bot: session.BotName})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[ws] read error: %v", err)
				}
				return
			}

			if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
				log.Printf("[ws] set read deadline: %v", err)
				return
			}

			if msg.SessionID != "" && msg.SessionID != sessionID {
				h.sendError(conn, sessionID, "session mismatch")
				continue
			}

			h.handleMessage(ctx, conn, session, &msg)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, session chat.Session, msg *inboundMessage) {
	switch msg.Type {
	case "message":
		h.handleUserTurn(ctx, conn, session, msg.Data)
	default:
		h.sendError(conn, session.ID, "unsupported message type: "+msg.Type)
	}
}

// handleUserTurn runs one bot invocation and forwards every fragment plus
// the matching portrait update. The end event is sent unconditionally.
func (h *Handler) handleUserTurn(ctx context.Context, conn *websocket.Conn, session chat.Session, raw json.RawMessage) {
	var payload textMessage
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Text == "" {
		h.sendError(conn, session.ID, "message text is required")
		return
	}

	selected, resolvedName := h.registry.Resolve(session.BotName)
	if selected == nil {
		h.sendError(conn, session.ID, "no bots registered")
		return
	}

	if err := h.chatSvc.BeginTurn(session.ID); err != nil {
		h.sendError(conn, session.ID, err.Error())
		return
	}
	defer h.chatSvc.EndTurn(session.ID)

	userMsg := chat.Message{
		SessionID: session.ID,
		Role:      "user",
		Content:   payload.Text,
	}
	if err := h.chatSvc.SaveMessage(ctx, userMsg); err != nil {
		log.Printf("[ws] failed to save user message: %v", err)
	}

	h.send(conn, outgoingMessage{Type: "start", SessionID: session.ID, Bot: resolvedName})

	err := selected.Respond(ctx, payload.Text, session.Username, func(f chat.Fragment) error {
		if err := h.chatSvc.SaveMessage(ctx, chat.FromFragment(session.ID, f)); err != nil {
			log.Printf("[ws] failed to save assistant fragment: %v", err)
		}

		if err := h.send(conn, outgoingMessage{Type: "fragment", SessionID: session.ID, Fragment: &f}); err != nil {
			return err
		}
		return h.send(conn, outgoingMessage{
			Type:      "avatar",
			SessionID: session.ID,
			Image:     "/" + h.library.ImageForContent(f.Content),
		})
	})
	if err != nil {
		log.Printf("[ws] turn aborted for session=%s: %v", session.ID, err)
	}

	h.send(conn, outgoingMessage{Type: "end", SessionID: session.ID})
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed: %v", err)
		return err
	}
	return nil
}

func (h *Handler) sendError(conn *websocket.Conn, sessionID, message string) {
	h.send(conn, outgoingMessage{Type: "error", SessionID: sessionID, Error: message})
}
