package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/emalabs/mini-ema/internal/avatar"
	botPkg "github.com/emalabs/mini-ema/internal/bot"
	"github.com/emalabs/mini-ema/internal/config"
	"github.com/emalabs/mini-ema/internal/handler/bots"
	"github.com/emalabs/mini-ema/internal/handler/chat"
	"github.com/emalabs/mini-ema/internal/handler/stream"
	"github.com/emalabs/mini-ema/internal/handler/ui"
	"github.com/emalabs/mini-ema/internal/handler/ws"
	middlewarePkg "github.com/emalabs/mini-ema/internal/middleware"
	chatService "github.com/emalabs/mini-ema/internal/service/chat"
	"github.com/emalabs/mini-ema/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(registry *botPkg.Registry, chatSvc *chatService.Service, library *avatar.Library, assets config.AssetConfig, assetsRoot string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	botsHandler := bots.New(registry)
	chatHandler := chat.New(chatSvc, registry, library, assets)
	streamHandler := stream.New(registry, chatSvc, library)
	wsHandler := ws.New(registry, chatSvc, library)

	r.Route("/api", func(api chi.Router) {
		botsHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		api.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
			sessionID := chi.URLParam(r, "sessionID")
			userMessage := r.URL.Query().Get("message")

			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})
	})

	uiHandler := ui.New(assetsRoot)
	uiHandler.RegisterRoutes(r)

	return r
}
