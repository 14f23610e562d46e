package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/emalabs/mini-ema/internal/avatar"
	"github.com/emalabs/mini-ema/internal/bot"
	"github.com/emalabs/mini-ema/internal/config"
	"github.com/emalabs/mini-ema/internal/handler"
	chatservice "github.com/emalabs/mini-ema/internal/service/chat"
)

const assetsRoot = "assets"

func main() {
	host := flag.String("host", "", "listen host (overrides HOST)")
	port := flag.String("port", "", "listen port (overrides PORT)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}
	if *host != "" {
		os.Setenv("HOST", *host)
	}
	if *port != "" {
		os.Setenv("PORT", *port)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if cfg.AI.Enabled() {
		log.Printf("generative API configured, model=%s", cfg.AI.Model)
	} else {
		log.Println("GEMINI_API_KEY not set - API-backed bots will report a configuration error per call")
	}

	library := avatar.NewLibrary(cfg.Assets.PortraitDir, cfg.Assets.BotAvatar)

	// The registry is read-only after this point; the first bot is the
	// default selection.
	registry := bot.NewRegistry()
	registry.Register("SimpleBot", bot.NewCanned(cfg.Assets.CannedDelay))
	registry.Register("BareGeminiBot", bot.NewDirect(cfg.AI))
	registry.Register("PrettyGeminiBot", bot.NewStructured(cfg.AI))

	chatService := chatservice.NewService()

	router := handler.NewRouter(registry, chatService, library, cfg.Assets, assetsRoot)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Mini Ema listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
