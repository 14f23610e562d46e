package bots

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/emalabs/mini-ema/internal/bot"
)

func TestListBots(t *testing.T) {
	registry := bot.NewRegistry()
	registry.Register("SimpleBot", bot.NewCanned(0))
	registry.Register("BareGeminiBot", bot.NewCanned(0))

	r := chi.NewRouter()
	New(registry).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/bots", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var infos []struct {
		Name    string `json:"name"`
		Default bool   `json:"default"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if len(infos) != 2 {
		t.Fatalf("expected 2 bots, got %d", len(infos))
	}
	if infos[0].Name != "SimpleBot" || !infos[0].Default {
		t.Fatalf("expected SimpleBot as default first entry, got %+v", infos[0])
	}
	if infos[1].Default {
		t.Fatalf("only the first bot should be default, got %+v", infos[1])
	}
}

func TestListBotsEmptyRegistry(t *testing.T) {
	r := chi.NewRouter()
	New(bot.NewRegistry()).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/bots", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty list, got %q", body)
	}
}
