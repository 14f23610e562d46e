package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/emalabs/mini-ema/internal/avatar"
	"github.com/emalabs/mini-ema/internal/bot"
	"github.com/emalabs/mini-ema/internal/config"
	chatmodel "github.com/emalabs/mini-ema/internal/model/chat"
	chatservice "github.com/emalabs/mini-ema/internal/service/chat"
)

// failingConfig has no API key, so the direct bot reports a configuration
// error fragment without touching the network.
func failingConfig() config.AIConfig {
	return config.AIConfig{Model: "gemini-3-flash-preview"}
}

func setup(t *testing.T) (*Handler, *chatservice.Service) {
	t.Helper()

	chatSvc := chatservice.NewService()
	registry := bot.NewRegistry()
	registry.Register("SimpleBot", bot.NewCanned(0))
	library := avatar.NewLibrary(t.TempDir(), "assets/imgs/ema.png")

	return New(registry, chatSvc, library), chatSvc
}

func decodeEvents(t *testing.T, body string) []StreamResponse {
	t.Helper()

	var events []StreamResponse
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev StreamResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func eventsOfType(events []StreamResponse, name string) []StreamResponse {
	var out []StreamResponse
	for _, ev := range events {
		if ev.Event == name {
			out = append(out, ev)
		}
	}
	return out
}

func TestStreamCannedTurnEndToEnd(t *testing.T) {
	h, chatSvc := setup(t)
	ctx := context.Background()

	session, err := chatSvc.CreateSession(ctx, "SimpleBot", "Phoenix")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	resp := httptest.NewRecorder()
	if err := h.HandleStreamRequest(ctx, resp, session.ID, "Hello"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	events := decodeEvents(t, resp.Body.String())
	if len(events) == 0 {
		t.Fatal("no SSE events written")
	}

	if events[0].Event != "start" {
		t.Fatalf("first event = %s, want start", events[0].Event)
	}
	if events[0].Bot != "SimpleBot" {
		t.Fatalf("start event bot = %s", events[0].Bot)
	}
	if last := events[len(events)-1]; last.Event != "end" || !last.Finished {
		t.Fatalf("last event = %+v, want finished end", last)
	}

	fragments := eventsOfType(events, "fragment")
	if len(fragments) != 2 {
		t.Fatalf("expected 2 fragment events, got %d", len(fragments))
	}
	if !strings.Contains(fragments[0].Fragment.Content, "你好，我是Ema。") {
		t.Fatalf("unexpected first fragment: %q", fragments[0].Fragment.Content)
	}
	if fragments[0].Fragment.Role != chatmodel.RoleAssistant {
		t.Fatalf("fragment role = %s", fragments[0].Fragment.Role)
	}

	avatars := eventsOfType(events, "avatar")
	if len(avatars) != 2 {
		t.Fatalf("expected an avatar event per fragment, got %d", len(avatars))
	}
	// No portrait files in the temp dir, so every pair falls back.
	if avatars[0].Image != "/assets/imgs/ema.png" {
		t.Fatalf("unexpected avatar image: %s", avatars[0].Image)
	}

	// Transcript mirrors the turn: user message plus both fragments.
	messages, err := chatSvc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 transcript messages, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[0].Content != "Hello" {
		t.Fatalf("unexpected first transcript entry: %+v", messages[0])
	}
	if messages[1].Content != fragments[0].Fragment.Content {
		t.Fatal("transcript content differs from streamed fragment")
	}
	if messages[1].Metadata == nil || messages[1].Metadata.Title != fragments[0].Fragment.Metadata.Title {
		t.Fatal("transcript metadata differs from streamed fragment")
	}
}

func TestStreamUnknownSession(t *testing.T) {
	h, _ := setup(t)

	resp := httptest.NewRecorder()
	if err := h.HandleStreamRequest(context.Background(), resp, "missing", "Hello"); err == nil {
		t.Fatal("expected error for unknown session")
	}

	events := decodeEvents(t, resp.Body.String())
	if len(events) != 1 || events[0].Event != "error" {
		t.Fatalf("expected a single error event, got %+v", events)
	}
}

func TestStreamRejectsConcurrentTurn(t *testing.T) {
	h, chatSvc := setup(t)
	ctx := context.Background()

	session, _ := chatSvc.CreateSession(ctx, "SimpleBot", "Phoenix")
	if err := chatSvc.BeginTurn(session.ID); err != nil {
		t.Fatalf("BeginTurn err: %v", err)
	}

	resp := httptest.NewRecorder()
	if err := h.HandleStreamRequest(ctx, resp, session.ID, "Hello"); err == nil {
		t.Fatal("expected in-progress turn to be rejected")
	}

	chatSvc.EndTurn(session.ID)

	// The gate resets: the next turn runs to completion.
	resp = httptest.NewRecorder()
	if err := h.HandleStreamRequest(ctx, resp, session.ID, "Hello"); err != nil {
		t.Fatalf("turn after EndTurn err: %v", err)
	}
	events := decodeEvents(t, resp.Body.String())
	if last := events[len(events)-1]; last.Event != "end" {
		t.Fatalf("expected end event, got %+v", last)
	}
}

func TestStreamErrorFragmentStillEnds(t *testing.T) {
	chatSvc := chatservice.NewService()
	registry := bot.NewRegistry()
	registry.Register("BareGeminiBot", bot.NewDirect(failingConfig()))
	library := avatar.NewLibrary(t.TempDir(), "assets/imgs/ema.png")
	h := New(registry, chatSvc, library)

	ctx := context.Background()
	session, _ := chatSvc.CreateSession(ctx, "BareGeminiBot", "Phoenix")

	resp := httptest.NewRecorder()
	if err := h.HandleStreamRequest(ctx, resp, session.ID, "Hello"); err != nil {
		t.Fatalf("HandleStreamRequest err: %v", err)
	}

	events := decodeEvents(t, resp.Body.String())
	fragments := eventsOfType(events, "fragment")
	if len(fragments) != 1 {
		t.Fatalf("expected exactly 1 error fragment, got %d", len(fragments))
	}
	if fragments[0].Fragment.Metadata == nil || !strings.Contains(fragments[0].Fragment.Metadata.Title, "Config Error") {
		t.Fatalf("unexpected fragment metadata: %+v", fragments[0].Fragment.Metadata)
	}
	if last := events[len(events)-1]; last.Event != "end" {
		t.Fatalf("end event must follow error fragments, got %+v", last)
	}

	// Input can be re-enabled: the session is idle again.
	if err := chatSvc.BeginTurn(session.ID); err != nil {
		t.Fatalf("session still busy after error turn: %v", err)
	}
}
