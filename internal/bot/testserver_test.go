package bot

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emalabs/mini-ema/internal/config"
)

// fakeUpstream serves a canned chat-completions response so the API-backed
// bots can be exercised without network access.
func fakeUpstream(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func upstreamConfig(baseURL string) config.AIConfig {
	return config.AIConfig{
		APIKey:        "test-key",
		Model:         "gemini-3-flash-preview",
		BaseURL:       baseURL,
		HistoryRounds: 10,
	}
}

// completionBody renders a minimal chat-completions envelope with usage
// counts matching what the log formatter reads.
func completionBody(t *testing.T, content string, reasoningTokens int) string {
	t.Helper()

	quoted, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}

	return fmt.Sprintf(`{
		"id": "cmpl-test",
		"object": "chat.completion",
		"model": "gemini-3-flash-preview",
		"choices": [{
			"index": 0,
			"message": {"role": "assistant", "content": %s},
			"finish_reason": "stop"
		}],
		"usage": {
			"prompt_tokens": 12,
			"completion_tokens": 34,
			"total_tokens": 51,
			"completion_tokens_details": {"reasoning_tokens": %d}
		}
	}`, quoted, reasoningTokens)
}
