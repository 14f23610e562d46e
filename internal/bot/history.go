package bot

import (
	"sync"

	"github.com/openai/openai-go/v3"
)

// ConversationHistory keeps a bounded window of prior turns for the
// API-backed bots. A round is a user message plus the assistant reply; the
// window trims from the front on add so the most recent rounds survive.
// Safe for concurrent use: bot instances are process-wide and may serve
// several browser sessions at once.
type ConversationHistory struct {
	mu          sync.Mutex
	messages    []openai.ChatCompletionMessageParamUnion
	maxMessages int
}

const messagesPerRound = 2

// NewConversationHistory returns a history bounded to maxRounds rounds.
// With maxRounds <= 0 nothing is retained.
func NewConversationHistory(maxRounds int) *ConversationHistory {
	if maxRounds < 0 {
		maxRounds = 0
	}
	return &ConversationHistory{maxMessages: maxRounds * messagesPerRound}
}

// Add appends messages and trims the window to capacity.
func (h *ConversationHistory) Add(messages ...openai.ChatCompletionMessageParamUnion) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxMessages == 0 {
		return
	}

	h.messages = append(h.messages, messages...)
	if excess := len(h.messages) - h.maxMessages; excess > 0 {
		h.messages = append(h.messages[:0], h.messages[excess:]...)
	}
}

// Recent returns a copy of the retained messages, oldest first.
func (h *ConversationHistory) Recent() []openai.ChatCompletionMessageParamUnion {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]openai.ChatCompletionMessageParamUnion, len(h.messages))
	copy(out, h.messages)
	return out
}

// Clear drops all retained messages.
func (h *ConversationHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// Len reports the number of retained messages.
func (h *ConversationHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}
