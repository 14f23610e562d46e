// Package bot defines the chat bot capability and its implementations.
package bot

import (
	"context"
	"fmt"

	"github.com/emalabs/mini-ema/internal/model/chat"
)

// EmitFunc delivers one fragment to the caller. Fragments arrive in display
// order; the callback may flush them to the client before the next one is
// produced.
type EmitFunc func(chat.Fragment) error

// Bot generates assistant fragments for a single user turn.
//
// Implementations convert every upstream failure (missing configuration,
// network error, API error, malformed reply) into a single error fragment
// instead of returning it: the error return is reserved for emit failures
// and context cancellation, so a turn never crosses the UI boundary as a
// raised error.
type Bot interface {
	Respond(ctx context.Context, message, username string, emit EmitFunc) error

	// Clear drops any conversation history held by the bot. No-op for
	// stateless implementations.
	Clear()
}

// Registry maps display names to bot instances. It is populated once at
// startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	names []string
	bots  map[string]Bot
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bots: make(map[string]Bot)}
}

// Register adds a bot under the given display name. The first registered
// bot becomes the default.
func (r *Registry) Register(name string, b Bot) {
	if _, exists := r.bots[name]; !exists {
		r.names = append(r.names, name)
	}
	r.bots[name] = b
}

// Names lists the registered bots in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Default returns the name of the default bot, empty when none registered.
func (r *Registry) Default() string {
	if len(r.names) == 0 {
		return ""
	}
	return r.names[0]
}

// Resolve returns the bot for name, falling back to the default when the
// name is unknown. The second return is the resolved name.
func (r *Registry) Resolve(name string) (Bot, string) {
	if b, ok := r.bots[name]; ok {
		return b, name
	}
	fallback := r.Default()
	return r.bots[fallback], fallback
}

func configErrorFragment() chat.Fragment {
	return chat.NewFragment(
		"Configuration error: GEMINI_API_KEY is not set. Add it to the environment or a .env file.",
		"❌ Config Error",
	)
}

func apiErrorFragment(err error) chat.Fragment {
	return chat.NewFragment(fmt.Sprintf("API Error: %v", err), "❌ API Error")
}

func unexpectedErrorFragment(err error) chat.Fragment {
	return chat.NewFragment(fmt.Sprintf("Unexpected error: %v", err), "❌ Error")
}

func emptyReplyFragment() chat.Fragment {
	return chat.NewFragment(
		"I apologize, but I couldn't generate a response. Please try again.",
		"⚠️ Error",
	)
}
