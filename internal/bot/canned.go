package bot

import (
	"context"
	"time"

	"github.com/emalabs/mini-ema/internal/model/chat"
)

// Canned returns a fixed fragment sequence regardless of input, for UI
// testing without an API key. The optional delay between fragments emulates
// perceived streaming.
type Canned struct {
	delay time.Duration
}

// NewCanned builds a canned bot with the given inter-fragment delay.
func NewCanned(delay time.Duration) *Canned {
	return &Canned{delay: delay}
}

// Clear is a no-op: the canned bot holds no history.
func (b *Canned) Clear() {}

// Respond yields the two fixed fragments in order.
func (b *Canned) Respond(ctx context.Context, message, username string, emit EmitFunc) error {
	fragments := []chat.Fragment{
		chat.NewFragment("[Expression: smile] [Action: wave]\n\n你好，我是Ema。", "💡 Answer"),
		chat.NewFragment("[Expression: neutral] [Action: none]\n\n请问有什么可以帮助你的吗？", "💡 Answer"),
	}

	for i, f := range fragments {
		if i > 0 && b.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(b.delay):
			}
		}
		if err := emit(f); err != nil {
			return err
		}
	}
	return nil
}
