package chat

import "time"

// Message persists individual turns for audit/debug. Bot-produced entries
// mirror the emitted fragment exactly; the server never rewrites content
// or metadata on append.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Metadata  *Metadata `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromFragment wraps a bot fragment into a transcript entry.
func FromFragment(sessionID string, f Fragment) Message {
	return Message{
		SessionID: sessionID,
		Role:      f.Role,
		Content:   f.Content,
		Metadata:  f.Metadata,
	}
}
