package chat

// RoleAssistant is the only role bots are allowed to emit; user turns are
// appended by the frontend, never by bot code.
const RoleAssistant = "assistant"

// Metadata carries the optional display title and raw usage log for a bubble.
type Metadata struct {
	Title string `json:"title,omitempty"`
	Log   string `json:"log,omitempty"`
}

// Fragment is one discrete assistant chat bubble. Immutable once produced.
type Fragment struct {
	Role     string    `json:"role"`
	Content  string    `json:"content"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// NewFragment builds an assistant fragment with an optional title.
func NewFragment(content, title string) Fragment {
	f := Fragment{Role: RoleAssistant, Content: content}
	if title != "" {
		f.Metadata = &Metadata{Title: title}
	}
	return f
}
