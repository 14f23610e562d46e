package bot

import (
	"context"

	"github.com/openai/openai-go/v3"

	"github.com/emalabs/mini-ema/internal/config"
	"github.com/emalabs/mini-ema/internal/model/chat"
)

// Direct forwards the user message verbatim to the chat-completions
// endpoint and wraps the raw text reply as a single fragment whose log
// carries the usage envelope.
type Direct struct {
	client  openai.Client
	cfg     config.AIConfig
	history *ConversationHistory
}

// NewDirect builds the direct pass-through bot. A missing API key does not
// fail construction; the bot reports it as a configuration error fragment
// on every call instead.
func NewDirect(cfg config.AIConfig) *Direct {
	b := &Direct{
		cfg:     cfg,
		history: NewConversationHistory(cfg.HistoryRounds),
	}
	if cfg.Enabled() {
		b.client, _ = cfg.NewClient()
	}
	return b
}

// Clear drops the conversation history.
func (b *Direct) Clear() {
	b.history.Clear()
}

// Respond performs one blocking completion call and emits a single
// fragment: the reply on success, an error fragment otherwise.
func (b *Direct) Respond(ctx context.Context, message, username string, emit EmitFunc) error {
	if !b.cfg.Enabled() {
		return emit(configErrorFragment())
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(b.cfg.Model),
		Messages: append(b.history.Recent(), openai.UserMessage(message)),
	}
	if b.cfg.Temperature != nil {
		params.Temperature = openai.Float(*b.cfg.Temperature)
	}
	if b.cfg.MaxTokens != nil {
		params.MaxTokens = openai.Int(int64(*b.cfg.MaxTokens))
	}

	resp, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return emit(apiErrorFragment(err))
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return emit(emptyReplyFragment())
	}

	choice := resp.Choices[0]
	content := choice.Message.Content

	b.history.Add(openai.UserMessage(message), openai.AssistantMessage(content))

	return emit(chat.Fragment{
		Role:    chat.RoleAssistant,
		Content: content,
		Metadata: &chat.Metadata{
			Title: "💡 Answer",
			Log:   formatUsageLog(resp.Model, string(choice.FinishReason), resp.Usage),
		},
	})
}
