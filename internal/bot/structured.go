package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/emalabs/mini-ema/internal/avatar"
	"github.com/emalabs/mini-ema/internal/config"
	"github.com/emalabs/mini-ema/internal/model/chat"
)

// StructuredReply is the schema-constrained shape the model must return.
type StructuredReply struct {
	Think      string `json:"think"`
	Expression string `json:"expression"`
	Action     string `json:"action"`
	Speak      string `json:"speak"`
}

const personaInstruction = `You are Ema, a helpful AI assistant with knowledge about various topics.

You are knowledgeable and friendly, focusing on providing clear and helpful responses in a natural, conversational way.

When responding:
- Express your thoughts internally (think field)
- Show appropriate facial expressions based on the conversation
- Perform physical actions naturally when appropriate
- Speak to the user in a friendly and casual conversational style

Important guidelines:
- Keep your responses concise and to the point. Don't write overly long explanations.
- Use a casual, natural tone for everyday conversations.
- Be friendly and approachable in your communication.

Always respond in the same language as the user's input. If they write in English, respond in English. If they write in Chinese, respond in Chinese.`

// replySchema constrains the model output to StructuredReply. The enum
// tables come from the avatar package so the schema and the portrait file
// naming stay in sync.
func replySchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"think": map[string]any{
				"type":        "string",
				"description": "The character's internal thoughts.",
			},
			"expression": map[string]any{
				"type":        "string",
				"enum":        avatar.Expressions(),
				"description": "The character's facial expression. Use 'neutral' if unsure.",
			},
			"action": map[string]any{
				"type":        "string",
				"enum":        avatar.Actions(),
				"description": "The character's physical action. Use 'none' if unsure.",
			},
			"speak": map[string]any{
				"type":        "string",
				"description": "The character's spoken words to the user.",
			},
		},
		"required":             []string{"think", "expression", "action", "speak"},
		"additionalProperties": false,
	}
}

// Structured requests a schema-constrained character reply and splits it
// into a thinking fragment and an answer fragment. The expression/action
// pair travels to the UI as indicator tags inside the answer content.
type Structured struct {
	client  openai.Client
	cfg     config.AIConfig
	history *ConversationHistory
}

// NewStructured builds the structured-output bot; like NewDirect, a
// missing API key only surfaces per call.
func NewStructured(cfg config.AIConfig) *Structured {
	b := &Structured{
		cfg:     cfg,
		history: NewConversationHistory(cfg.HistoryRounds),
	}
	if cfg.Enabled() {
		b.client, _ = cfg.NewClient()
	}
	return b
}

// Clear drops the conversation history.
func (b *Structured) Clear() {
	b.history.Clear()
}

// Respond performs one schema-constrained completion call. Success emits
// exactly two fragments; any failure collapses to one error fragment.
func (b *Structured) Respond(ctx context.Context, message, username string, emit EmitFunc) error {
	if !b.cfg.Enabled() {
		return emit(configErrorFragment())
	}

	// Tag convention so the model can address the user by name without
	// confusing name and message.
	formatted := fmt.Sprintf("<username>%s</username>\n<user_message>%s</user_message>", username, message)

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(personaInstruction)}
	messages = append(messages, b.history.Recent()...)
	messages = append(messages, openai.UserMessage(formatted))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(b.cfg.Model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "ema_message",
					Description: openai.String("Structured character reply with thoughts, expression, action and speech."),
					Schema:      replySchema(),
					Strict:      openai.Bool(true),
				},
			},
		},
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
	if len(resp.Choices) == 0 {
		return emit(unexpectedErrorFragment(errors.New("no candidates in response")))
	}

	choice := resp.Choices[0]

	var reply StructuredReply
	if err := json.Unmarshal([]byte(choice.Message.Content), &reply); err != nil {
		return emit(unexpectedErrorFragment(err))
	}

	b.history.Add(openai.UserMessage(formatted), openai.AssistantMessage(choice.Message.Content))

	if err := emit(chat.NewFragment(reply.Think, "🤔 Thinking")); err != nil {
		return err
	}

	return emit(chat.Fragment{
		Role:    chat.RoleAssistant,
		Content: answerContent(reply),
		Metadata: &chat.Metadata{
			Title: avatar.Emoji(reply.Expression) + " Answer",
			Log:   formatUsageLog(resp.Model, string(choice.FinishReason), resp.Usage),
		},
	})
}

// answerContent prefixes the spoken text with indicator tags for any
// non-default expression/action so the UI can pick the portrait.
func answerContent(reply StructuredReply) string {
	var indicators []string
	if reply.Expression != "" && reply.Expression != avatar.DefaultExpression {
		indicators = append(indicators, fmt.Sprintf("[Expression: %s]", reply.Expression))
	}
	if reply.Action != "" && reply.Action != avatar.DefaultAction {
		indicators = append(indicators, fmt.Sprintf("[Action: %s]", reply.Action))
	}

	if len(indicators) == 0 {
		return reply.Speak
	}
	return strings.Join(indicators, " ") + "\n\n" + reply.Speak
}
