package bot

import (
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
)

// formatUsageLog renders the response envelope as the compact plain-text
// log shown under a bubble:
//
//	Model: m | Finish: Stop | Prompt: 12 | Response: 34 | Thoughts: 5 | Total: 51
//
// The Thoughts part is present only when the model reported reasoning
// tokens.
func formatUsageLog(model, finishReason string, usage openai.CompletionUsage) string {
	parts := []string{
		fmt.Sprintf("Model: %s", model),
		fmt.Sprintf("Finish: %s", capitalize(finishReason)),
		fmt.Sprintf("Prompt: %d", usage.PromptTokens),
		fmt.Sprintf("Response: %d", usage.CompletionTokens),
	}

	if thoughts := usage.CompletionTokensDetails.ReasoningTokens; thoughts > 0 {
		parts = append(parts, fmt.Sprintf("Thoughts: %d", thoughts))
	}

	parts = append(parts, fmt.Sprintf("Total: %d", usage.TotalTokens))
	return strings.Join(parts, " | ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
