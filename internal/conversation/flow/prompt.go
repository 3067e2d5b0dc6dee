package flow

import (
	"strings"

	"github.com/ain9900/custom-chatbot-saas/internal/completion"
	"github.com/ain9900/custom-chatbot-saas/internal/config"
	"github.com/ain9900/custom-chatbot-saas/internal/memory"
)

const contextPrefix = "Relevant: "

// buildPrompt orders the prompt as system, history, retrieved context, then
// the new user message. The window already ends with that message after
// BeginTurn, so the trailing copy is dropped from history.
func buildPrompt(systemPrompt string, window []memory.Entry, snippets []string, userText string) []completion.Message {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = config.DefaultSystemPrompt
	}
	history := window
	if n := len(history); n > 0 && history[n-1].Role == memory.RoleUser && history[n-1].Text == userText {
		history = history[:n-1]
	}

	messages := make([]completion.Message, 0, len(history)+len(snippets)+2)
	messages = append(messages, completion.Message{Role: completion.RoleSystem, Content: systemPrompt})
	for _, entry := range history {
		role := completion.RoleUser
		if entry.Role == memory.RoleAssistant {
			role = completion.RoleAssistant
		}
		messages = append(messages, completion.Message{Role: role, Content: entry.Text})
	}
	for _, snippet := range snippets {
		if strings.TrimSpace(snippet) == "" {
			continue
		}
		messages = append(messages, completion.Message{Role: completion.RoleSystem, Content: contextPrefix + snippet})
	}
	messages = append(messages, completion.Message{Role: completion.RoleUser, Content: userText})
	return messages
}
