// Package assistant answers customer messages with an LLM, keeping each
// user's conversation in the session memory store.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/alerts"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/llm"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/logger"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/memory"
)

const (
	historyLength = 10

	// FallbackReply is what edges send when a reply could not be produced.
	FallbackReply = "Something went wrong."
)

const systemPrompt = `You are a customer service representative for an online clothing store.
Be friendly, concise and accurate. Use the conversation so far to resolve
references like "it", "that order" or "what I said earlier". If you do not
know something, say so and suggest contacting support.`

const helpText = `Hi! I'm the store assistant. Ask me anything about products, orders or returns.

Commands:
/history - show our recent conversation
/last - repeat my last answer
/said - show your last message
/reset - forget this conversation
/help - show this message`

type Assistant struct {
	llm           llm.LLM
	memory        *memory.Store
	contextLength int
	alerts        *alerts.Alerter
}

func New(model llm.LLM, store *memory.Store, contextLength int) *Assistant {
	if contextLength <= 0 {
		contextLength = memory.DefaultContextLength
	}

	return &Assistant{
		llm:           model,
		memory:        store,
		contextLength: contextLength,
	}
}

func (a *Assistant) SetAlerter(alerter *alerts.Alerter) {
	a.alerts = alerter
}

// Handle routes slash commands and passes everything else to Reply.
func (a *Assistant) Handle(ctx context.Context, userID, text string) (string, error) {
	text = strings.TrimSpace(text)

	cmd, ok := parseCommand(text)
	if !ok {
		return a.Reply(ctx, userID, text)
	}

	logger.Debug("command received", "user", userID, "command", cmd)

	switch cmd {
	case "start", "help":
		return helpText, nil
	case "reset":
		if a.memory.ClearSession(userID) {
			return "Done, I've forgotten our conversation.", nil
		}
		return "There was nothing to forget.", nil
	case "history":
		return a.history(userID), nil
	case "last":
		if msg, ok := a.memory.LastBotMessage(userID); ok {
			return msg, nil
		}
		return "I haven't said anything yet.", nil
	case "said":
		if msg, ok := a.memory.LastUserMessage(userID); ok {
			return fmt.Sprintf("You said: %q", msg), nil
		}
		return "You haven't asked me anything yet.", nil
	default:
		return fmt.Sprintf("Unknown command /%s. Try /help.", cmd), nil
	}
}

// Reply records the user's message, asks the model with the recent
// conversation as context and records the answer.
func (a *Assistant) Reply(ctx context.Context, userID, text string) (string, error) {
	remember := userID != ""

	if remember {
		if err := a.memory.AddMessage(userID, text, memory.SenderUser); err != nil {
			return "", fmt.Errorf("record user message: %w", err)
		}
	}

	prompt := systemPrompt
	if remember {
		prompt += "\n\nConversation so far:\n" + a.memory.ConversationContext(userID, a.contextLength)
	}

	response, err := a.llm.Chat(ctx, prompt, []llm.Message{
		{Role: llm.RoleUser, Content: text},
	})
	if err != nil {
		logger.Error("llm failed", "user", userID, "provider", a.llm.Provider(), "error", err)
		if a.alerts != nil {
			a.alerts.Warn("llm", "chat completion failed", err)
		}
		return "", fmt.Errorf("chat: %w", err)
	}

	if remember {
		if err := a.memory.AddMessage(userID, response, memory.SenderBot); err != nil {
			return "", fmt.Errorf("record bot message: %w", err)
		}
	}

	return response, nil
}

func (a *Assistant) history(userID string) string {
	msgs := a.memory.LastMessages(userID, historyLength)
	if len(msgs) == 0 {
		return "We haven't talked yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Our last %d messages:\n", len(msgs))
	for _, m := range msgs {
		fmt.Fprintf(&b, "\n[%s] %s: %s", m.Timestamp.Format("15:04"), m.Sender.Label(), m.Content)
	}
	return b.String()
}

// parseCommand extracts "reset" from "/reset" or "/reset@shopbot extra".
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}

	cmd := strings.Fields(text[1:])
	if len(cmd) == 0 {
		return "", false
	}

	name, _, _ := strings.Cut(cmd[0], "@")
	return strings.ToLower(name), name != ""
}
