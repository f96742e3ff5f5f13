package llm

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    string
	Content string
}

// LLM answers a conversation with a single completion.
type LLM interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message) (string, error)
	Provider() string
	Model() string
}
