package llm

import (
	"fmt"
	"sort"
)

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.1
)

// OpenAI-compatible providers and their base URLs.
// Adding a provider here also makes {PROVIDER}_API_KEY a valid key source.
var openAICompatibleProviders = map[string]string{
	"groq":     "https://api.groq.com/openai/v1",
	"mistral":  "https://api.mistral.ai/v1",
	"together": "https://api.together.xyz/v1",
	"deepseek": "https://api.deepseek.com/v1",
}

var defaultModels = map[string]string{
	"claude":   "claude-sonnet-4-20250514",
	"openai":   "gpt-4o-mini",
	"groq":     "llama-3.3-70b-versatile",
	"mistral":  "mistral-small-latest",
	"together": "meta-llama/Llama-3.3-70B-Instruct-Turbo",
	"deepseek": "deepseek-chat",
	"ollama":   "qwen2:0.5b",
}

func New(cfg Config) (LLM, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}

	switch cfg.Provider {
	case "claude":
		return newClaude(cfg), nil
	case "openai":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.openai.com/v1"
		}
		return newOpenAICompatible(cfg), nil
	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434"
		}
		cfg.APIKey = "ollama"
		// Ollama's OpenAI-compatible endpoint
		cfg.BaseURL += "/v1"
		return newOpenAICompatible(cfg), nil
	default:
		baseURL, ok := openAICompatibleProviders[cfg.Provider]
		if !ok {
			return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = baseURL
		}
		return newOpenAICompatible(cfg), nil
	}
}

// KnownProviders returns all known provider IDs, sorted.
func KnownProviders() []string {
	providers := []string{"claude", "openai", "ollama"}
	for p := range openAICompatibleProviders {
		providers = append(providers, p)
	}
	sort.Strings(providers)
	return providers
}

func IsKnownProvider(provider string) bool {
	switch provider {
	case "claude", "openai", "ollama":
		return true
	default:
		_, ok := openAICompatibleProviders[provider]
		return ok
	}
}
