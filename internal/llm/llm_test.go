package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewProviderDefaults(t *testing.T) {
	tests := []struct {
		provider string
		model    string
	}{
		{"groq", "llama-3.3-70b-versatile"},
		{"openai", "gpt-4o-mini"},
		{"claude", "claude-sonnet-4-20250514"},
		{"ollama", "qwen2:0.5b"},
		{"deepseek", "deepseek-chat"},
	}

	for _, tt := range tests {
		client, err := New(Config{Provider: tt.provider, APIKey: "key"})
		if err != nil {
			t.Fatalf("%s: failed to create client: %v", tt.provider, err)
		}
		if client.Provider() != tt.provider {
			t.Errorf("%s: got provider %s", tt.provider, client.Provider())
		}
		if client.Model() != tt.model {
			t.Errorf("%s: expected model %s, got %s", tt.provider, tt.model, client.Model())
		}
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(Config{Provider: "skynet"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if IsKnownProvider("skynet") {
		t.Error("skynet should not be known")
	}
}

func TestKnownProviders(t *testing.T) {
	providers := KnownProviders()
	for _, p := range providers {
		if !IsKnownProvider(p) {
			t.Errorf("listed provider %s is not known", p)
		}
	}
	if len(providers) != 7 {
		t.Errorf("expected 7 providers, got %v", providers)
	}
}

func TestOpenAICompatibleChat(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		MaxTokens   int     `json:"max_tokens"`
		Temperature float64 `json:"temperature"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Your order ships tomorrow."},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	client, err := New(Config{Provider: "groq", APIKey: "gsk-test", BaseURL: srv.URL, Temperature: 0.1})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	reply, err := client.Chat(context.Background(), "be helpful", []Message{
		{Role: RoleUser, Content: "where is my order?"},
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	if reply != "Your order ships tomorrow." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if auth != "Bearer gsk-test" {
		t.Errorf("unexpected auth header: %q", auth)
	}
	if got.Model != "llama-3.3-70b-versatile" || got.MaxTokens != 1000 {
		t.Errorf("unexpected request: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "where is my order?" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}

func TestOpenAICompatibleNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	client, _ := New(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
	if _, err := client.Chat(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}}); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestClaudeChat(t *testing.T) {
	var got struct {
		Model  string `json:"model"`
		System []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514","content":[{"type":"text","text":"Happy to help."}],"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":4}}`)
	}))
	defer srv.Close()

	client, err := New(Config{Provider: "claude", APIKey: "sk-ant", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	reply, err := client.Chat(context.Background(), "be helpful", []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "refund please"},
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	if reply != "Happy to help." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if len(got.System) != 1 || got.System[0].Text != "be helpful" {
		t.Errorf("system prompt not sent: %+v", got.System)
	}
	if len(got.Messages) != 3 || got.Messages[1].Role != "assistant" {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}

func TestConvertMessagesSkipsEmpty(t *testing.T) {
	msgs := convertMessages([]Message{
		{Role: RoleUser, Content: ""},
		{Role: RoleUser, Content: "hi"},
	})
	if len(msgs) != 1 {
		t.Errorf("expected empty message to be dropped, got %d", len(msgs))
	}
}

func TestIsRetryableError(t *testing.T) {
	if !isRetryableError(errors.New("529 Overloaded")) {
		t.Error("529 should be retryable")
	}
	if isRetryableError(errors.New("401 unauthorized")) {
		t.Error("401 should not be retryable")
	}
}
