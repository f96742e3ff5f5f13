package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/alerts"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/llm"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/memory"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
	calls   int
}

func (f *fakeLLM) Chat(ctx context.Context, systemPrompt string, messages []llm.Message) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, systemPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Provider() string { return "fake" }
func (f *fakeLLM) Model() string    { return "fake-1" }

func newTestAssistant(reply string) (*Assistant, *fakeLLM, *memory.Store) {
	model := &fakeLLM{reply: reply}
	store := memory.NewStore(memory.Config{})
	return New(model, store, 0), model, store
}

func TestReplyRecordsBothSides(t *testing.T) {
	a, model, store := newTestAssistant("We ship worldwide.")

	got, err := a.Reply(context.Background(), "u1", "do you ship to Canada?")
	if err != nil {
		t.Fatalf("reply failed: %v", err)
	}
	if got != "We ship worldwide." {
		t.Errorf("unexpected reply: %q", got)
	}

	history := store.History("u1")
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Sender != memory.SenderUser || history[1].Sender != memory.SenderBot {
		t.Errorf("unexpected senders: %+v", history)
	}

	if !strings.Contains(model.prompts[0], "Customer: do you ship to Canada?") {
		t.Errorf("context missing from prompt: %q", model.prompts[0])
	}
}

func TestReplyWithoutUserID(t *testing.T) {
	a, model, store := newTestAssistant("hello")

	if _, err := a.Reply(context.Background(), "", "hi"); err != nil {
		t.Fatalf("reply failed: %v", err)
	}
	if store.Stats().TotalSessions != 0 {
		t.Error("anonymous replies should not create a session")
	}
	if strings.Contains(model.prompts[0], "Conversation so far") {
		t.Error("anonymous prompt should not include context")
	}
}

func TestReplyLLMFailure(t *testing.T) {
	a, model, store := newTestAssistant("")
	model.err = errors.New("rate limited")

	var alerted []string
	a.SetAlerter(alerts.New(func(msg string) { alerted = append(alerted, msg) }, time.Hour))

	if _, err := a.Reply(context.Background(), "u1", "hello"); err == nil {
		t.Fatal("expected error")
	}
	if len(alerted) != 1 {
		t.Errorf("expected one alert, got %d", len(alerted))
	}

	// user message is kept, no bot message recorded
	history := store.History("u1")
	if len(history) != 1 || history[0].Sender != memory.SenderUser {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestHandleCommands(t *testing.T) {
	a, model, _ := newTestAssistant("Size M fits chest 96-101cm.")
	ctx := context.Background()

	if got, _ := a.Handle(ctx, "u1", "/last"); got != "I haven't said anything yet." {
		t.Errorf("/last on empty session: %q", got)
	}

	if _, err := a.Handle(ctx, "u1", "what size is M?"); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"/last", "Size M fits chest 96-101cm."},
		{"/said", `You said: "what size is M?"`},
		{"/LAST@shopbot", "Size M fits chest 96-101cm."},
		{"/bogus", "Unknown command /bogus. Try /help."},
	}
	for _, tt := range tests {
		got, err := a.Handle(ctx, "u1", tt.in)
		if err != nil {
			t.Fatalf("%s failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.in, got, tt.want)
		}
	}

	history, _ := a.Handle(ctx, "u1", "/history")
	if !strings.Contains(history, "Customer: what size is M?") || !strings.Contains(history, "Assistant: Size M") {
		t.Errorf("unexpected history: %q", history)
	}

	if model.calls != 1 {
		t.Errorf("commands should not reach the model, got %d calls", model.calls)
	}

	if got, _ := a.Handle(ctx, "u1", "/reset"); got != "Done, I've forgotten our conversation." {
		t.Errorf("unexpected reset reply: %q", got)
	}
	if got, _ := a.Handle(ctx, "u1", "/reset"); got != "There was nothing to forget." {
		t.Errorf("unexpected second reset reply: %q", got)
	}
	if got, _ := a.Handle(ctx, "u1", "/history"); got != "We haven't talked yet." {
		t.Errorf("history after reset: %q", got)
	}
}

func TestHandleHelp(t *testing.T) {
	a, _, _ := newTestAssistant("")

	for _, cmd := range []string{"/start", "/help"} {
		got, _ := a.Handle(context.Background(), "u1", cmd)
		if got != helpText {
			t.Errorf("%s: unexpected reply", cmd)
		}
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/reset", "reset", true},
		{"/Reset@shop_bot now", "reset", true},
		{"reset", "", false},
		{"/", "", false},
		{"/ ", "", false},
	}

	for _, tt := range tests {
		got, ok := parseCommand(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseCommand(%q) = %q, %v", tt.in, got, ok)
		}
	}
}
