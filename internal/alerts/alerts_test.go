package alerts

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestAlertCooldown(t *testing.T) {
	var sent []string
	a := New(func(msg string) { sent = append(sent, msg) }, time.Hour)

	now := time.Date(2025, 7, 21, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	a.Critical("memory", "sweep failed", errors.New("disk full"))
	a.Critical("memory", "sweep failed", errors.New("disk full"))

	if len(sent) != 1 {
		t.Fatalf("expected duplicate to be suppressed, got %d alerts", len(sent))
	}
	if !strings.Contains(sent[0], "memory: sweep failed") || !strings.Contains(sent[0], "disk full") {
		t.Errorf("unexpected alert text: %q", sent[0])
	}

	a.Warn("llm", "chat completion failed", nil)
	if len(sent) != 2 {
		t.Errorf("different message should not be suppressed, got %d alerts", len(sent))
	}

	now = now.Add(61 * time.Minute)
	a.Critical("memory", "sweep failed", nil)
	if len(sent) != 3 {
		t.Errorf("alert should be sent again after cooldown, got %d alerts", len(sent))
	}
}

func TestAlertWithoutNotify(t *testing.T) {
	a := New(nil, time.Minute)
	a.Warn("server", "started", nil)

	if len(a.cooldowns) != 0 {
		t.Error("alerts without a notifier should not be recorded")
	}
}
