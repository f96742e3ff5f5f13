package bot

import (
	"context"
	"strings"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/assistant"
	"github.com/itspaulthegreat/ai-customer-service-bot/internal/logger"
)

const (
	telegramMaxLen = 4096
	discordMaxLen  = 2000
)

// respond runs the handler and never returns an empty reply.
func respond(ctx context.Context, h Handler, userID, text string) string {
	response, err := h.Handle(ctx, userID, text)
	if err != nil {
		logger.Error("handler failed", "user", userID, "error", err)
		return assistant.FallbackReply
	}
	if strings.TrimSpace(response) == "" {
		return assistant.FallbackReply
	}
	return response
}

// splitMessage breaks text into chunks of at most max bytes, preferring
// line boundaries.
func splitMessage(text string, max int) []string {
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	for len(text) > max {
		cut := strings.LastIndex(text[:max], "\n")
		if cut <= 0 {
			cut = max
			// don't split a multi-byte rune
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max] + "..."
}
