package bot

import (
	"fmt"
)

func New(cfg Config, handler Handler) (Bot, error) {
	switch cfg.Provider {
	case "telegram":
		return NewTelegram(cfg.Token, handler)
	case "discord":
		return NewDiscord(cfg.Token, handler)
	default:
		return nil, fmt.Errorf("unknown bot provider: %s", cfg.Provider)
	}
}

func NewTelegram(token string, handler Handler) (Bot, error) {
	return newTelegram(token, handler)
}

func NewDiscord(token string, handler Handler) (Bot, error) {
	return newDiscord(token, handler)
}
