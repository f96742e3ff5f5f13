package bot

import (
	"context"
)

type Bot interface {
	Start(ctx context.Context) error
	Send(chatID int64, message string) error
}

// Handler turns an inbound customer message into a reply.
type Handler interface {
	Handle(ctx context.Context, userID, text string) (string, error)
}

type Config struct {
	Provider string
	Token    string
}
