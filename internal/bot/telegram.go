package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/logger"
)

type telegram struct {
	api     *tgbotapi.BotAPI
	handler Handler
}

func newTelegram(token string, handler Handler) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return &telegram{api: api, handler: handler}, nil
}

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil || update.Message.From == nil {
				continue
			}

			go t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := msg.Text
	if msg.IsCommand() {
		text = "/" + msg.Command()
	}
	if text == "" {
		return
	}

	userID := telegramUserID(msg.From.ID)
	logger.Info("message received", "user", userID, "from", msg.From.UserName, "text", truncate(text, 50))

	t.api.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping))

	response := respond(ctx, t.handler, userID, text)

	for i, chunk := range splitMessage(response, telegramMaxLen) {
		reply := tgbotapi.NewMessage(msg.Chat.ID, chunk)
		if i == 0 {
			reply.ReplyToMessageID = msg.MessageID
		}

		if _, err := t.api.Send(reply); err != nil {
			logger.Error("send failed", "error", err)
			return
		}
	}

	logger.Info("reply sent", "user", userID, "chars", len(response))
}

func (t *telegram) Send(chatID int64, message string) error {
	for _, chunk := range splitMessage(message, telegramMaxLen) {
		if _, err := t.api.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			logger.Error("proactive send failed", "error", err, "chatID", chatID)
			return err
		}
	}

	logger.Info("proactive message sent", "chatID", chatID, "chars", len(message))
	return nil
}

func telegramUserID(id int64) string {
	return fmt.Sprintf("telegram:%d", id)
}
