package bot

import (
	"context"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/itspaulthegreat/ai-customer-service-bot/internal/logger"
)

type discord struct {
	session *discordgo.Session
	handler Handler
	ctx     context.Context
}

func newDiscord(token string, handler Handler) (Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	d := &discord{
		session: session,
		handler: handler,
		ctx:     context.Background(),
	}

	session.AddHandler(d.handleMessage)

	return d, nil
}

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}
	logger.Info("discord bot connected")

	<-ctx.Done()
	return d.session.Close()
}

func (d *discord) Send(chatID int64, message string) error {
	channelID := strconv.FormatInt(chatID, 10)

	for _, chunk := range splitMessage(message, discordMaxLen) {
		if _, err := d.session.ChannelMessageSend(channelID, chunk); err != nil {
			logger.Error("discord send failed", "error", err, "channelID", channelID)
			return err
		}
	}

	logger.Info("discord message sent", "channelID", channelID, "chars", len(message))
	return nil
}

func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == s.State.User.ID {
		return
	}
	if m.Content == "" {
		return
	}

	userID := discordUserID(m.Author.ID)
	logger.Info("message received", "user", userID, "from", m.Author.Username, "text", truncate(m.Content, 50))

	s.ChannelTyping(m.ChannelID)

	response := respond(d.ctx, d.handler, userID, m.Content)

	for i, chunk := range splitMessage(response, discordMaxLen) {
		var err error
		if i == 0 {
			_, err = s.ChannelMessageSendReply(m.ChannelID, chunk, m.Reference())
		} else {
			_, err = s.ChannelMessageSend(m.ChannelID, chunk)
		}
		if err != nil {
			logger.Error("discord reply failed", "error", err)
			return
		}
	}

	logger.Info("reply sent", "user", userID, "chars", len(response))
}

func discordUserID(authorID string) string {
	return "discord:" + authorID
}
