package telegram

import (
	"context"

	"growth-calculator/internal/commands"
	"growth-calculator/internal/types"
	"growth-calculator/lib/helpers"
	"growth-calculator/lib/translation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewBot creates new telegram bot
func NewBot(c BotConfig, indices commands.IndexResolver, spec types.IndexSpec) (*Bot, error) {
	bot, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	bot.Debug = c.Debug

	return &Bot{
		Bot:     bot,
		Config:  c,
		indices: indices,
		spec:    spec,
	}, nil
}

// GetUpdatesChannel gets new updates updates
func (b *Bot) GetUpdatesChannel() (tgbotapi.UpdatesChannel, error) {
	updatesConfig := tgbotapi.NewUpdate(0)
	if b.Config.UpdatesTimeout > 0 {
		updatesConfig.Timeout = b.Config.UpdatesTimeout
	}
	return b.Bot.GetUpdatesChan(updatesConfig), nil
}

// StopReceivingUpdates ends the long polling started by GetUpdatesChannel.
func (b *Bot) StopReceivingUpdates() {
	b.Bot.StopReceivingUpdates()
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) error {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	msg.ParseMode = "MarkdownV2"
	_, err := b.Bot.Send(msg)
	return errors.Wrapf(err, "could not send message: %v", m)
}

// SendPhoto sends a PNG with a MarkdownV2 caption
func (b *Bot) SendPhoto(m Message, png []byte) error {
	photo := tgbotapi.NewPhoto(m.ChatID, tgbotapi.FileBytes{
		Name:  "chart.png",
		Bytes: png,
	})
	photo.Caption = m.Text
	photo.ParseMode = "MarkdownV2"
	photo.ReplyToMessageID = m.MessageID
	_, err := b.Bot.Send(photo)
	return errors.Wrap(err, "could not send chart")
}

// HandleUpdate processes a Telegram command and sends the reply.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) error {
	reply := b.Reply(ctx, u.Message.Command(), u.Message.CommandArguments())

	m := Message{
		ChatID:    u.Message.Chat.ID,
		MessageID: u.Message.MessageID,
		Text:      reply.Text,
	}
	if reply.Photo != nil {
		return b.SendPhoto(m, reply.Photo)
	}
	return b.SendMessage(m)
}

// Reply builds the answer to command without talking to Telegram.
func (b *Bot) Reply(ctx context.Context, command, arguments string) Reply {
	log.Debugf("received command: %s", command)

	usage := func(key string) Reply {
		return Reply{Text: helpers.EscapeMarkdownV2(translation.Translate(key))}
	}

	switch command {
	case "cagr":
		return Reply{Text: commands.CommandCAGR(ctx, b.indices, b.spec, b.Config.PeriodYears)}
	case "interest":
		text, err := commands.CommandInterest(arguments)
		if err != nil {
			log.Debug(err)
			return usage("interest_command_usage")
		}
		return Reply{Text: text}
	case "invest":
		chartData, caption, err := commands.CommandInvest(arguments)
		if err != nil {
			log.Debug(err)
			return usage("invest_command_usage")
		}
		return Reply{Text: caption, Photo: chartData}
	case "goal":
		text, err := commands.CommandGoal(arguments)
		if err != nil {
			log.Debug(err)
			return usage("goal_command_usage")
		}
		return Reply{Text: text}
	}

	return Reply{Text: translation.Translate("Command help message")}
}
