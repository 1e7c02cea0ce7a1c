package telegram

import (
	"growth-calculator/internal/commands"
	"growth-calculator/internal/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
	PeriodYears    int
}

// Bot telegram interaction client
type Bot struct {
	Bot     *tgbotapi.BotAPI
	Config  BotConfig
	indices commands.IndexResolver
	spec    types.IndexSpec
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}

// Reply is the answer to one command: a text message, or a photo with caption.
type Reply struct {
	Text  string
	Photo []byte
}
