package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends operator alerts to a Telegram chat.
type Notifier interface {
	SendMessage(text string) error
}

type client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewClient creates a Telegram notifier bound to chatID.
func NewClient(botToken string, chatID int64) (Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{
		bot:    bot,
		chatID: chatID,
	}, nil
}

// SendMessage sends text as Markdown, splitting it when it exceeds the Telegram limit.
func (c *client) SendMessage(text string) error {
	for _, part := range SplitMessage(text, MaxMessageLength) {
		msg := tgbotapi.NewMessage(c.chatID, part)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := c.bot.Send(msg); err != nil {
			return err
		}
	}
	return nil
}
