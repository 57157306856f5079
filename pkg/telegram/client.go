package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"golang-news-signal/pkg/notifier"
)

const transportName = "telegram"

// sender is the subset of the bot API used for delivery.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// client delivers notifications to Telegram chats. The recipient id is the chat id.
type client struct {
	bot sender
}

// NewClient creates a Telegram notifier.
func NewClient(botToken string) (notifier.Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &client{bot: bot}, nil
}

// Send implements notifier.Notifier.
func (c *client) Send(ctx context.Context, msg notifier.Message) error {
	chatID, err := strconv.ParseInt(strings.TrimSpace(msg.RecipientID), 10, 64)
	if err != nil {
		return &notifier.Error{Transport: transportName, Recipient: msg.RecipientID, Validation: true, Err: notifier.ErrInvalidRecipient}
	}
	if err := ctx.Err(); err != nil {
		return &notifier.Error{Transport: transportName, Recipient: msg.RecipientID, Err: err}
	}

	tgMsg := tgbotapi.NewMessage(chatID, FormatSignalMessage(msg.Title, msg.Body, msg.Data["url"]))
	tgMsg.ParseMode = tgbotapi.ModeMarkdown
	tgMsg.DisableWebPagePreview = true
	if _, err := c.bot.Send(tgMsg); err != nil {
		return &notifier.Error{Transport: transportName, Recipient: msg.RecipientID, Err: fmt.Errorf("failed to send telegram message: %w", err)}
	}
	return nil
}
