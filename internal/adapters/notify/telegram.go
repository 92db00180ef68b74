package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-telegram/bot"
)

// Telegram delivers messages through a bot to a chat or channel.
type Telegram struct {
	bot    *bot.Bot
	chatID any
}

// NewTelegram builds the channel. chatID may be a numeric chat identifier or
// an @channel username.
func NewTelegram(token, chatID string, opts ...bot.Option) (*Telegram, error) {
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	b, err := bot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	var id any = chatID
	if n, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		id = n
	}

	return &Telegram{bot: b, chatID: id}, nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, title, content string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   title + "\n" + content,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
