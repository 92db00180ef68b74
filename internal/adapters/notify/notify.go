// Package notify fans a report out to every notification channel found in
// the environment. A channel failing never blocks the others.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

const (
	envEmailUser     = "EMAIL_USER"
	envEmailPass     = "EMAIL_PASS"
	envEmailTo       = "EMAIL_TO"
	envSMTPServer    = "SMTP_SERVER"
	envPushPlusToken = "PUSHPLUS_TOKEN"
	envServerPushKey = "SERVERPUSHKEY"
	envDingTalkHook  = "DINGDING_WEBHOOK"
	envFeishuHook    = "FEISHU_WEBHOOK"
	envWeComHook     = "WEIXIN_WEBHOOK"
	envTelegramToken = "TELEGRAM_BOT_TOKEN"
	envTelegramChat  = "TELEGRAM_CHAT_ID"
)

// ErrNoChannels reports that the environment configures no delivery target.
var ErrNoChannels = errors.New("no notification channels configured")

// Channel delivers one message to one destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, title, content string) error
}

// Kit is the set of channels active for this run.
type Kit struct {
	channels []Channel
	logger   *zap.Logger
}

func NewKit(logger *zap.Logger, channels ...Channel) *Kit {
	return &Kit{channels: channels, logger: logger}
}

// FromEnv assembles a kit from whichever channel credentials are present.
// A channel with incomplete credentials is skipped, not an error.
func FromEnv(logger *zap.Logger) *Kit {
	var channels []Channel

	if ch := emailFromEnv(); ch != nil {
		channels = append(channels, ch)
	}
	if token := os.Getenv(envPushPlusToken); token != "" {
		channels = append(channels, NewPushPlus(token))
	}
	if key := os.Getenv(envServerPushKey); key != "" {
		channels = append(channels, NewServerChan(key))
	}
	if hook := os.Getenv(envDingTalkHook); hook != "" {
		channels = append(channels, NewDingTalk(hook))
	}
	if hook := os.Getenv(envFeishuHook); hook != "" {
		channels = append(channels, NewFeishu(hook))
	}
	if hook := os.Getenv(envWeComHook); hook != "" {
		channels = append(channels, NewWeCom(hook))
	}
	if token, chatID := os.Getenv(envTelegramToken), os.Getenv(envTelegramChat); token != "" && chatID != "" {
		ch, err := NewTelegram(token, chatID)
		if err != nil {
			logger.Warn("telegram channel disabled", zap.Error(err))
		} else {
			channels = append(channels, ch)
		}
	}

	return NewKit(logger, channels...)
}

// Channels lists the active channel names.
func (k *Kit) Channels() []string {
	names := make([]string, 0, len(k.channels))
	for _, ch := range k.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Push sends the message through every channel. It fails only when every
// configured channel failed; with no channels at all it is a no-op.
func (k *Kit) Push(ctx context.Context, title, content string) error {
	if len(k.channels) == 0 {
		k.logger.Debug("no notification channels configured")
		return nil
	}

	failed := 0
	for _, ch := range k.channels {
		if err := ch.Send(ctx, title, content); err != nil {
			failed++
			k.logger.Warn("notification failed",
				zap.String("channel", ch.Name()),
				zap.Error(err))
			continue
		}
		k.logger.Info("notification sent", zap.String("channel", ch.Name()))
	}

	if failed == len(k.channels) {
		return fmt.Errorf("all %d notification channels failed", failed)
	}
	return nil
}
