// Package telegram delivers notifications to a Telegram chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultTimeout = 10 * time.Second

// Config identifies the bot and the destination chat.
type Config struct {
	Token  string
	ChatID int64
	// APIEndpoint overrides tgbotapi.APIEndpoint (format "<base>/bot%s/%s").
	APIEndpoint string
	Timeout     time.Duration
}

// Notifier implements crawler.Notifier using tgbotapi.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// New authenticates the bot (getMe) and returns a Notifier for cfg.ChatID.
func New(cfg Config) (*Notifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &Notifier{api: api, chatID: cfg.ChatID}, nil
}

// Send posts message as plain text. The HTTP client timeout bounds the call.
func (n *Notifier) Send(_ context.Context, message string) error {
	msg := tgbotapi.NewMessage(n.chatID, message)
	msg.DisableWebPagePreview = true
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
