// Package telegram wraps the outbound Telegram Bot API client. Inbound
// updates arrive over the webhook server; this package only sends.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"log/slog"

	tele "gopkg.in/telebot.v4"

	"idabot/bot"
	"idabot/core/config"
	"idabot/core/logger"
)

// Client is the telebot-backed implementation of bot.Messenger.
type Client struct {
	bot *tele.Bot
}

// NewClient connects to the Bot API and verifies the token with getMe.
func NewClient(cfg config.TelegramConfig) (*Client, error) {
	return newClient(cfg, false)
}

// NewOfflineClient skips the getMe verification, for tests and tooling
// that never hit the real API.
func NewOfflineClient(cfg config.TelegramConfig) (*Client, error) {
	return newClient(cfg, true)
}

func newClient(cfg config.TelegramConfig, offline bool) (*Client, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		URL:     cfg.BotURL,
		Client:  BuildHTTPClient(),
		Offline: offline,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram client: %w", err)
	}
	return &Client{bot: b}, nil
}

// SendMessage implements bot.Messenger. A non-zero messageID edits the
// existing message instead of sending a new one.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard bot.Keyboard, messageID int) error {
	markup := toReplyMarkup(keyboard)
	start := time.Now()

	var err error
	if messageID != 0 {
		editable := &tele.StoredMessage{
			MessageID: strconv.Itoa(messageID),
			ChatID:    chatID,
		}
		if markup != nil {
			_, err = c.bot.Edit(editable, text, markup)
		} else {
			_, err = c.bot.Edit(editable, text)
		}
	} else {
		recipient := &tele.Chat{ID: chatID}
		if markup != nil {
			_, err = c.bot.Send(recipient, text, markup)
		} else {
			_, err = c.bot.Send(recipient, text)
		}
	}

	attrs := []any{
		slog.String("event", "tg.send"),
		slog.Int64("chat_id", chatID),
		slog.Bool("edit", messageID != 0),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.TG.ErrorContext(ctx, "send failed", attrs...)
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	logger.TG.DebugContext(ctx, "message sent", attrs...)
	return nil
}

// SendWithReplyKeyboard posts a message with a persistent reply keyboard
// of plain text buttons, used for the register-work reminder nudge.
func (c *Client) SendWithReplyKeyboard(ctx context.Context, chatID int64, text string, buttons []string) error {
	row := make([]tele.ReplyButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tele.ReplyButton{Text: b})
	}
	markup := &tele.ReplyMarkup{ReplyKeyboard: [][]tele.ReplyButton{row}}
	if _, err := c.bot.Send(&tele.Chat{ID: chatID}, text, markup); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	logger.TG.DebugContext(ctx, "reminder sent",
		slog.String("event", "tg.send"),
		slog.Int64("chat_id", chatID),
	)
	return nil
}

// SetWebhook registers the public webhook URL with Telegram. The secret
// token, when set, is echoed back by Telegram on every webhook request.
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	params := map[string]string{"url": url}
	if secretToken != "" {
		params["secret_token"] = secretToken
	}
	if _, err := c.bot.Raw("setWebhook", params); err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	logger.TG.InfoContext(ctx, "webhook registered",
		slog.String("event", "tg.webhook.set"),
		slog.String("url", url),
		slog.Bool("secret", secretToken != ""),
	)
	return nil
}

// DeleteWebhook unregisters the webhook.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	if _, err := c.bot.Raw("deleteWebhook", map[string]string{}); err != nil {
		return fmt.Errorf("deleteWebhook: %w", err)
	}
	logger.TG.InfoContext(ctx, "webhook removed",
		slog.String("event", "tg.webhook.delete"),
	)
	return nil
}

func toReplyMarkup(keyboard bot.Keyboard) *tele.ReplyMarkup {
	if len(keyboard) == 0 {
		return nil
	}
	rows := make([][]tele.InlineButton, 0, len(keyboard))
	for _, row := range keyboard {
		btns := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, tele.InlineButton{Text: b.Text, Data: b.Token})
		}
		rows = append(rows, btns)
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}
