// internal/notify/telegram.go
package notify

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram delivers pre-formatted text blocks to a chat. Delivery is
// fire-and-forget: failures are logged, never retried, never returned.
type Telegram struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewTelegram creates a notifier. An empty token or chat id produces a
// notifier that logs and skips every send.
func NewTelegram(token, chatID string, logger *zap.Logger) *Telegram {
	return &Telegram{
		token:   token,
		chatID:  chatID,
		baseURL: telegramAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger.Named("telegram"),
	}
}

// Send posts one Markdown message to the configured chat.
func (t *Telegram) Send(ctx context.Context, text string) {
	if t.token == "" || t.chatID == "" {
		t.logger.Warn("telegram not configured, skipping notification")
		return
	}

	payload := url.Values{}
	payload.Set("chat_id", t.chatID)
	payload.Set("text", text)
	payload.Set("parse_mode", "Markdown")
	payload.Set("disable_web_page_preview", "true")

	endpoint := t.baseURL + "/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(payload.Encode()))
	if err != nil {
		t.logger.Error("failed to build telegram request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error("failed to send telegram message", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		t.logger.Error("telegram rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
	}
}
