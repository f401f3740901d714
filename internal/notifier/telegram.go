package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"SwapSentinel/internal/model"
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// inlineKeyboard maps reply actions onto a single-row inline keyboard.
func inlineKeyboard(actions []model.Action) map[string]any {
	row := make([]map[string]string, 0, len(actions))
	for _, a := range actions {
		row = append(row, map[string]string{
			"text":          a.Label,
			"callback_data": a.Data,
		})
	}
	return map[string]any{"inline_keyboard": [][]map[string]string{row}}
}

// SendTo delivers a reply, including its buttons, to one chat.
func (t *TelegramNotifier) SendTo(chatID string, reply model.Reply) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       reply.Text,
		"parse_mode": "HTML",
	}
	if len(reply.Actions) > 0 {
		payload["reply_markup"] = inlineKeyboard(reply.Actions)
	}
	return t.call("sendMessage", payload)
}

// answerCallback acknowledges a pressed button so the client stops its
// loading spinner.
func (t *TelegramNotifier) answerCallback(callbackID string) error {
	return t.call("answerCallbackQuery", map[string]any{"callback_query_id": callbackID})
}

func (t *TelegramNotifier) call(method string, payload map[string]any) error {
	apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/%s", t.BotToken, method)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	resp, err := t.Client.Post(apiURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry. Used by the
// workers, where a trigger notification must not be lost to a blip.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID string, reply model.Reply, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := t.SendTo(chatID, reply); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}
