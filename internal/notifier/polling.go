package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"SwapSentinel/internal/model"
)

// MessageHandler is called for each inbound text or transcribed voice
// message. voice marks messages that arrived as audio.
type MessageHandler func(ctx context.Context, userID, text string, voice bool) model.Reply

// ActionHandler is called when an inline-keyboard button is pressed.
type ActionHandler func(ctx context.Context, userID, data string) model.Reply

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Voice *struct {
			FileID string `json:"file_id"`
		} `json:"voice"`
	} `json:"message"`
	CallbackQuery *struct {
		ID      string `json:"id"`
		Data    string `json:"data"`
		Message *struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

// StartPolling begins long-polling for Telegram updates. Blocks until ctx is
// cancelled. The chat id doubles as the user id: this is a direct-message bot.
func (t *TelegramNotifier) StartPolling(ctx context.Context, onMessage MessageHandler, onAction ActionHandler) {
	offset := 0
	client := &http.Client{Timeout: 35 * time.Second, Transport: t.Client.Transport}

	for {
		select {
		case <-ctx.Done():
			log.Println("[INFO] Telegram polling stopped")
			return
		default:
		}

		apiURL := fmt.Sprintf("https://api.telegram.org/bot%s/getUpdates?offset=%d&timeout=30", t.BotToken, offset)
		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			log.Printf("[ERROR] create polling request: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[WARN] polling request failed: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Printf("[WARN] read polling response: %v", err)
			continue
		}

		var result struct {
			OK     bool             `json:"ok"`
			Result []telegramUpdate `json:"result"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			log.Printf("[WARN] decode polling response: %v", err)
			continue
		}

		for _, update := range result.Result {
			offset = update.UpdateID + 1
			t.handleUpdate(ctx, update, onMessage, onAction)
		}
	}
}

func (t *TelegramNotifier) handleUpdate(ctx context.Context, update telegramUpdate, onMessage MessageHandler, onAction ActionHandler) {
	if cb := update.CallbackQuery; cb != nil && cb.Message != nil {
		if err := t.answerCallback(cb.ID); err != nil {
			log.Printf("[WARN] answer callback: %v", err)
		}
		userID := fmt.Sprintf("%d", cb.Message.Chat.ID)
		log.Printf("[INFO] action %q from %s", cb.Data, userID)
		t.deliver(userID, onAction(ctx, userID, cb.Data))
		return
	}

	msg := update.Message
	if msg == nil {
		return
	}
	userID := fmt.Sprintf("%d", msg.Chat.ID)

	text := strings.TrimSpace(msg.Text)
	voice := msg.Voice != nil
	if voice && text == "" {
		// Transcription is out of scope here; callers that want voice
		// plug a transcriber in front of the handler.
		t.deliver(userID, model.Reply{Text: "I can't transcribe voice notes yet, type it instead."})
		return
	}
	if text == "" {
		return
	}
	log.Printf("[INFO] message from %s: %s", userID, text)
	t.deliver(userID, onMessage(ctx, userID, text, voice))
}

func (t *TelegramNotifier) deliver(userID string, reply model.Reply) {
	if reply.Text == "" {
		return
	}
	if err := t.SendTo(userID, reply); err != nil {
		log.Printf("[ERROR] send reply: %v", err)
	}
}
