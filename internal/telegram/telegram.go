// Package telegram is the Telegram Bot API transport: inbound update types,
// an outbound Sender, and the inline confirm/cancel keyboard.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Update is one inbound webhook payload. Exactly one of Message or
// CallbackQuery is set for the updates this bot handles.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an inbound chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// CallbackQuery is a press on an inline keyboard button.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data"`
}

// User identifies the sender of a message or callback.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat identifies where to reply.
type Chat struct {
	ID int64 `json:"id"`
}

// InlineKeyboard is the reply_markup payload for sendMessage.
type InlineKeyboard struct {
	Buttons [][]InlineButton `json:"inline_keyboard"`
}

// InlineButton is one keyboard button carrying a callback token.
type InlineButton struct {
	Text string `json:"text"`
	Data string `json:"callback_data"`
}

// Callback token prefixes. The id suffix is the pending candidate's base id.
const (
	callbackConfirm = "confirm:"
	callbackCancel  = "cancel:"
)

// ConfirmKeyboard builds the two-button keyboard attached to a pending
// candidate's confirmation prompt.
func ConfirmKeyboard(candidateID string) *InlineKeyboard {
	return &InlineKeyboard{Buttons: [][]InlineButton{{
		{Text: "✅ Confirmar", Data: callbackConfirm + candidateID},
		{Text: "❌ Cancelar", Data: callbackCancel + candidateID},
	}}}
}

// ParseCallback splits a callback token into its action and candidate id.
// ok is false for tokens this bot did not issue.
func ParseCallback(data string) (confirm bool, candidateID string, ok bool) {
	switch {
	case strings.HasPrefix(data, callbackConfirm):
		return true, strings.TrimPrefix(data, callbackConfirm), true
	case strings.HasPrefix(data, callbackCancel):
		return false, strings.TrimPrefix(data, callbackCancel), true
	}
	return false, "", false
}

// Sender is the outbound side of the transport. The bot layer depends on
// this interface; tests substitute a recorder.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboard) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Client calls the Bot API over HTTPS.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		token:   token,
		baseURL: "https://api.telegram.org",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: encoding payload: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return fmt.Errorf("telegram %s: decoding response: %w", method, err)
	}
	if !parsed.OK {
		return fmt.Errorf("telegram %s: api error: %s", method, parsed.Description)
	}
	return nil
}

// SendMessage posts a Markdown-formatted message, optionally with an inline
// keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboard) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}
	return c.call(ctx, "sendMessage", payload)
}

// AnswerCallback acknowledges a keyboard press, optionally with a toast text.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
	}
	return c.call(ctx, "answerCallbackQuery", payload)
}
