package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pfrederiksen/bonetider/internal/logger"
	"github.com/pfrederiksen/bonetider/internal/service"
)

const (
	TelegramAPIURL  = "https://api.telegram.org/bot"
	telegramTimeout = 10 * time.Second
)

// TelegramNotifier posts messages to a Telegram chat
type TelegramNotifier struct {
	botToken   string
	chatID     string
	city       string
	baseURL    string
	httpClient *http.Client
}

// NewTelegramNotifier creates a notifier for chatID. baseURL may be empty.
func NewTelegramNotifier(botToken, chatID, city, baseURL string) (*TelegramNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}
	if baseURL == "" {
		baseURL = TelegramAPIURL
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		city:     city,
		baseURL:  baseURL,
		httpClient: &http.Client{
			Timeout: telegramTimeout,
		},
	}, nil
}

// Notify sends the formatted times for resp
func (n *TelegramNotifier) Notify(ctx context.Context, resp *service.Response) error {
	if err := n.SendMessage(ctx, FormatMessage(resp, n.city)); err != nil {
		return err
	}
	logger.Info("Sent prayer times to Telegram", logger.Fields{"date": resp.Date, "chat_id": n.chatID})
	return nil
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiResponse is the envelope of every Bot API answer
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage posts text to the configured chat
func (n *TelegramNotifier) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                n.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	endpoint := n.baseURL + n.botToken + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, raw)
	}

	var result apiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("telegram API error: %s", result.Description)
	}

	return nil
}
