package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ecomjrm/ecomjrm-backend/pkg/config"
	"github.com/ecomjrm/ecomjrm-backend/pkg/logger"
)

const (
	apiBaseURL     = "https://api.telegram.org"
	defaultTimeout = 30 * time.Second
)

var errBotTokenRequired = errors.New("telegram bot token is required")

// APIError carries the Bot API error code and description verbatim.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error %d: %s", e.Code, e.Description)
}

// Message is one outbound sendMessage call.
type Message struct {
	ChatID    string
	Text      string
	ParseMode string
}

// Client wraps the Telegram Bot API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
}

// NewClient validates the configuration and returns a ready client.
func NewClient(ctx context.Context, cfg config.TelegramConfig, logg *logger.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errBotTokenRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if logg != nil {
		logg.Info(ctx, "telegram client initialized")
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    apiBaseURL,
		botToken:   token,
	}, nil
}

// SendMessage delivers a message to one chat. Returns the Message ID
// assigned by Telegram.
func (c *Client) SendMessage(ctx context.Context, msg Message) (int64, error) {
	if strings.TrimSpace(msg.ChatID) == "" {
		return 0, errors.New("chat id is required")
	}
	if strings.TrimSpace(msg.Text) == "" {
		return 0, errors.New("message text is required")
	}

	payload := map[string]any{
		"chat_id": msg.ChatID,
		"text":    msg.Text,
	}
	if msg.ParseMode != "" {
		payload["parse_mode"] = msg.ParseMode
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshalling sendMessage payload: %w", err)
	}

	u := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("building sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling sendMessage: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("reading sendMessage response: %w", err)
	}

	var parsed struct {
		OK          bool   `json:"ok"`
		ErrorCode   int    `json:"error_code"`
		Description string `json:"description"`
		Result      struct {
			MessageID int64 `json:"message_id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("parsing sendMessage response: %w", err)
	}
	if !parsed.OK {
		return 0, &APIError{Code: parsed.ErrorCode, Description: parsed.Description}
	}
	return parsed.Result.MessageID, nil
}

// GetMe verifies the bot token against the API, used as a health probe
// when an admin saves channel settings.
func (c *Client) GetMe(ctx context.Context) (string, error) {
	u := fmt.Sprintf("%s/bot%s/getMe", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling getMe: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var parsed struct {
		OK          bool   `json:"ok"`
		ErrorCode   int    `json:"error_code"`
		Description string `json:"description"`
		Result      struct {
			Username string `json:"username"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parsing getMe response: %w", err)
	}
	if !parsed.OK {
		return "", &APIError{Code: parsed.ErrorCode, Description: parsed.Description}
	}
	return parsed.Result.Username, nil
}
