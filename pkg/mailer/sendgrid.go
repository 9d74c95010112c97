package mailer

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
	sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"
	defaultTimeout   = 30 * time.Second
)

var errAPIKeyRequired = errors.New("sendgrid api key is required")

// SendGrid implements Sender against the SendGrid v3 REST API.
type SendGrid struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	defaultFrom string
}

// NewSendGrid validates the configuration and returns a ready sender.
func NewSendGrid(ctx context.Context, cfg config.MailerConfig, logg *logger.Logger) (*SendGrid, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if logg != nil {
		logg.Info(ctx, "sendgrid mailer initialized")
	}

	return &SendGrid{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    sendGridEndpoint,
		apiKey:      apiKey,
		defaultFrom: strings.TrimSpace(cfg.DefaultFrom),
	}, nil
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgPayload struct {
	Personalizations []struct {
		To []sgAddress `json:"to"`
	} `json:"personalizations"`
	From    sgAddress   `json:"from"`
	Subject string      `json:"subject"`
	Content []sgContent `json:"content"`
}

// Send delivers one email. A non-2xx response is returned as an error
// with the SendGrid response body attached.
func (s *SendGrid) Send(ctx context.Context, email Email) error {
	if strings.TrimSpace(email.To) == "" {
		return errors.New("recipient is required")
	}
	if strings.TrimSpace(email.Subject) == "" {
		return errors.New("subject is required")
	}

	from := strings.TrimSpace(email.From)
	if from == "" {
		from = s.defaultFrom
	}
	if from == "" {
		return errors.New("sender address is required")
	}

	var content []sgContent
	if email.TextBody != "" {
		content = append(content, sgContent{Type: "text/plain", Value: email.TextBody})
	}
	if email.HTMLBody != "" {
		content = append(content, sgContent{Type: "text/html", Value: email.HTMLBody})
	}
	if len(content) == 0 {
		return errors.New("email body is required")
	}

	payload := sgPayload{
		From:    sgAddress{Email: from, Name: email.FromName},
		Subject: email.Subject,
		Content: content,
	}
	payload.Personalizations = append(payload.Personalizations, struct {
		To []sgAddress `json:"to"`
	}{To: []sgAddress{{Email: email.To, Name: email.ToName}}})

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling sendgrid: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("sendgrid returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
}
