package mailer

import "context"

// Email is one outbound transactional message.
type Email struct {
	To       string
	ToName   string
	From     string
	FromName string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers transactional email. Implementations must be safe for
// concurrent use. Callers treat delivery as best-effort.
type Sender interface {
	Send(ctx context.Context, email Email) error
}
