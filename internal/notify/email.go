package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

var ErrFailedToSendEmail = errors.New("failed to send email")

// EmailConfig holds Postmark credentials for the offline email fallback.
// Leaving ServerToken empty disables the fallback.
type EmailConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"POSTMARK_SENDER_EMAIL"`
}

// Enabled reports whether the config carries enough to construct a sender.
func (c EmailConfig) Enabled() bool {
	return c.ServerToken != ""
}

// PostmarkSender delivers notification emails through Postmark's
// transactional API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

func NewPostmarkSender(cfg EmailConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" || cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: server token and sender email are required", ErrFailedToSendEmail)
	}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:   cfg.SenderEmail,
	}, nil
}

func (s *PostmarkSender) Send(ctx context.Context, to, subject, body string) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       to,
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
