package mailer

import (
	"context"
	"fmt"

	"github.com/ikkim/handmade-storefront/pkg/logger"
	"github.com/keighl/postmark"
)

// PostmarkMailer sends through the Postmark API
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

func NewPostmarkMailer(serverToken, from string) *PostmarkMailer {
	return &PostmarkMailer{
		client: postmark.NewClient(serverToken, ""),
		from:   from,
	}
}

// SetBaseURL points the client at another API host
func (m *PostmarkMailer) SetBaseURL(baseURL string) {
	m.client.BaseURL = baseURL
}

func (m *PostmarkMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	resp, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HtmlBody: msg.HTML,
		TextBody: msg.Text,
		Tag:      msg.Tag,
	})
	if err != nil {
		return fmt.Errorf("%w: postmark: %v", ErrSendFailed, err)
	}

	logger.Debug("Email sent via Postmark", map[string]interface{}{
		"to":         msg.To,
		"message_id": resp.MessageID,
	})
	return nil
}
