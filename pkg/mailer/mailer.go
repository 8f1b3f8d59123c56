package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/handmade-storefront/pkg/logger"
)

// Providers
const (
	ProviderPostmark = "postmark"
	ProviderSendGrid = "sendgrid"
	ProviderLog      = "log"
)

var (
	ErrInvalidConfig  = errors.New("invalid mailer config")
	ErrInvalidMessage = errors.New("invalid email message")
	ErrSendFailed     = errors.New("email send failed")
)

// Message is one transactional email
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
	Tag     string
}

func (m Message) validate() error {
	if m.To == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if m.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	return nil
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Provider      string
	PostmarkToken string
	SendGridKey   string
	From          string
}

// New builds the Mailer for cfg.Provider
func New(cfg Config) (Mailer, error) {
	if cfg.From == "" {
		return nil, fmt.Errorf("%w: sender address is required", ErrInvalidConfig)
	}

	switch cfg.Provider {
	case ProviderPostmark:
		if cfg.PostmarkToken == "" {
			return nil, fmt.Errorf("%w: postmark server token is required", ErrInvalidConfig)
		}
		return NewPostmarkMailer(cfg.PostmarkToken, cfg.From), nil
	case ProviderSendGrid:
		if cfg.SendGridKey == "" {
			return nil, fmt.Errorf("%w: sendgrid api key is required", ErrInvalidConfig)
		}
		return NewSendGridMailer(cfg.SendGridKey, cfg.From), nil
	case ProviderLog, "":
		return NewLogMailer(), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

// LogMailer only logs messages. Used in development.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	logger.Info("Email (log mailer)", map[string]interface{}{
		"to":         msg.To,
		"subject":    msg.Subject,
		"tag":        msg.Tag,
		"html_bytes": len(msg.HTML),
	})
	return nil
}
