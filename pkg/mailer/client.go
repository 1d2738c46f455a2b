package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rcmanalo/buildmart-backend/pkg/config"
	"github.com/rcmanalo/buildmart-backend/pkg/logger"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Client sends transactional email through the configured HTTP API.
type Client struct {
	http *resty.Client
	cfg  config.MailConfig
	logg *logger.Logger
}

// New builds a mail client. Returns nil when no API key is configured so
// callers can treat email as an optional channel.
func New(cfg config.MailConfig, logg *logger.Logger) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetAuthToken(cfg.APIKey)
	return &Client{http: http, cfg: cfg, logg: logg}
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Send delivers a single email message.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c == nil {
		return errors.New("mail client not configured")
	}
	if msg.To == "" {
		return errors.New("recipient is required")
	}

	body := sendRequest{
		Personalizations: []personalization{{To: []emailAddress{{Email: msg.To}}}},
		From:             emailAddress{Email: c.cfg.DefaultFrom},
		Subject:          msg.Subject,
		Content:          []content{{Type: "text/plain", Value: msg.Body}},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/v3/mail/send")
	if err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail api returned %d: %s", resp.StatusCode(), resp.String())
	}

	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "to", msg.To), "email dispatched")
	}
	return nil
}
