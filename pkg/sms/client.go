package sms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rcmanalo/buildmart-backend/pkg/config"
	"github.com/rcmanalo/buildmart-backend/pkg/logger"
)

// Client sends transactional SMS through the configured HTTP gateway.
type Client struct {
	http *resty.Client
	cfg  config.SMSConfig
	logg *logger.Logger
}

// New builds an SMS client. Returns nil when no API key is configured so
// callers can treat SMS as an optional channel.
func New(cfg config.SMSConfig, logg *logger.Logger) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)
	return &Client{http: http, cfg: cfg, logg: logg}
}

// Send delivers a single message to the given phone number.
func (c *Client) Send(ctx context.Context, phone, message string) error {
	if c == nil {
		return errors.New("sms client not configured")
	}
	if phone == "" {
		return errors.New("phone number is required")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"apikey":     c.cfg.APIKey,
			"number":     phone,
			"message":    message,
			"sendername": c.cfg.SenderName,
		}).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("sending sms: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode(), resp.String())
	}

	if c.logg != nil {
		c.logg.Info(c.logg.WithField(ctx, "phone", phone), "sms dispatched")
	}
	return nil
}
