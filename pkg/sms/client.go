package sms

import (
	"context"
	"fmt"

	"github.com/arsmn/go-smsir/smsir"

	"github.com/daruyar/daruyar_backend/config"
)

// Client provides SMS sending functionality via sms.ir.
type Client struct {
	client     *smsir.Client
	enabled    bool
	templateID string
}

// NewFromConfig creates a new SMS client from the application configuration.
// If SMS is disabled, returns a client that no-ops on all operations.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{enabled: false}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}

	client := smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey)

	return &Client{
		client:     client,
		enabled:    true,
		templateID: cfg.SMSIR.ReminderTemplateID,
	}, nil
}

// SendReminder sends a reminder text to the given phone number using the
// configured sms.ir template. The template must define "name" and "message"
// parameters. A no-op when SMS is disabled.
func (c *Client) SendReminder(ctx context.Context, phoneNumber, recipientName, message string) error {
	if !c.enabled {
		return nil
	}

	if phoneNumber == "" {
		return fmt.Errorf("phone number is required")
	}
	if c.templateID == "" {
		return fmt.Errorf("reminder template ID is required")
	}
	if message == "" {
		return fmt.Errorf("reminder message is required")
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     phoneNumber,
		TemplateID: c.templateID,
		Parameters: []smsir.UltraFastParameter{
			{Key: "name", Value: recipientName},
			{Key: "message", Value: message},
		},
	}

	_, err := c.client.Verification.UltraFastSend(ctx, req)
	if err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}

	return nil
}

// IsEnabled returns whether SMS sending is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}
