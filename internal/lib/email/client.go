// Package email sends transactional email through Resend, with bodies
// rendered from embedded HTML templates.
package email

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/deppfellow/patient-api/internal/config"
)

const (
	defaultSenderName    = "Patient Records"
	defaultSenderAddress = "onboarding@resend.dev"
)

// Client wraps the Resend client and a logger.
type Client struct {
	client *resend.Client
	logger *zerolog.Logger
	from   string
}

// NewClient creates a Client from the integration block. The sender falls
// back to Resend's shared onboarding address.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	name, address := defaultSenderName, defaultSenderAddress
	if cfg.Integration.SenderName != "" {
		name = cfg.Integration.SenderName
	}
	if cfg.Integration.SenderAddress != "" {
		address = cfg.Integration.SenderAddress
	}

	return &Client{
		client: resend.NewClient(cfg.Integration.ResendAPIKey),
		logger: logger,
		from:   fmt.Sprintf("%s <%s>", name, address),
	}
}

// SendEmail renders templateName with data and sends it to one recipient.
func (c *Client) SendEmail(to, subject string, templateName Template, data any) error {
	body, err := Render(templateName, data)
	if err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		return errors.Wrap(err, "failed to send email")
	}

	c.logger.Debug().
		Str("email_id", sent.Id).
		Str("template", string(templateName)).
		Msg("email accepted by provider")

	return nil
}
