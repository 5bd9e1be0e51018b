package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
)

// Message is a single transactional email.
type Message struct {
	To       string `json:"to"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Client talks to the transactional email provider over REST.
type Client struct {
	http        *resty.Client
	defaultFrom string
	logg        *logger.Logger
}

// New builds a mailer client from config.
func New(cfg config.MailerConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("mailer base url is required")
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}
	return &Client{
		http:        httpClient,
		defaultFrom: cfg.DefaultFrom,
		logg:        logg,
	}, nil
}

// Send delivers the message and returns the provider message id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", errors.New("recipient is required")
	}
	if msg.Subject == "" {
		return "", errors.New("subject is required")
	}
	if msg.From == "" {
		msg.From = c.defaultFrom
	}

	var out sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		SetResult(&out).
		Post("/v1/send")
	if err != nil {
		return "", fmt.Errorf("sending email: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		return "", fmt.Errorf("mailer request status: %d", resp.StatusCode())
	}

	if c.logg != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"to":         msg.To,
			"subject":    msg.Subject,
			"message_id": out.ID,
		})
		c.logg.Info(logCtx, "email dispatched")
	}
	return out.ID, nil
}
