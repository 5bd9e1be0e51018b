package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	apperrors "github.com/fitplay-hq/fitplay-backend/pkg/errors"
)

// Payment mirrors the gateway's payment entity. Amount is in paise.
type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Method   string `json:"method"`
}

// Captured reports whether the gateway has collected the funds.
func (p *Payment) Captured() bool {
	return p.Status == "captured"
}

// Gateway looks up payments at the provider.
type Gateway interface {
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
}

type gatewayClient struct {
	http *resty.Client
}

// NewGateway builds a REST client against the payment provider using basic
// auth with the key id and secret.
func NewGateway(cfg config.PaymentsConfig) (Gateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("payments base url is required")
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetHeader("Content-Type", "application/json")
	return &gatewayClient{http: httpClient}, nil
}

func (c *gatewayClient) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "payment id is required")
	}

	var out Payment
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/payments/" + paymentID)
	if err != nil {
		return nil, fmt.Errorf("fetching payment: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return &out, nil
	case http.StatusNotFound:
		return nil, apperrors.New(apperrors.CodeNotFound, "payment not found at gateway")
	default:
		return nil, apperrors.New(apperrors.CodeDependency,
			fmt.Sprintf("payment gateway status: %d", resp.StatusCode()))
	}
}
