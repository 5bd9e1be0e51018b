package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/fitplay-hq/fitplay-backend/pkg/config"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
)

// SaleOrderItem is one order line forwarded to the fulfillment partner.
type SaleOrderItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// SaleOrderRequest mirrors the partner's sale-order create schema.
type SaleOrderRequest struct {
	OrderCode    string          `json:"order_code"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Instructions string          `json:"instructions,omitempty"`
	Items        []SaleOrderItem `json:"items"`
}

// SaleOrderResponse is the partner's acknowledgement.
type SaleOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Client talks to the fulfillment partner over REST.
type Client struct {
	http *resty.Client
	logg *logger.Logger
}

// New builds a fulfillment client from config.
func New(cfg config.FulfillmentConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("fulfillment base url is required")
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetHeader("X-Api-Key", cfg.APIKey)
	}
	return &Client{http: httpClient, logg: logg}, nil
}

// CreateSaleOrder registers the order with the partner and returns its reference.
func (c *Client) CreateSaleOrder(ctx context.Context, req SaleOrderRequest) (*SaleOrderResponse, error) {
	if req.OrderCode == "" {
		return nil, errors.New("order code is required")
	}
	if len(req.Items) == 0 {
		return nil, errors.New("at least one item is required")
	}

	var out SaleOrderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/v1/sale-orders")
	if err != nil {
		return nil, fmt.Errorf("creating sale order: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, fmt.Errorf("fulfillment request status: %d", resp.StatusCode())
	}

	if c.logg != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{
			"order_code":    req.OrderCode,
			"sale_order_id": out.ID,
		})
		c.logg.Info(logCtx, "sale order created")
	}
	return &out, nil
}
