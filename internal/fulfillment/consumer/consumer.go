package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	"github.com/fitplay-hq/fitplay-backend/pkg/fulfillment"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
	"github.com/fitplay-hq/fitplay-backend/pkg/metrics"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox/payloads"
)

const (
	fulfillmentConsumerName = "fulfillment-bridge"
	fulfillmentJobName      = "fulfillment_bridge"
)

type saleOrderCreator interface {
	CreateSaleOrder(ctx context.Context, req fulfillment.SaleOrderRequest) (*fulfillment.SaleOrderResponse, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer forwards fulfillment requests to the partner once per event.
type Consumer struct {
	partner      saleOrderCreator
	subscription *pubsub.Subscriber
	manager      idempotencyChecker
	jobMetrics   *metrics.JobMetrics
	logg         *logger.Logger
}

// NewConsumer builds a fulfillment bridge consumer. jobMetrics may be nil.
func NewConsumer(partner saleOrderCreator, subscription *pubsub.Subscriber, manager idempotencyChecker, jobMetrics *metrics.JobMetrics, logg *logger.Logger) (*Consumer, error) {
	if partner == nil {
		return nil, fmt.Errorf("fulfillment client required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("fulfillment subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		partner:      partner,
		subscription: subscription,
		manager:      manager,
		jobMetrics:   jobMetrics,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		start := time.Now()
		result := c.process(ctx, msg)
		c.jobMetrics.ObserveDuration(fulfillmentJobName, time.Since(start))
		if result.nack {
			c.jobMetrics.IncFailure(fulfillmentJobName)
			msg.Nack()
			return
		}
		c.jobMetrics.IncSuccess(fulfillmentJobName)
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventFulfillmentRequested) {
		c.logg.Info(logCtx, "skipping non-fulfillment event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, fulfillmentConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.FulfillmentRequestedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.manager.Delete(ctx, fulfillmentConsumerName, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"order_id":   payload.OrderID.String(),
		"order_code": payload.Code,
	})

	response, err := c.partner.CreateSaleOrder(ctx, buildSaleOrder(payload))
	if err != nil {
		c.logg.Error(logCtx, "fulfillment request failed", err)
		_ = c.manager.Delete(ctx, fulfillmentConsumerName, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithField(logCtx, "sale_order_id", response.ID), "order handed to fulfillment")
	return processResult{ack: true}
}

func buildSaleOrder(payload payloads.FulfillmentRequestedEvent) fulfillment.SaleOrderRequest {
	items := make([]fulfillment.SaleOrderItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, fulfillment.SaleOrderItem{
			SKU:      item.SKU,
			Name:     item.Name,
			Quantity: item.Quantity,
		})
	}
	return fulfillment.SaleOrderRequest{
		OrderCode:    payload.Code,
		Phone:        payload.Phone,
		Address:      payload.Address,
		Instructions: payload.DeliveryInstructions,
		Items:        items,
	}
}
