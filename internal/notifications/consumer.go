package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
	"github.com/fitplay-hq/fitplay-backend/pkg/mailer"
	"github.com/fitplay-hq/fitplay-backend/pkg/metrics"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox/payloads"
)

const (
	orderNotificationConsumer = "order-notifications"
	notificationJobName       = "order_notifications"
)

type userDirectory interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type emailSender interface {
	Send(ctx context.Context, msg mailer.Message) (string, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer watches order events and turns them into transactional emails.
type Consumer struct {
	users        userDirectory
	mail         emailSender
	subscription *pubsub.Subscriber
	manager      idempotencyChecker
	jobMetrics   *metrics.JobMetrics
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer. jobMetrics may be nil.
func NewConsumer(users userDirectory, mail emailSender, subscription *pubsub.Subscriber, manager idempotencyChecker, jobMetrics *metrics.JobMetrics, logg *logger.Logger) (*Consumer, error) {
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if mail == nil {
		return nil, fmt.Errorf("email sender required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		users:        users,
		mail:         mail,
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
		c.jobMetrics.ObserveDuration(notificationJobName, time.Since(start))
		if result.nack {
			c.jobMetrics.IncFailure(notificationJobName)
			msg.Nack()
			return
		}
		c.jobMetrics.IncSuccess(notificationJobName)
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if !isOrderEvent(eventType) {
		c.logg.Info(logCtx, "skipping non-order event")
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

	already, err := c.manager.CheckAndMarkProcessed(ctx, orderNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	message, err := c.buildMessage(ctx, eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to build email", err)
		_ = c.manager.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if message == nil {
		c.logg.Info(logCtx, "event carries no email")
		return processResult{ack: true}
	}

	if _, err := c.mail.Send(ctx, *message); err != nil {
		c.logg.Error(logCtx, "failed to send email", err)
		_ = c.manager.Delete(ctx, orderNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithField(logCtx, "to", message.To), "order email dispatched")
	return processResult{ack: true}
}

func isOrderEvent(eventType enums.OutboxEventType) bool {
	switch eventType {
	case enums.EventOrderCreated, enums.EventOrderStateChanged, enums.EventOrderCancelled:
		return true
	default:
		return false
	}
}

func (c *Consumer) buildMessage(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) (*mailer.Message, error) {
	switch eventType {
	case enums.EventOrderCreated:
		var payload payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode order created payload: %w", err)
		}
		return c.orderCreatedEmail(ctx, payload)
	case enums.EventOrderStateChanged:
		var payload payloads.OrderStateChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode state change payload: %w", err)
		}
		return c.orderStateChangedEmail(ctx, payload)
	case enums.EventOrderCancelled:
		var payload payloads.OrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("decode order cancelled payload: %w", err)
		}
		return c.orderCancelledEmail(ctx, payload)
	default:
		return nil, nil
	}
}

func (c *Consumer) orderCreatedEmail(ctx context.Context, payload payloads.OrderCreatedEvent) (*mailer.Message, error) {
	user, err := c.users.GetByID(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup order recipient: %w", err)
	}

	mode := "credits"
	if payload.IsCashPayment {
		mode = "cash"
	}
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>We received your order <strong>%s</strong> with %d item(s), paid via %s for %d credits. We will email you as it moves along.</p>",
		user.FirstName, payload.Code, payload.ItemCount, mode, payload.Amount,
	)
	return &mailer.Message{
		To:       user.Email,
		Subject:  fmt.Sprintf("Order %s received", payload.Code),
		HTMLBody: body,
	}, nil
}

func (c *Consumer) orderStateChangedEmail(ctx context.Context, payload payloads.OrderStateChangedEvent) (*mailer.Message, error) {
	// Cancellations carry their own richer event.
	if payload.To == enums.OrderStatusCancelled {
		return nil, nil
	}

	user, err := c.users.GetByID(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup order recipient: %w", err)
	}

	var subject, line string
	switch payload.To {
	case enums.OrderStatusApproved:
		subject = fmt.Sprintf("Order %s approved", payload.Code)
		line = "has been approved and is being prepared"
	case enums.OrderStatusDispatched:
		subject = fmt.Sprintf("Order %s is on its way", payload.Code)
		line = "has been dispatched"
	case enums.OrderStatusDelivered:
		subject = fmt.Sprintf("Order %s delivered", payload.Code)
		line = "has been delivered. Enjoy!"
	default:
		return nil, nil
	}

	body := fmt.Sprintf("<p>Hi %s,</p><p>Your order <strong>%s</strong> %s.</p>", user.FirstName, payload.Code, line)
	return &mailer.Message{
		To:       user.Email,
		Subject:  subject,
		HTMLBody: body,
	}, nil
}

func (c *Consumer) orderCancelledEmail(ctx context.Context, payload payloads.OrderCancelledEvent) (*mailer.Message, error) {
	user, err := c.users.GetByID(ctx, payload.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup order recipient: %w", err)
	}

	body := fmt.Sprintf("<p>Hi %s,</p><p>Your order <strong>%s</strong> was cancelled.</p>", user.FirstName, payload.Code)
	if payload.Reason != "" {
		body += fmt.Sprintf("<p>Reason: %s</p>", payload.Reason)
	}
	if payload.RefundAmount > 0 {
		body += fmt.Sprintf("<p>%d credits have been returned to your wallet.</p>", payload.RefundAmount)
	}
	return &mailer.Message{
		To:       user.Email,
		Subject:  fmt.Sprintf("Order %s cancelled", payload.Code),
		HTMLBody: body,
	}, nil
}
