package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/pkg/db/models"
	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
	"github.com/fitplay-hq/fitplay-backend/pkg/mailer"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox/payloads"
)

type fakeDirectory struct {
	user *models.User
	err  error
}

func (f *fakeDirectory) GetByID(_ context.Context, _ uuid.UUID) (*models.User, error) {
	return f.user, f.err
}

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return uuid.NewString(), nil
}

type fakeIdempotency struct {
	check    func(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	deleteFn func(ctx context.Context, consumer string, eventID uuid.UUID) error
}

func (f fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	return f.check(ctx, consumer, eventID)
}

func (f fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	return f.deleteFn(ctx, consumer, eventID)
}

func freshIdempotency(deleted *bool) fakeIdempotency {
	return fakeIdempotency{
		check: func(context.Context, string, uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(context.Context, string, uuid.UUID) error {
			if deleted != nil {
				*deleted = true
			}
			return nil
		},
	}
}

func newTestConsumer(t *testing.T, users userDirectory, mail emailSender, manager idempotencyChecker) *Consumer {
	t.Helper()
	return &Consumer{
		users:   users,
		mail:    mail,
		manager: manager,
		logg:    logger.New(logger.Options{ServiceName: "notifications-test", Output: io.Discard}),
	}
}

func buildMessage(t *testing.T, eventType enums.OutboxEventType, payload any) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:         uuid.NewString(),
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(eventType)},
	}
}

func TestConsumerSendsOrderCreatedEmail(t *testing.T) {
	directory := &fakeDirectory{user: &models.User{Email: "priya@acme.test", FirstName: "Priya"}}
	sender := &fakeSender{}
	consumer := newTestConsumer(t, directory, sender, freshIdempotency(nil))

	msg := buildMessage(t, enums.EventOrderCreated, payloads.OrderCreatedEvent{
		OrderID:   uuid.New(),
		Code:      "FP-1042",
		UserID:    uuid.New(),
		Amount:    750,
		ItemCount: 3,
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	if sender.sent[0].To != "priya@acme.test" {
		t.Fatalf("unexpected recipient: %s", sender.sent[0].To)
	}
	if !strings.Contains(sender.sent[0].Subject, "FP-1042") {
		t.Fatalf("subject missing order code: %s", sender.sent[0].Subject)
	}
}

func TestConsumerSkipsUnrelatedEvents(t *testing.T) {
	sender := &fakeSender{}
	consumer := newTestConsumer(t, &fakeDirectory{}, sender, freshIdempotency(nil))

	msg := buildMessage(t, enums.EventWalletCredited, payloads.WalletCreditedEvent{})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for unrelated event")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email for unrelated event")
	}
}

func TestConsumerIsIdempotent(t *testing.T) {
	sender := &fakeSender{}
	manager := fakeIdempotency{
		check: func(context.Context, string, uuid.UUID) (bool, error) {
			return true, nil
		},
		deleteFn: func(context.Context, string, uuid.UUID) error {
			return nil
		},
	}
	consumer := newTestConsumer(t, &fakeDirectory{}, sender, manager)

	msg := buildMessage(t, enums.EventOrderCreated, payloads.OrderCreatedEvent{Code: "FP-1"})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for already-processed event")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no email for already-processed event")
	}
}

func TestConsumerNacksWhenSendFails(t *testing.T) {
	directory := &fakeDirectory{user: &models.User{Email: "dev@acme.test", FirstName: "Dev"}}
	sender := &fakeSender{err: errors.New("provider down")}
	deleted := false
	consumer := newTestConsumer(t, directory, sender, freshIdempotency(&deleted))

	msg := buildMessage(t, enums.EventOrderCancelled, payloads.OrderCancelledEvent{
		Code:         "FP-7",
		UserID:       uuid.New(),
		RefundAmount: 200,
		Reason:       "out of stock",
	})

	result := consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack when send fails")
	}
	if !deleted {
		t.Fatalf("expected idempotency key released for redelivery")
	}
}

func TestConsumerSkipsCancellationStateChange(t *testing.T) {
	sender := &fakeSender{}
	consumer := newTestConsumer(t, &fakeDirectory{}, sender, freshIdempotency(nil))

	msg := buildMessage(t, enums.EventOrderStateChanged, payloads.OrderStateChangedEvent{
		Code: "FP-9",
		From: enums.OrderStatusPending,
		To:   enums.OrderStatusCancelled,
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for cancellation state change")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("cancellation email is handled by the dedicated event")
	}
}
