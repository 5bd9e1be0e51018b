package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/fitplay-hq/fitplay-backend/pkg/enums"
	"github.com/fitplay-hq/fitplay-backend/pkg/fulfillment"
	"github.com/fitplay-hq/fitplay-backend/pkg/logger"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox"
	"github.com/fitplay-hq/fitplay-backend/pkg/outbox/payloads"
)

type fakePartner struct {
	requests []fulfillment.SaleOrderRequest
	err      error
}

func (f *fakePartner) CreateSaleOrder(_ context.Context, req fulfillment.SaleOrderRequest) (*fulfillment.SaleOrderResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &fulfillment.SaleOrderResponse{ID: "SO-" + uuid.NewString(), Status: "accepted"}, nil
}

type fakeIdempotency struct {
	already bool
	deleted bool
}

func (f *fakeIdempotency) CheckAndMarkProcessed(context.Context, string, uuid.UUID) (bool, error) {
	return f.already, nil
}

func (f *fakeIdempotency) Delete(context.Context, string, uuid.UUID) error {
	f.deleted = true
	return nil
}

func newTestConsumer(partner saleOrderCreator, manager idempotencyChecker) *Consumer {
	return &Consumer{
		partner: partner,
		manager: manager,
		logg:    logger.New(logger.Options{ServiceName: "fulfillment-test", Output: io.Discard}),
	}
}

func buildMessage(t *testing.T, eventType enums.OutboxEventType, payload payloads.FulfillmentRequestedEvent) *pubsub.Message {
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

func TestConsumerForwardsSaleOrder(t *testing.T) {
	partner := &fakePartner{}
	consumer := newTestConsumer(partner, &fakeIdempotency{})

	msg := buildMessage(t, enums.EventFulfillmentRequested, payloads.FulfillmentRequestedEvent{
		OrderID: uuid.New(),
		Code:    "FP-3301",
		Phone:   "+911234567890",
		Address: "14 MG Road, Bengaluru",
		Items: []payloads.FulfillmentItem{
			{SKU: "YOGA-MAT-BLU", Name: "Yoga Mat", Quantity: 2},
		},
	})

	result := consumer.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(partner.requests) != 1 {
		t.Fatalf("expected 1 sale order, got %d", len(partner.requests))
	}
	req := partner.requests[0]
	if req.OrderCode != "FP-3301" {
		t.Fatalf("unexpected order code: %s", req.OrderCode)
	}
	if len(req.Items) != 1 || req.Items[0].SKU != "YOGA-MAT-BLU" || req.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", req.Items)
	}
}

func TestConsumerSkipsUnrelatedEvents(t *testing.T) {
	partner := &fakePartner{}
	consumer := newTestConsumer(partner, &fakeIdempotency{})

	msg := buildMessage(t, enums.EventOrderCreated, payloads.FulfillmentRequestedEvent{})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for unrelated event")
	}
	if len(partner.requests) != 0 {
		t.Fatalf("expected no sale order for unrelated event")
	}
}

func TestConsumerIsIdempotent(t *testing.T) {
	partner := &fakePartner{}
	consumer := newTestConsumer(partner, &fakeIdempotency{already: true})

	msg := buildMessage(t, enums.EventFulfillmentRequested, payloads.FulfillmentRequestedEvent{Code: "FP-1"})

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for already-processed event")
	}
	if len(partner.requests) != 0 {
		t.Fatalf("expected no sale order for already-processed event")
	}
}

func TestConsumerNacksWhenPartnerFails(t *testing.T) {
	partner := &fakePartner{err: errors.New("partner unavailable")}
	manager := &fakeIdempotency{}
	consumer := newTestConsumer(partner, manager)

	msg := buildMessage(t, enums.EventFulfillmentRequested, payloads.FulfillmentRequestedEvent{
		Code:    "FP-2",
		Phone:   "+911234567890",
		Address: "14 MG Road, Bengaluru",
		Items:   []payloads.FulfillmentItem{{SKU: "SKU-1", Name: "Bottle", Quantity: 1}},
	})

	result := consumer.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("expected nack when partner fails")
	}
	if !manager.deleted {
		t.Fatalf("expected idempotency key released for redelivery")
	}
}
