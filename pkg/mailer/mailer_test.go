package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fitplay-hq/fitplay-backend/pkg/config"
)

func TestSendReturnsMessageID(t *testing.T) {
	var received Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/send" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-123"}`))
	}))
	defer srv.Close()

	client, err := New(config.MailerConfig{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		DefaultFrom: "orders@fitplay.life",
		Timeout:     5 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	id, err := client.Send(context.Background(), Message{
		To:       "employee@acme.example",
		Subject:  "Order FP-20250901-000001 placed",
		HTMLBody: "<p>Thanks for your order.</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if id != "msg-123" {
		t.Fatalf("unexpected message id %q", id)
	}
	if received.From != "orders@fitplay.life" {
		t.Fatalf("default from not applied, got %q", received.From)
	}
}

func TestSendRejectsMissingRecipient(t *testing.T) {
	client, err := New(config.MailerConfig{BaseURL: "http://localhost:0", Timeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Send(context.Background(), Message{Subject: "hi"}); err == nil {
		t.Fatal("expected error for missing recipient")
	}
}

func TestSendSurfacesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := New(config.MailerConfig{BaseURL: srv.URL, Timeout: time.Second}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Send(context.Background(), Message{To: "a@b.c", Subject: "x"}); err == nil {
		t.Fatal("expected error for 502 response")
	}
}
