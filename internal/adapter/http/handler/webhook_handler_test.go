package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ccmarketers/ledger/internal/adapter/http/dto"
	"github.com/ccmarketers/ledger/internal/domain"
	"github.com/ccmarketers/ledger/internal/usecase"
)

type webhookServiceStub struct {
	handleFn func(ctx context.Context, gateway string, body []byte, signature string) (*domain.WebhookResult, error)
}

func (s *webhookServiceStub) HandleWebhook(ctx context.Context, gateway string, body []byte, signature string) (*domain.WebhookResult, error) {
	return s.handleFn(ctx, gateway, body, signature)
}

func TestWebhookHandler_HandlePaystack_Success(t *testing.T) {
	var capturedGateway, capturedSignature string
	var capturedBody []byte
	handler := NewWebhookHandler(&webhookServiceStub{
		handleFn: func(ctx context.Context, gateway string, body []byte, signature string) (*domain.WebhookResult, error) {
			capturedGateway = gateway
			capturedBody = body
			capturedSignature = signature
			return &domain.WebhookResult{Message: "funding credited", Reference: "PS_ref"}, nil
		},
	})

	payload := []byte(`{"event":"charge.success","data":{"reference":"PS_ref"}}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("X-Paystack-Signature", "deadbeef")
	rec := httptest.NewRecorder()

	handler.HandlePaystack(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if capturedGateway != "paystack" || capturedSignature != "deadbeef" {
		t.Fatalf("unexpected gateway/signature: %s %s", capturedGateway, capturedSignature)
	}
	if !bytes.Equal(capturedBody, payload) {
		t.Fatalf("expected raw body to be forwarded unmodified")
	}

	var resp dto.WebhookAckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Duplicate {
		t.Fatalf("unexpected ack: %+v", resp)
	}
}

func TestWebhookHandler_HandlePaystack_Duplicate(t *testing.T) {
	handler := NewWebhookHandler(&webhookServiceStub{
		handleFn: func(ctx context.Context, gateway string, body []byte, signature string) (*domain.WebhookResult, error) {
			return &domain.WebhookResult{Duplicate: true, Message: "already processed"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.HandlePaystack(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate deliveries must still ack with 200, got %d", rec.Code)
	}

	var resp dto.WebhookAckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Duplicate {
		t.Fatalf("expected duplicate flag to be set")
	}
}

func TestWebhookHandler_HandlePaystack_BadSignature(t *testing.T) {
	handler := NewWebhookHandler(&webhookServiceStub{
		handleFn: func(ctx context.Context, gateway string, body []byte, signature string) (*domain.WebhookResult, error) {
			return nil, usecase.ErrInvalidSignature
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-Paystack-Signature", "forged")
	rec := httptest.NewRecorder()

	handler.HandlePaystack(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWebhookHandler_HandlePaystack_StorageFailureIs5xx(t *testing.T) {
	handler := NewWebhookHandler(&webhookServiceStub{
		handleFn: func(ctx context.Context, gateway string, body []byte, signature string) (*domain.WebhookResult, error) {
			return nil, errors.New("connection refused")
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/paystack", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()

	handler.HandlePaystack(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 so the gateway redelivers, got %d", rec.Code)
	}
}
