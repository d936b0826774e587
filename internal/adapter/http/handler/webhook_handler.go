package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/ccmarketers/ledger/internal/adapter/http/dto"
	"github.com/ccmarketers/ledger/internal/domain"
)

// signatureHeader carries the gateway's HMAC-SHA512 of the raw body.
const signatureHeader = "X-Paystack-Signature"

const maxWebhookBody = 1 << 20

// WebhookService defines the behavior needed by WebhookHandler.
type WebhookService interface {
	HandleWebhook(ctx context.Context, gateway string, body []byte, signature string) (*domain.WebhookResult, error)
}

// WebhookHandler receives gateway callbacks.
type WebhookHandler struct {
	webhookUC WebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookUC WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookUC: webhookUC}
}

// HandlePaystack processes one Paystack delivery. Non-2xx responses
// make the gateway redeliver, so only errors we want retried (storage
// failures) surface as 5xx; bad signatures are rejected outright.
func (h *WebhookHandler) HandlePaystack(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body", err.Error())
		return
	}

	result, err := h.webhookUC.HandleWebhook(r.Context(), "paystack", body, r.Header.Get(signatureHeader))
	if err != nil {
		writeError(w, mapDomainError(err), "webhook processing failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.WebhookAckResponse{
		Status:    "ok",
		Message:   result.Message,
		Duplicate: result.Duplicate,
	})
}
