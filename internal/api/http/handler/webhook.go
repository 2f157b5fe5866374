package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/modkit/modkit-server/internal/logger"
	"github.com/modkit/modkit-server/internal/model"
)

// SignatureHeader carries the webhook signature in the form
// "t=<unix_timestamp>,v1=<hex_hmac>".
const SignatureHeader = "Stripe-Signature"

const (
	webhookNamespace = "payments"
	webhookSecretKey = "webhook_secret"
	maxPayloadSize   = 1 << 20
)

// PayloadVerifier validates a signed webhook payload's authenticity and freshness.
type PayloadVerifier interface {
	Verify(payload []byte, signatureHeader, secret string) bool
}

// SecretSource reads module credentials from the vault.
type SecretSource interface {
	GetSecure(ctx context.Context, namespace, keyName string, def any) any
}

// EventProcessor applies verified webhook events to subscription state.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, event model.WebhookEvent) error
}

// Webhook handles inbound billing webhook deliveries.
type Webhook struct {
	verifier  PayloadVerifier
	secrets   SecretSource
	processor EventProcessor
	logger    *logger.Logger
}

// NewWebhook creates a new Webhook handler.
func NewWebhook(
	verifier PayloadVerifier,
	secrets SecretSource,
	processor EventProcessor,
	logger *logger.Logger,
) *Webhook {
	return &Webhook{
		verifier:  verifier,
		secrets:   secrets,
		processor: processor,
		logger:    logger,
	}
}

// Handle verifies and processes one webhook delivery. Unauthenticated
// requests get 401; everything after authentication answers 200, including
// processing failures, because the sender retries non-200 responses and a
// retry of an authenticated-but-unprocessable event cannot succeed either.
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}

	secret, _ := h.secrets.GetSecure(r.Context(), webhookNamespace, webhookSecretKey, "").(string)
	if !h.verifier.Verify(payload, r.Header.Get(SignatureHeader), secret) {
		h.logger.Warn("rejected webhook delivery", "remote_addr", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := model.ParseWebhookEvent(payload)
	if err != nil {
		h.logger.Error("failed to parse authenticated webhook payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.processor.ProcessEvent(r.Context(), event); err != nil {
		h.logger.Error("failed to process webhook event",
			"event_id", event.ID,
			"type", event.Type,
			"error", err)
	}

	w.WriteHeader(http.StatusOK)
}
