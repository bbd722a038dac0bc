package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lightspeedpay/payment-service/internal/delivery/http/response"
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/metrics"
	"github.com/lightspeedpay/payment-service/internal/signature"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// WebhookHandler is the provider callback boundary. It verifies, persists to
// the queue and returns 200 immediately; all state changes happen in the
// reconciliation worker.
type WebhookHandler struct {
	Verifier *signature.Verifier
	Queue    domain.JobQueue
	Metrics  *metrics.PipelineMetrics
}

func NewWebhookHandler(verifier *signature.Verifier, queue domain.JobQueue, m *metrics.PipelineMetrics) *WebhookHandler {
	return &WebhookHandler{Verifier: verifier, Queue: queue, Metrics: m}
}

func (h *WebhookHandler) Receive(c *gin.Context) {
	provider := c.Param("provider")

	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.reject(c, provider, "read_error", http.StatusBadRequest, "INVALID_BODY", "failed to read request body")
		return
	}

	if !h.Verifier.VerifyProviderSignature(provider, rawBody, c.Request.Header) {
		h.reject(c, provider, "bad_signature", http.StatusUnauthorized, "INVALID_SIGNATURE", "webhook signature verification failed")
		return
	}

	// easebuzz posts form-encoded callbacks, everything else JSON
	if provider != "easebuzz" && !json.Valid(rawBody) {
		h.reject(c, provider, "malformed", http.StatusBadRequest, "MALFORMED_PAYLOAD", "request body is not valid JSON")
		return
	}

	payload, err := json.Marshal(domain.WebhookJobPayload{Provider: provider, RawBody: rawBody})
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if _, err := h.Queue.Enqueue(c.Request.Context(), domain.QueueWebhook, payload); err != nil {
		// the provider retries on non-2xx, so failing here is safe
		response.Fail(c, http.StatusInternalServerError, "INTERNAL", "failed to accept webhook")
		return
	}

	if h.Metrics != nil {
		h.Metrics.WebhooksReceivedTotal.WithLabelValues(provider).Inc()
	}
	response.OK(c, http.StatusOK, gin.H{"received": true})
}

func (h *WebhookHandler) reject(c *gin.Context, provider, reason string, status int, code, message string) {
	if h.Metrics != nil {
		h.Metrics.WebhooksRejectedTotal.WithLabelValues(provider, reason).Inc()
	}
	response.Fail(c, status, code, message)
}
