package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/signature"
	"github.com/lightspeedpay/payment-service/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPaymentUsecase struct {
	initiateErr error
	getErr      error
	txn         *domain.Transaction
}

func (s *stubPaymentUsecase) InitiatePayment(ctx context.Context, input *usecase.InitiatePaymentInput) (*usecase.InitiatePaymentOutput, error) {
	if s.initiateErr != nil {
		return nil, s.initiateErr
	}
	return &usecase.InitiatePaymentOutput{
		TransactionID: "LSP_TEST",
		Status:        domain.StatusCreated,
		CheckoutURL:   "https://pay.example.com/checkout/LSP_TEST",
	}, nil
}

func (s *stubPaymentUsecase) GetTransaction(txnID string) (*domain.Transaction, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.txn, nil
}

type stubQueue struct {
	enqueued   [][]byte
	enqueueErr error
}

func (s *stubQueue) Enqueue(ctx context.Context, queue string, payload []byte) (*domain.Job, error) {
	if s.enqueueErr != nil {
		return nil, s.enqueueErr
	}
	s.enqueued = append(s.enqueued, payload)
	return &domain.Job{ID: "job-1", Queue: queue, Payload: payload}, nil
}

func (s *stubQueue) Lease(ctx context.Context, queue string) (*domain.Job, error) {
	return nil, domain.ErrQueueEmpty
}

func (s *stubQueue) Ack(ctx context.Context, job *domain.Job) error { return nil }

func (s *stubQueue) Nack(ctx context.Context, job *domain.Job, delay time.Duration, reason string) error {
	return nil
}

func (s *stubQueue) Depth(ctx context.Context, queue string) (int64, error) { return 0, nil }

type stubAdapter struct {
	verdict bool
}

func (s *stubAdapter) Provider() string { return "razorpay" }
func (s *stubAdapter) CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.CreateOrderResult, error) {
	return nil, nil
}
func (s *stubAdapter) ParseWebhook(rawBody []byte) (*domain.WebhookEvent, error) {
	return &domain.WebhookEvent{}, nil
}
func (s *stubAdapter) VerifyWebhook(rawBody []byte, headers http.Header, secret string) bool {
	return s.verdict
}
func (s *stubAdapter) ProbeHealth(ctx context.Context, creds map[string]string) (*domain.ProbeResult, error) {
	return &domain.ProbeResult{Online: true}, nil
}

type stubResolver struct {
	adapter domain.PSPAdapter
}

func (s *stubResolver) Get(provider string) (domain.PSPAdapter, error) {
	if provider != s.adapter.Provider() {
		return nil, fmt.Errorf("unknown payment provider: %s", provider)
	}
	return s.adapter, nil
}

func performInitiate(h *PaymentHandler, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.POST("/api/v1/payment/initiate", h.Initiate)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/initiate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const validInitiateBody = `{"amount":10000,"order_id":"order-1","client_key":"ck","signature":"sig"}`

func TestInitiateReturnsCheckoutLink(t *testing.T) {
	w := performInitiate(NewPaymentHandler(&stubPaymentUsecase{}), validInitiateBody)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			TransactionID string `json:"transaction_id"`
			CheckoutURL   string `json:"checkout_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "LSP_TEST", resp.Data.TransactionID)
	assert.NotEmpty(t, resp.Data.CheckoutURL)
}

func TestInitiateStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"unknown client", domain.ErrClientNotFound, http.StatusNotFound, "CLIENT_NOT_FOUND"},
		{"bad signature", domain.ErrAuthenticationFailed, http.StatusUnauthorized, "INVALID_SIGNATURE"},
		{"suspended", domain.ErrClientSuspended, http.StatusForbidden, "CLIENT_SUSPENDED"},
		{"no gateway", domain.ErrNoGatewayAvailable, http.StatusServiceUnavailable, "NO_GATEWAY"},
		{"duplicate order", domain.ErrDuplicateOrderID, http.StatusConflict, "DUPLICATE_ORDER"},
		{"internal", fmt.Errorf("db down"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performInitiate(NewPaymentHandler(&stubPaymentUsecase{initiateErr: tc.err}), validInitiateBody)
			assert.Equal(t, tc.want, w.Code)

			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestInitiateValidatesBody(t *testing.T) {
	h := NewPaymentHandler(&stubPaymentUsecase{})

	assert.Equal(t, http.StatusBadRequest, performInitiate(h, `{"amount":0}`).Code)
	assert.Equal(t, http.StatusBadRequest, performInitiate(h, `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, performInitiate(h, `{"amount":-5,"order_id":"o","client_key":"k","signature":"s"}`).Code)
}

func TestGetTransaction(t *testing.T) {
	h := NewPaymentHandler(&stubPaymentUsecase{txn: &domain.Transaction{
		ID:      "LSP_TEST",
		OrderID: "order-1",
		Amount:  10000,
		Status:  domain.StatusPaid,
	}})

	router := gin.New()
	router.GET("/api/v1/payments/:id", h.GetTransaction)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/LSP_TEST", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"PAID"`)
}

func TestGetTransactionNotFound(t *testing.T) {
	h := NewPaymentHandler(&stubPaymentUsecase{getErr: domain.ErrTransactionNotFound})

	router := gin.New()
	router.GET("/api/v1/payments/:id", h.GetTransaction)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/LSP_MISSING", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func performWebhook(h *WebhookHandler, provider, body string) *httptest.ResponseRecorder {
	router := gin.New()
	router.POST("/api/v1/callback/:provider", h.Receive)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/callback/"+provider, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newWebhookHandler(verdict bool, queue *stubQueue) *WebhookHandler {
	verifier := signature.NewVerifier(
		&stubResolver{adapter: &stubAdapter{verdict: verdict}},
		func(string) string { return "secret" },
		nil,
	)
	return NewWebhookHandler(verifier, queue, nil)
}

func TestWebhookAcceptedAndEnqueued(t *testing.T) {
	queue := &stubQueue{}
	w := performWebhook(newWebhookHandler(true, queue), "razorpay", `{"event":"payment.captured"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, queue.enqueued, 1)

	var payload domain.WebhookJobPayload
	require.NoError(t, json.Unmarshal(queue.enqueued[0], &payload))
	assert.Equal(t, "razorpay", payload.Provider)
	assert.Equal(t, `{"event":"payment.captured"}`, string(payload.RawBody))
}

func TestWebhookBadSignatureRejected(t *testing.T) {
	queue := &stubQueue{}
	w := performWebhook(newWebhookHandler(false, queue), "razorpay", `{"event":"payment.captured"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, queue.enqueued)
}

func TestWebhookUnknownProviderRejected(t *testing.T) {
	queue := &stubQueue{}
	w := performWebhook(newWebhookHandler(true, queue), "stripe", `{}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, queue.enqueued)
}

func TestWebhookMalformedJSONRejected(t *testing.T) {
	queue := &stubQueue{}
	w := performWebhook(newWebhookHandler(true, queue), "razorpay", `{{{`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, queue.enqueued)
}

func TestWebhookEnqueueFailureReturns500(t *testing.T) {
	queue := &stubQueue{enqueueErr: fmt.Errorf("db down")}
	w := performWebhook(newWebhookHandler(true, queue), "razorpay", `{"event":"payment.captured"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
