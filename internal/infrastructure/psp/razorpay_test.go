package psp

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func razorpayTestAdapter(serverURL string) *RazorpayAdapter {
	a := NewRazorpayAdapter(2 * time.Second)
	a.BaseURL = serverURL
	return a
}

func TestRazorpayCreateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "/payment_links", r.URL.Path)
		w.Write([]byte(`{"id":"plink_123","short_url":"https://rzp.io/i/abc"}`))
	}))
	defer server.Close()

	result, err := razorpayTestAdapter(server.URL).CreateOrder(context.Background(), domain.CreateOrderInput{
		Credentials:   map[string]string{"key_id": "rzp_key", "key_secret": "rzp_secret"},
		Amount:        10000,
		OrderID:       "order-1",
		TransactionID: "LSP_A",
	})
	require.NoError(t, err)
	assert.Equal(t, "plink_123", result.ProviderTxnID)
	assert.Equal(t, "https://rzp.io/i/abc", result.CheckoutURL)
}

func TestRazorpayServerErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := razorpayTestAdapter(server.URL).CreateOrder(context.Background(), domain.CreateOrderInput{
		Credentials: map[string]string{"key_id": "k", "key_secret": "s"},
		Amount:      100,
	})
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestRazorpayClientErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"BAD_REQUEST_ERROR"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := razorpayTestAdapter(server.URL).CreateOrder(context.Background(), domain.CreateOrderInput{
		Credentials: map[string]string{"key_id": "k", "key_secret": "s"},
		Amount:      100,
	})
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
}

func TestRazorpayMissingCredentialsIsPermanent(t *testing.T) {
	_, err := NewRazorpayAdapter(time.Second).CreateOrder(context.Background(), domain.CreateOrderInput{})
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
}

func TestRazorpayParseWebhookStatusMapping(t *testing.T) {
	adapter := NewRazorpayAdapter(time.Second)
	cases := []struct {
		event string
		want  domain.CanonicalStatus
	}{
		{"payment.captured", domain.CanonicalPaid},
		{"payment_link.paid", domain.CanonicalPaid},
		{"payment.failed", domain.CanonicalFailed},
		{"payment_link.cancelled", domain.CanonicalCancelled},
		{"payment.authorized", domain.CanonicalPending},
	}

	for _, tc := range cases {
		body := []byte(`{"event":"` + tc.event + `","payload":{"payment":{"entity":{"id":"pay_1","notes":{"transaction_id":"LSP_A"}}}}}`)
		event, err := adapter.ParseWebhook(body)
		require.NoError(t, err, tc.event)
		assert.Equal(t, tc.want, event.Status, tc.event)
		assert.Equal(t, "LSP_A", event.TransactionID)
	}
}

func TestRazorpayParseWebhookMissingNote(t *testing.T) {
	_, err := NewRazorpayAdapter(time.Second).ParseWebhook([]byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`))
	assert.Error(t, err)
}

func TestRazorpayVerifyWebhook(t *testing.T) {
	adapter := NewRazorpayAdapter(time.Second)
	secret := "whsec"
	body := []byte(`{"event":"payment.captured"}`)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	headers := http.Header{}
	headers.Set("X-Razorpay-Signature", signature)
	assert.True(t, adapter.VerifyWebhook(body, headers, secret))

	// tampered body must fail
	assert.False(t, adapter.VerifyWebhook([]byte(`{"event":"payment.failed"}`), headers, secret))

	// missing header must fail
	assert.False(t, adapter.VerifyWebhook(body, http.Header{}, secret))
}
