package psp

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
)

const razorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayAdapter creates payment links and verifies webhooks signed with
// HMAC-SHA256 over the raw body (X-Razorpay-Signature header).
type RazorpayAdapter struct {
	BaseURL string
	Client  *http.Client
}

func NewRazorpayAdapter(timeout time.Duration) *RazorpayAdapter {
	return &RazorpayAdapter{
		BaseURL: razorpayBaseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (a *RazorpayAdapter) Provider() string { return "razorpay" }

type razorpayLinkRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	ReferenceID string            `json:"reference_id"`
	Notes       map[string]string `json:"notes"`
}

type razorpayLinkResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
	Error    struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (a *RazorpayAdapter) CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.CreateOrderResult, error) {
	keyID, keySecret := in.Credentials["key_id"], in.Credentials["key_secret"]
	if keyID == "" || keySecret == "" {
		return nil, domain.NewPermanentProviderError(a.Provider(), "MISSING_CREDENTIALS", fmt.Errorf("key_id/key_secret not configured"))
	}

	body, err := json.Marshal(razorpayLinkRequest{
		Amount:      in.Amount,
		Currency:    "INR",
		ReferenceID: in.OrderID,
		Notes:       map[string]string{"transaction_id": in.TransactionID},
	})
	if err != nil {
		return nil, domain.NewPermanentProviderError(a.Provider(), "MARSHAL", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/payment_links", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewPermanentProviderError(a.Provider(), "REQUEST", err)
	}
	req.SetBasicAuth(keyID, keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		// network failures and timeouts are worth another attempt
		return nil, domain.NewTransientProviderError(a.Provider(), "NETWORK", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewTransientProviderError(a.Provider(), "READ_BODY", err)
	}

	if resp.StatusCode >= 500 {
		return nil, domain.NewTransientProviderError(a.Provider(), fmt.Sprintf("HTTP_%d", resp.StatusCode), fmt.Errorf("%s", raw))
	}
	if resp.StatusCode >= 400 {
		return nil, domain.NewPermanentProviderError(a.Provider(), fmt.Sprintf("HTTP_%d", resp.StatusCode), fmt.Errorf("%s", raw))
	}

	var link razorpayLinkResponse
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil, domain.NewTransientProviderError(a.Provider(), "DECODE", err)
	}
	if link.ID == "" {
		return nil, domain.NewPermanentProviderError(a.Provider(), "EMPTY_LINK", fmt.Errorf("%s", raw))
	}

	return &domain.CreateOrderResult{
		ProviderTxnID: link.ID,
		CheckoutURL:   link.ShortURL,
		RawResponse:   string(raw),
	}, nil
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID    string            `json:"id"`
				Notes map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (a *RazorpayAdapter) ParseWebhook(rawBody []byte) (*domain.WebhookEvent, error) {
	var hook razorpayWebhook
	if err := json.Unmarshal(rawBody, &hook); err != nil {
		return nil, fmt.Errorf("malformed razorpay webhook: %w", err)
	}

	txnID := hook.Payload.Payment.Entity.Notes["transaction_id"]
	if txnID == "" {
		return nil, fmt.Errorf("razorpay webhook missing transaction_id note")
	}

	var status domain.CanonicalStatus
	switch hook.Event {
	case "payment.captured", "payment_link.paid":
		status = domain.CanonicalPaid
	case "payment.failed":
		status = domain.CanonicalFailed
	case "payment_link.cancelled":
		status = domain.CanonicalCancelled
	default:
		status = domain.CanonicalPending
	}

	return &domain.WebhookEvent{
		TransactionID: txnID,
		ProviderTxnID: hook.Payload.Payment.Entity.ID,
		Status:        status,
	}, nil
}

func (a *RazorpayAdapter) VerifyWebhook(rawBody []byte, headers http.Header, secret string) bool {
	signature := headers.Get("X-Razorpay-Signature")
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (a *RazorpayAdapter) ProbeHealth(ctx context.Context, creds map[string]string) (*domain.ProbeResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/payments", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(creds["key_id"], creds["key_secret"])

	resp, err := a.Client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return &domain.ProbeResult{Online: false, LatencyMs: latency}, nil
	}
	defer resp.Body.Close()

	return &domain.ProbeResult{
		Online:    resp.StatusCode < 500,
		LatencyMs: latency,
	}, nil
}
