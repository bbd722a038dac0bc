package psp

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
)

const easebuzzBaseURL = "https://pay.easebuzz.in"

// EasebuzzAdapter speaks the hash-based initiateLink protocol: every request
// and callback carries a SHA-512 digest over a pipe-delimited field list
// salted with the merchant secret.
type EasebuzzAdapter struct {
	BaseURL string
	Client  *http.Client
}

func NewEasebuzzAdapter(timeout time.Duration) *EasebuzzAdapter {
	return &EasebuzzAdapter{
		BaseURL: easebuzzBaseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (a *EasebuzzAdapter) Provider() string { return "easebuzz" }

// requestHash is key|txnid|amount|productinfo|firstname|email|||||||salt.
func easebuzzRequestHash(key, txnid, amount, productinfo, firstname, email, salt string) string {
	fields := []string{key, txnid, amount, productinfo, firstname, email, "", "", "", "", "", "", "", salt}
	sum := sha512.Sum512([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

// callbackHash is the reverse ordering: salt|status|||||||||email|firstname|productinfo|amount|txnid|key.
func easebuzzCallbackHash(salt, status, email, firstname, productinfo, amount, txnid, key string) string {
	fields := []string{salt, status, "", "", "", "", "", "", "", email, firstname, productinfo, amount, txnid, key}
	sum := sha512.Sum512([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])
}

type easebuzzInitiateResponse struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (a *EasebuzzAdapter) CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.CreateOrderResult, error) {
	key, salt := in.Credentials["api_key"], in.Credentials["api_secret"]
	if key == "" || salt == "" {
		return nil, domain.NewPermanentProviderError(a.Provider(), "MISSING_CREDENTIALS", fmt.Errorf("api_key/api_secret not configured"))
	}

	// amount on the wire is in rupees with two decimals
	amount := fmt.Sprintf("%d.%02d", in.Amount/100, in.Amount%100)
	productinfo := "Payment"
	firstname := "Customer"

	form := url.Values{
		"key":         {key},
		"txnid":       {in.TransactionID},
		"amount":      {amount},
		"productinfo": {productinfo},
		"firstname":   {firstname},
		"email":       {""},
		"phone":       {""},
		"hash":        {easebuzzRequestHash(key, in.TransactionID, amount, productinfo, firstname, "", salt)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/payment/initiateLink", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.NewPermanentProviderError(a.Provider(), "REQUEST", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.Client.Do(req)
	if err != nil {
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

	var initiate easebuzzInitiateResponse
	if err := json.Unmarshal(raw, &initiate); err != nil {
		return nil, domain.NewTransientProviderError(a.Provider(), "DECODE", err)
	}
	if initiate.Status != 1 {
		return nil, domain.NewPermanentProviderError(a.Provider(), "REJECTED", fmt.Errorf("%s", raw))
	}

	var accessKey string
	if err := json.Unmarshal(initiate.Data, &accessKey); err != nil {
		return nil, domain.NewPermanentProviderError(a.Provider(), "DECODE_DATA", err)
	}

	return &domain.CreateOrderResult{
		ProviderTxnID: accessKey,
		CheckoutURL:   fmt.Sprintf("%s/pay/%s", a.BaseURL, accessKey),
		RawResponse:   string(raw),
	}, nil
}

type easebuzzWebhook struct {
	Status      string `json:"status"`
	Txnid       string `json:"txnid"`
	Amount      string `json:"amount"`
	Email       string `json:"email"`
	Firstname   string `json:"firstname"`
	Productinfo string `json:"productinfo"`
	Hash        string `json:"hash"`
	Key         string `json:"key"`
	Easepayid   string `json:"easepayid"`
}

func (a *EasebuzzAdapter) ParseWebhook(rawBody []byte) (*domain.WebhookEvent, error) {
	var hook easebuzzWebhook
	if err := json.Unmarshal(rawBody, &hook); err != nil {
		return nil, fmt.Errorf("malformed easebuzz webhook: %w", err)
	}
	if hook.Txnid == "" {
		return nil, fmt.Errorf("easebuzz webhook missing txnid")
	}

	var status domain.CanonicalStatus
	switch strings.ToLower(hook.Status) {
	case "success":
		status = domain.CanonicalPaid
	case "failed", "failure":
		status = domain.CanonicalFailed
	case "usercancel":
		status = domain.CanonicalCancelled
	default:
		status = domain.CanonicalPending
	}

	return &domain.WebhookEvent{
		TransactionID: hook.Txnid,
		ProviderTxnID: hook.Easepayid,
		Status:        status,
	}, nil
}

func (a *EasebuzzAdapter) VerifyWebhook(rawBody []byte, headers http.Header, secret string) bool {
	var hook easebuzzWebhook
	if err := json.Unmarshal(rawBody, &hook); err != nil {
		return false
	}
	if hook.Hash == "" {
		return false
	}

	expected := easebuzzCallbackHash(secret, hook.Status, hook.Email, hook.Firstname, hook.Productinfo, hook.Amount, hook.Txnid, hook.Key)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(hook.Hash)) == 1
}

func (a *EasebuzzAdapter) ProbeHealth(ctx context.Context, creds map[string]string) (*domain.ProbeResult, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL, nil)
	if err != nil {
		return nil, err
	}

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
