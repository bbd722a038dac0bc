package domain

import (
	"context"
	"net/http"
)

type CanonicalStatus string

const (
	CanonicalPaid      CanonicalStatus = "paid"
	CanonicalFailed    CanonicalStatus = "failed"
	CanonicalCancelled CanonicalStatus = "cancelled"
	CanonicalPending   CanonicalStatus = "pending"
)

type CreateOrderInput struct {
	Credentials   map[string]string
	Amount        int64
	OrderID       string
	TransactionID string
}

type CreateOrderResult struct {
	ProviderTxnID string
	CheckoutURL   string
	RawResponse   string
}

type WebhookEvent struct {
	TransactionID string
	ProviderTxnID string
	Status        CanonicalStatus
}

type ProbeResult struct {
	Online    bool
	LatencyMs int64
}

// PSPAdapter is the uniform surface every payment provider implements. The
// concrete wire format behind each method is the provider's own business.
type PSPAdapter interface {
	Provider() string
	CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error)
	ParseWebhook(rawBody []byte) (*WebhookEvent, error)
	VerifyWebhook(rawBody []byte, headers http.Header, secret string) bool
	ProbeHealth(ctx context.Context, creds map[string]string) (*ProbeResult, error)
}
