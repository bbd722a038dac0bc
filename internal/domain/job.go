package domain

import (
	"context"
	"time"
)

const (
	QueueOrderCreation = "order-creation"
	QueueWebhook       = "webhook-processing"
)

type JobStatus string

const (
	JobReady      JobStatus = "READY"
	JobLeased     JobStatus = "LEASED"
	JobDone       JobStatus = "DONE"
	JobDeadLetter JobStatus = "DEAD_LETTER"
)

// Job is a durable queue entry. Delivery is at-least-once; handlers must be
// idempotent.
type Job struct {
	ID            string
	Queue         string
	Payload       []byte
	Attempts      int
	MaxAttempts   int
	NextVisibleAt time.Time
	Status        JobStatus
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type JobQueue interface {
	Enqueue(ctx context.Context, queue string, payload []byte) (*Job, error)
	// Lease blocks until a job is visible or ctx expires. A leased job is
	// invisible to other workers until acked or nacked.
	Lease(ctx context.Context, queue string) (*Job, error)
	Ack(ctx context.Context, job *Job) error
	// Nack makes the job visible again after delay, or dead-letters it once
	// attempts reach MaxAttempts.
	Nack(ctx context.Context, job *Job, delay time.Duration, reason string) error
	Depth(ctx context.Context, queue string) (int64, error)
}

// OrderJobPayload references a transaction awaiting order creation at a PSP.
type OrderJobPayload struct {
	TransactionID string `json:"transaction_id"`
}

// WebhookJobPayload is the provider-agnostic envelope enqueued by the
// webhook receiver.
type WebhookJobPayload struct {
	Provider string `json:"provider"`
	RawBody  []byte `json:"raw_body"`
}
