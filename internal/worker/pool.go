package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/kafka"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/metrics"
)

// Handler processes one job payload. A nil return acks the job; an error
// nacks it with exponential backoff.
type Handler func(ctx context.Context, payload []byte) error

// DeadLetterHook runs after a job is parked, with the payload and the time
// the pool suggests for a retry.
type DeadLetterHook func(payload []byte, retryAt time.Time)

// Pool drains one queue with a fixed number of goroutines. Delivery is
// at-least-once, so handlers must be idempotent.
type Pool struct {
	Queue        domain.JobQueue
	QueueName    string
	Concurrency  int
	MaxAttempts  int
	BackoffBase  time.Duration
	BackoffCap   time.Duration
	Handler      Handler
	OnDeadLetter DeadLetterHook

	Publisher  *kafka.KafkaPublisher
	AlertTopic string
	Metrics    *metrics.PipelineMetrics

	wg sync.WaitGroup
}

// Start launches the workers. They run until ctx is cancelled; Wait blocks
// until all in-flight jobs have been acked or nacked.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.Concurrency; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	slog.Info("worker pool started", "queue", p.QueueName, "concurrency", p.Concurrency)
}

func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context) {
	for {
		job, err := p.Queue.Lease(ctx, p.QueueName)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			slog.Error("lease failed", "queue", p.QueueName, "error", err.Error())
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		p.process(ctx, job)
	}
}

func (p *Pool) process(ctx context.Context, job *domain.Job) {
	start := time.Now()
	err := p.Handler(ctx, job.Payload)
	if err == nil {
		if ackErr := p.Queue.Ack(context.Background(), job); ackErr != nil {
			slog.Error("ack failed", "queue", p.QueueName, "job_id", job.ID, "error", ackErr.Error())
		}
		if p.Metrics != nil {
			p.Metrics.JobsProcessedTotal.WithLabelValues(p.QueueName).Inc()
			p.Metrics.JobDuration.WithLabelValues(p.QueueName, "ok").Observe(time.Since(start).Seconds())
		}
		return
	}

	delay := p.backoff(job.Attempts)
	// detached context so a shutdown cannot leave the job leased until TTL
	if nackErr := p.Queue.Nack(context.Background(), job, delay, err.Error()); nackErr != nil {
		slog.Error("nack failed", "queue", p.QueueName, "job_id", job.ID, "error", nackErr.Error())
		return
	}
	if p.Metrics != nil {
		p.Metrics.JobDuration.WithLabelValues(p.QueueName, "error").Observe(time.Since(start).Seconds())
	}

	if job.Attempts >= p.MaxAttempts {
		p.deadLetter(job, err)
		return
	}

	if p.Metrics != nil {
		p.Metrics.JobsRetriedTotal.WithLabelValues(p.QueueName).Inc()
	}
	slog.Warn("job nacked",
		"queue", p.QueueName,
		"job_id", job.ID,
		"attempt", job.Attempts,
		"delay", delay,
		"error", err.Error())
}

func (p *Pool) deadLetter(job *domain.Job, cause error) {
	if p.Metrics != nil {
		p.Metrics.JobsDeadLetteredTotal.WithLabelValues(p.QueueName).Inc()
	}
	slog.Error("job dead-lettered",
		"queue", p.QueueName,
		"job_id", job.ID,
		"attempts", job.Attempts,
		"error", cause.Error())

	if p.Publisher != nil && p.AlertTopic != "" {
		alert := kafka.DeadLetterAlert{
			Queue:     p.QueueName,
			JobID:     job.ID,
			Attempts:  job.Attempts,
			LastError: cause.Error(),
		}
		go func() {
			if err := p.Publisher.PublishAlert(p.AlertTopic, alert); err != nil {
				slog.Error("failed to publish dead-letter alert", "error", err.Error())
			}
		}()
	}

	if p.OnDeadLetter != nil {
		p.OnDeadLetter(job.Payload, time.Now().Add(p.backoff(job.Attempts)))
	}
}

// backoff is base * 2^attempts capped at BackoffCap.
func (p *Pool) backoff(attempts int) time.Duration {
	d := p.BackoffBase
	for i := 0; i < attempts && d < p.BackoffCap; i++ {
		d *= 2
	}
	if d > p.BackoffCap {
		d = p.BackoffCap
	}
	return d
}
