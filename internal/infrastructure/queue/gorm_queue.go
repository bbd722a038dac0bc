package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

// GormJobQueue is a durable at-least-once queue on the relational store.
// Claiming is a two-step optimistic conditional update instead of
// SELECT ... FOR UPDATE SKIP LOCKED, so the same code path runs against
// sqlite in tests. A job leased by a crashed worker becomes visible again
// once its lease expires.
type GormJobQueue struct {
	DB           *gorm.DB
	MaxAttempts  int
	LeaseTTL     time.Duration
	PollInterval time.Duration
}

func NewGormJobQueue(db *gorm.DB, maxAttempts int, leaseTTL time.Duration) *GormJobQueue {
	return &GormJobQueue{
		DB:           db,
		MaxAttempts:  maxAttempts,
		LeaseTTL:     leaseTTL,
		PollInterval: 250 * time.Millisecond,
	}
}

func (q *GormJobQueue) Enqueue(ctx context.Context, queueName string, payload []byte) (*domain.Job, error) {
	job := &models.JobModel{
		ID:            uuid.New().String(),
		Queue:         queueName,
		Payload:       payload,
		MaxAttempts:   q.MaxAttempts,
		Status:        domain.JobReady,
		NextVisibleAt: time.Now(),
	}
	if err := q.DB.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return mappers.ToDomainJob(job), nil
}

func (q *GormJobQueue) Lease(ctx context.Context, queueName string) (*domain.Job, error) {
	ticker := time.NewTicker(q.PollInterval)
	defer ticker.Stop()

	for {
		job, err := q.tryLease(ctx, queueName)
		if err == nil {
			return job, nil
		}
		if !errors.Is(err, domain.ErrQueueEmpty) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q *GormJobQueue) tryLease(ctx context.Context, queueName string) (*domain.Job, error) {
	now := time.Now()

	var candidate models.JobModel
	err := q.DB.WithContext(ctx).
		Where("queue = ? AND status IN (?, ?) AND next_visible_at <= ?",
			queueName, domain.JobReady, domain.JobLeased, now).
		Order("next_visible_at ASC").
		First(&candidate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrQueueEmpty
	}
	if err != nil {
		return nil, err
	}

	// The conditional update is the claim: a competing worker that grabbed
	// the row first leaves us with zero rows affected.
	result := q.DB.WithContext(ctx).Model(&models.JobModel{}).
		Where("id = ? AND status IN (?, ?) AND next_visible_at <= ?",
			candidate.ID, domain.JobReady, domain.JobLeased, now).
		Updates(map[string]interface{}{
			"status":          domain.JobLeased,
			"attempts":        gorm.Expr("attempts + 1"),
			"next_visible_at": now.Add(q.LeaseTTL),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrQueueEmpty
	}

	candidate.Status = domain.JobLeased
	candidate.Attempts++
	return mappers.ToDomainJob(&candidate), nil
}

func (q *GormJobQueue) Ack(ctx context.Context, job *domain.Job) error {
	return q.DB.WithContext(ctx).Model(&models.JobModel{}).
		Where("id = ?", job.ID).
		Update("status", domain.JobDone).Error
}

// Nack re-queues with the caller's delay, or parks the job in the
// dead-letter state once the attempt budget is spent.
func (q *GormJobQueue) Nack(ctx context.Context, job *domain.Job, delay time.Duration, reason string) error {
	if job.Attempts >= job.MaxAttempts {
		return q.DB.WithContext(ctx).Model(&models.JobModel{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":     domain.JobDeadLetter,
				"last_error": reason,
			}).Error
	}

	return q.DB.WithContext(ctx).Model(&models.JobModel{}).
		Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":          domain.JobReady,
			"next_visible_at": time.Now().Add(delay),
			"last_error":      reason,
		}).Error
}

func (q *GormJobQueue) Depth(ctx context.Context, queueName string) (int64, error) {
	var depth int64
	err := q.DB.WithContext(ctx).Model(&models.JobModel{}).
		Where("queue = ? AND status = ?", queueName, domain.JobReady).
		Count(&depth).Error
	return depth, err
}
