package models

import (
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
)

type JobModel struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	Queue         string `gorm:"index:idx_job_queue_visible,priority:1"`
	Payload       []byte
	Attempts      int
	MaxAttempts   int
	Status        domain.JobStatus `gorm:"index:idx_job_queue_visible,priority:2"`
	NextVisibleAt time.Time        `gorm:"index:idx_job_queue_visible,priority:3"`
	LastError     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (JobModel) TableName() string {
	return "queue_jobs"
}
