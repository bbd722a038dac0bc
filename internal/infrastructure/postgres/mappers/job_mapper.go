package mappers

import (
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
)

func ToDomainJob(model *models.JobModel) *domain.Job {
	return &domain.Job{
		ID:            model.ID,
		Queue:         model.Queue,
		Payload:       model.Payload,
		Attempts:      model.Attempts,
		MaxAttempts:   model.MaxAttempts,
		NextVisibleAt: model.NextVisibleAt,
		Status:        model.Status,
		LastError:     model.LastError,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}
