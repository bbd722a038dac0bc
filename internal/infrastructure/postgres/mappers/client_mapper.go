package mappers

import (
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
)

func ToDomainClient(model *models.ClientModel) *domain.Client {
	return &domain.Client{
		ID:               model.ID,
		ClientKey:        model.ClientKey,
		ClientSalt:       model.ClientSalt,
		FeePercent:       model.FeePercent,
		SuspendThreshold: model.SuspendThreshold,
		RotationMode:     domain.RotationMode(model.RotationMode),
		RotationPosition: model.RotationPosition,
		TotalAssigned:    model.TotalAssigned,
		DailyResetOn:     model.DailyResetOn,
		WebhookURL:       model.WebhookURL,
		IsActive:         model.IsActive,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func ToGORMClient(client *domain.Client) *models.ClientModel {
	return &models.ClientModel{
		ID:               client.ID,
		ClientKey:        client.ClientKey,
		ClientSalt:       client.ClientSalt,
		FeePercent:       client.FeePercent,
		SuspendThreshold: client.SuspendThreshold,
		RotationMode:     string(client.RotationMode),
		RotationPosition: client.RotationPosition,
		TotalAssigned:    client.TotalAssigned,
		DailyResetOn:     client.DailyResetOn,
		WebhookURL:       client.WebhookURL,
		IsActive:         client.IsActive,
	}
}
