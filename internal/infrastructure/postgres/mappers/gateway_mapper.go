package mappers

import (
	"encoding/json"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
)

func ToDomainGateway(model *models.GatewayModel) *domain.Gateway {
	creds := map[string]string{}
	if model.Credentials != "" {
		// malformed credentials leave the map empty, the adapter rejects later
		_ = json.Unmarshal([]byte(model.Credentials), &creds)
	}
	return &domain.Gateway{
		ID:            model.ID,
		Provider:      model.Provider,
		Credentials:   creds,
		IsActive:      model.IsActive,
		Priority:      model.Priority,
		SuccessRate:   model.SuccessRate,
		MonthlyLimit:  model.MonthlyLimit,
		CurrentVolume: model.CurrentVolume,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func ToGORMGateway(gateway *domain.Gateway) *models.GatewayModel {
	raw, _ := json.Marshal(gateway.Credentials)
	return &models.GatewayModel{
		ID:            gateway.ID,
		Provider:      gateway.Provider,
		Credentials:   string(raw),
		IsActive:      gateway.IsActive,
		Priority:      gateway.Priority,
		SuccessRate:   gateway.SuccessRate,
		MonthlyLimit:  gateway.MonthlyLimit,
		CurrentVolume: gateway.CurrentVolume,
	}
}

func ToDomainAssignment(model *models.GatewayAssignmentModel) *domain.GatewayAssignment {
	assignment := &domain.GatewayAssignment{
		ID:            model.ID,
		ClientID:      model.ClientID,
		GatewayID:     model.GatewayID,
		RotationOrder: model.RotationOrder,
		IsActive:      model.IsActive,
		Weight:        model.Weight,
		DailyLimit:    model.DailyLimit,
		DailyUsage:    model.DailyUsage,
		LastUsedAt:    model.LastUsedAt,
	}
	if model.Gateway.ID != "" {
		assignment.Gateway = ToDomainGateway(&model.Gateway)
	}
	return assignment
}

func ToDomainHealth(model *models.GatewayHealthModel) *domain.GatewayHealth {
	return &domain.GatewayHealth{
		GatewayID: model.GatewayID,
		IsOnline:  model.IsOnline,
		LatencyMs: model.LatencyMs,
		CheckedAt: model.CheckedAt,
	}
}
