package repository

import (
	"errors"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultGatewayRepository struct {
	DB *gorm.DB
}

func NewDefaultGatewayRepository(db *gorm.DB) *DefaultGatewayRepository {
	return &DefaultGatewayRepository{DB: db}
}

func (r *DefaultGatewayRepository) GetGatewayByID(gatewayID string) (*domain.Gateway, error) {
	var gateway models.GatewayModel
	if err := r.DB.First(&gateway, "id = ?", gatewayID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNoGatewayAvailable
		}
		return nil, err
	}
	return mappers.ToDomainGateway(&gateway), nil
}

func (r *DefaultGatewayRepository) GetActiveGateways() ([]*domain.Gateway, error) {
	var gatewayModels []models.GatewayModel
	if err := r.DB.Where("is_active = ?", true).Order("priority DESC, current_volume ASC").Find(&gatewayModels).Error; err != nil {
		return nil, err
	}
	gateways := make([]*domain.Gateway, 0, len(gatewayModels))
	for i := range gatewayModels {
		gateways = append(gateways, mappers.ToDomainGateway(&gatewayModels[i]))
	}
	return gateways, nil
}

func (r *DefaultGatewayRepository) GetAssignmentsByClientID(clientID string) ([]*domain.GatewayAssignment, error) {
	var assignmentModels []models.GatewayAssignmentModel
	if err := r.DB.Preload("Gateway").
		Where("client_id = ?", clientID).
		Order("rotation_order ASC").
		Find(&assignmentModels).Error; err != nil {
		return nil, err
	}
	assignments := make([]*domain.GatewayAssignment, 0, len(assignmentModels))
	for i := range assignmentModels {
		assignments = append(assignments, mappers.ToDomainAssignment(&assignmentModels[i]))
	}
	return assignments, nil
}

// ReserveAssignment consumes amount from the daily window in one conditional
// UPDATE. Two concurrent requests cannot double-spend the same capacity:
// whichever loses the race sees zero rows affected. daily_limit = 0 means
// unlimited.
func (r *DefaultGatewayRepository) ReserveAssignment(assignmentID string, amount int64) error {
	result := r.DB.Model(&models.GatewayAssignmentModel{}).
		Where("id = ? AND is_active = ? AND (daily_limit = 0 OR daily_usage + ? <= daily_limit)",
			assignmentID, true, amount).
		Updates(map[string]interface{}{
			"daily_usage":  gorm.Expr("daily_usage + ?", amount),
			"last_used_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCapacityExceeded
	}
	return nil
}

// ReserveGatewayVolume consumes amount from the monthly window.
// monthly_limit = 0 means unlimited.
func (r *DefaultGatewayRepository) ReserveGatewayVolume(gatewayID string, amount int64) error {
	result := r.DB.Model(&models.GatewayModel{}).
		Where("id = ? AND is_active = ? AND (monthly_limit = 0 OR current_volume + ? <= monthly_limit)",
			gatewayID, true, amount).
		Update("current_volume", gorm.Expr("current_volume + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCapacityExceeded
	}
	return nil
}

// ReserveCapacity claims the daily and monthly windows in one DB
// transaction. Either both conditional updates land or the reservation is
// rolled back, so concurrent selections cannot double-spend a window.
func (r *DefaultGatewayRepository) ReserveCapacity(assignmentID, gatewayID string, amount int64) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		inTx := &DefaultGatewayRepository{DB: tx}
		if assignmentID != "" {
			if err := inTx.ReserveAssignment(assignmentID, amount); err != nil {
				return err
			}
		}
		return inTx.ReserveGatewayVolume(gatewayID, amount)
	})
}

func (r *DefaultGatewayRepository) ResetDailyUsage() (int64, error) {
	result := r.DB.Model(&models.GatewayAssignmentModel{}).
		Where("daily_usage > 0").
		Update("daily_usage", 0)
	return result.RowsAffected, result.Error
}

type DefaultGatewayHealthRepository struct {
	DB *gorm.DB
}

func NewDefaultGatewayHealthRepository(db *gorm.DB) *DefaultGatewayHealthRepository {
	return &DefaultGatewayHealthRepository{DB: db}
}

func (r *DefaultGatewayHealthRepository) RecordProbe(health *domain.GatewayHealth) error {
	return r.DB.Create(&models.GatewayHealthModel{
		GatewayID: health.GatewayID,
		IsOnline:  health.IsOnline,
		LatencyMs: health.LatencyMs,
		CheckedAt: health.CheckedAt,
	}).Error
}

// LatestByGateway reduces recent probe rows to the newest one per gateway.
func (r *DefaultGatewayHealthRepository) LatestByGateway() (map[string]*domain.GatewayHealth, error) {
	var rows []models.GatewayHealthModel
	if err := r.DB.Order("checked_at DESC").Limit(1000).Find(&rows).Error; err != nil {
		return nil, err
	}
	latest := make(map[string]*domain.GatewayHealth)
	for i := range rows {
		if _, ok := latest[rows[i].GatewayID]; !ok {
			latest[rows[i].GatewayID] = mappers.ToDomainHealth(&rows[i])
		}
	}
	return latest, nil
}
