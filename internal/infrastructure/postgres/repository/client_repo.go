package repository

import (
	"errors"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultClientRepository struct {
	DB *gorm.DB
}

func NewDefaultClientRepository(db *gorm.DB) *DefaultClientRepository {
	return &DefaultClientRepository{DB: db}
}

func (r *DefaultClientRepository) GetClientByKey(clientKey string) (*domain.Client, error) {
	var client models.ClientModel
	if err := r.DB.First(&client, "client_key = ?", clientKey).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	return mappers.ToDomainClient(&client), nil
}

func (r *DefaultClientRepository) GetClientByID(clientID string) (*domain.Client, error) {
	var client models.ClientModel
	if err := r.DB.First(&client, "id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	return mappers.ToDomainClient(&client), nil
}

// AdvanceRotation is a single conditional update so two concurrent selections
// cannot both claim the same cursor value.
func (r *DefaultClientRepository) AdvanceRotation(clientID string, expected, next int) error {
	result := r.DB.Model(&models.ClientModel{}).
		Where("id = ? AND rotation_position = ?", clientID, expected).
		Update("rotation_position", next)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRotationConflict
	}
	return nil
}
