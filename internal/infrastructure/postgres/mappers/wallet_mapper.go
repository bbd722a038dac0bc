package mappers

import (
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
)

func ToDomainWallet(model *models.CommissionWalletModel) *domain.CommissionWallet {
	return &domain.CommissionWallet{
		ID:            model.ID,
		ClientID:      model.ClientID,
		BalanceDue:    model.BalanceDue,
		SettledAmount: model.SettledAmount,
		WarnThreshold: model.WarnThreshold,
		UpdatedAt:     model.UpdatedAt,
	}
}

func ToDomainPayoutLog(model *models.PayoutLogModel) *domain.PayoutLog {
	return &domain.PayoutLog{
		ID:        model.ID,
		WalletID:  model.WalletID,
		ClientID:  model.ClientID,
		Amount:    model.Amount,
		CreatedAt: model.CreatedAt,
	}
}
