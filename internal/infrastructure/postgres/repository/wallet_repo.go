package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultWalletRepository struct {
	DB *gorm.DB
}

func NewDefaultWalletRepository(db *gorm.DB) *DefaultWalletRepository {
	return &DefaultWalletRepository{DB: db}
}

func (r *DefaultWalletRepository) GetWalletByClientID(clientID string) (*domain.CommissionWallet, error) {
	var wallet models.CommissionWalletModel
	if err := r.DB.First(&wallet, "client_id = ?", clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLedgerInconsistency
		}
		return nil, err
	}
	return mappers.ToDomainWallet(&wallet), nil
}

// CreditCommission is a single atomic increment at the store layer. A zero
// row count means the wallet row is missing, which is a ledger inconsistency
// and must fail closed.
func (r *DefaultWalletRepository) CreditCommission(clientID string, commission int64) error {
	result := r.DB.Model(&models.CommissionWalletModel{}).
		Where("client_id = ?", clientID).
		Update("balance_due", gorm.Expr("balance_due + ?", commission))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrLedgerInconsistency
	}
	return nil
}

func (r *DefaultWalletRepository) ListDueWallets() ([]*domain.CommissionWallet, error) {
	var walletModels []models.CommissionWalletModel
	if err := r.DB.Where("balance_due > 0").Find(&walletModels).Error; err != nil {
		return nil, err
	}
	wallets := make([]*domain.CommissionWallet, 0, len(walletModels))
	for i := range walletModels {
		wallets = append(wallets, mappers.ToDomainWallet(&walletModels[i]))
	}
	return wallets, nil
}

// SettleWallet zeroes the wallet and writes the payout log in one DB
// transaction. The balance_due guard makes the sweep idempotent: a re-run
// after a crash either sees the already-zeroed wallet (no rows, rolled back)
// or a fresh balance to settle on the next pass.
func (r *DefaultWalletRepository) SettleWallet(walletID string, amount int64) (*domain.PayoutLog, error) {
	payout := &models.PayoutLogModel{
		ID:        uuid.New().String(),
		WalletID:  walletID,
		Amount:    amount,
		CreatedAt: time.Now(),
	}

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var wallet models.CommissionWalletModel
		if err := tx.First(&wallet, "id = ?", walletID).Error; err != nil {
			return err
		}
		payout.ClientID = wallet.ClientID

		result := tx.Model(&models.CommissionWalletModel{}).
			Where("id = ? AND balance_due = ?", walletID, amount).
			Updates(map[string]interface{}{
				"balance_due":    0,
				"settled_amount": gorm.Expr("settled_amount + ?", amount),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrStatusConflict
		}

		return tx.Create(payout).Error
	})
	if err != nil {
		return nil, err
	}

	return mappers.ToDomainPayoutLog(payout), nil
}

func (r *DefaultWalletRepository) ListPayouts(clientID string) ([]*domain.PayoutLog, error) {
	var payoutModels []models.PayoutLogModel
	if err := r.DB.Where("client_id = ?", clientID).Order("created_at DESC").Find(&payoutModels).Error; err != nil {
		return nil, err
	}
	payouts := make([]*domain.PayoutLog, 0, len(payoutModels))
	for i := range payoutModels {
		payouts = append(payouts, mappers.ToDomainPayoutLog(&payoutModels[i]))
	}
	return payouts, nil
}
