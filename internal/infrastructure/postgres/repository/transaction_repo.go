package repository

import (
	"errors"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/mappers"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultTransactionRepository struct {
	DB *gorm.DB
}

func NewDefaultTransactionRepository(db *gorm.DB) *DefaultTransactionRepository {
	return &DefaultTransactionRepository{DB: db}
}

func (r *DefaultTransactionRepository) CreateTransaction(txn *domain.Transaction) error {
	txnModel := mappers.ToGORMTransaction(txn)
	if err := r.DB.Create(txnModel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateOrderID
		}
		return err
	}
	return nil
}

func (r *DefaultTransactionRepository) GetTransactionByID(txnID string) (*domain.Transaction, error) {
	var txn models.TransactionModel
	if err := r.DB.First(&txn, "id = ?", txnID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return mappers.ToDomainTransaction(&txn), nil
}

func (r *DefaultTransactionRepository) GetTransactionByOrderID(clientID, orderID string) (*domain.Transaction, error) {
	var txn models.TransactionModel
	if err := r.DB.First(&txn, "client_id = ? AND order_id = ?", clientID, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return mappers.ToDomainTransaction(&txn), nil
}

// TransitionStatus is the only status write path. The WHERE clause pins the
// expected source status, so redelivered webhooks and stale workers turn
// into ErrStatusConflict instead of overwriting a newer state.
func (r *DefaultTransactionRepository) TransitionStatus(txnID string, from, to domain.TransactionStatus) error {
	if !from.CanTransitionTo(to) {
		return domain.ErrStatusConflict
	}
	result := r.DB.Model(&models.TransactionModel{}).
		Where("id = ? AND status = ?", txnID, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrStatusConflict
	}
	return nil
}

// TransitionStatusWithCommission runs the status transition and the wallet
// increment inside one DB transaction. Either both land or neither does:
// a missing wallet row rolls the transition back and surfaces as
// ErrLedgerInconsistency, leaving the job un-acked.
func (r *DefaultTransactionRepository) TransitionStatusWithCommission(
	txnID string,
	from, to domain.TransactionStatus,
	clientID string,
	commission int64,
) error {
	if !from.CanTransitionTo(to) {
		return domain.ErrStatusConflict
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.TransactionModel{}).
			Where("id = ? AND status = ?", txnID, from).
			Update("status", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrStatusConflict
		}

		credit := tx.Model(&models.CommissionWalletModel{}).
			Where("client_id = ?", clientID).
			Update("balance_due", gorm.Expr("balance_due + ?", commission))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return domain.ErrLedgerInconsistency
		}
		return nil
	})
}

func (r *DefaultTransactionRepository) SetProviderResult(txnID, providerTxnID, checkoutURL string) error {
	return r.DB.Model(&models.TransactionModel{}).
		Where("id = ?", txnID).
		Updates(map[string]interface{}{
			"provider_txn_id": providerTxnID,
			"checkout_url":    checkoutURL,
		}).Error
}

func (r *DefaultTransactionRepository) SetRawResponse(txnID, raw string) error {
	return r.DB.Model(&models.TransactionModel{}).
		Where("id = ?", txnID).
		Update("raw_response", raw).Error
}

func (r *DefaultTransactionRepository) ScheduleRetry(txnID string, at time.Time) error {
	return r.DB.Model(&models.TransactionModel{}).
		Where("id = ?", txnID).
		Updates(map[string]interface{}{
			"next_retry_at": at,
			"attempts":      gorm.Expr("attempts + 1"),
		}).Error
}

func (r *DefaultTransactionRepository) GetRetryableTransactions(now time.Time, limit int) ([]*domain.Transaction, error) {
	var txnModels []models.TransactionModel
	if err := r.DB.
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", domain.StatusFailedTemporary, now).
		Limit(limit).
		Find(&txnModels).Error; err != nil {
		return nil, err
	}
	txns := make([]*domain.Transaction, 0, len(txnModels))
	for i := range txnModels {
		txns = append(txns, mappers.ToDomainTransaction(&txnModels[i]))
	}
	return txns, nil
}
