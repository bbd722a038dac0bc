package models

import (
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
)

type TransactionModel struct {
	ID            string `gorm:"primaryKey"`
	ClientID      string `gorm:"type:uuid;uniqueIndex:idx_client_order,priority:1"`
	GatewayID     string `gorm:"type:uuid"`
	OrderID       string `gorm:"uniqueIndex:idx_client_order,priority:2"`
	Amount        int64
	Status        domain.TransactionStatus `gorm:"index:idx_txn_status"`
	ProviderTxnID string
	CheckoutURL   string
	RawResponse   string
	Attempts      int
	NextRetryAt   *time.Time `gorm:"index:idx_txn_retry"`
	CreatedAt     time.Time  `gorm:"index:idx_txn_created"`
	UpdatedAt     time.Time
}

func (TransactionModel) TableName() string {
	return "client_transactions"
}
