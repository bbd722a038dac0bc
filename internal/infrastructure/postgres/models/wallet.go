package models

import "time"

type CommissionWalletModel struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	ClientID      string `gorm:"type:uuid;uniqueIndex:idx_wallet_client"`
	BalanceDue    int64
	SettledAmount int64
	WarnThreshold int64
	UpdatedAt     time.Time
}

func (CommissionWalletModel) TableName() string {
	return "commission_wallets"
}

type PayoutLogModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	WalletID  string `gorm:"type:uuid;index:idx_payout_wallet"`
	ClientID  string `gorm:"type:uuid"`
	Amount    int64
	CreatedAt time.Time
}

func (PayoutLogModel) TableName() string {
	return "payout_logs"
}
