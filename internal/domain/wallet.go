package domain

import "time"

// CommissionWallet is the per-client running balance of fees owed to the
// platform. BalanceDue only moves through atomic credit/settle operations.
type CommissionWallet struct {
	ID            string
	ClientID      string
	BalanceDue    int64
	SettledAmount int64
	WarnThreshold int64
	UpdatedAt     time.Time
}

// PayoutLog records one settlement of a wallet. Immutable once written.
type PayoutLog struct {
	ID        string
	WalletID  string
	ClientID  string
	Amount    int64
	CreatedAt time.Time
}

type WalletRepository interface {
	GetWalletByClientID(clientID string) (*CommissionWallet, error)
	// CreditCommission atomically increments balance_due. The increment is a
	// single UPDATE at the store layer, never read-modify-write.
	CreditCommission(clientID string, commission int64) error
	// ListDueWallets returns wallets with balance_due > 0.
	ListDueWallets() ([]*CommissionWallet, error)
	// SettleWallet writes a PayoutLog and zeroes balance_due in one DB
	// transaction. amount must equal the balance observed by the sweep; when
	// the balance moved in between the settle is retried on the next run.
	SettleWallet(walletID string, amount int64) (*PayoutLog, error)
	ListPayouts(clientID string) ([]*PayoutLog, error)
}
