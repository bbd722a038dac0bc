package domain

import "time"

type TransactionStatus string

const (
	StatusCreated         TransactionStatus = "CREATED"
	StatusPending         TransactionStatus = "PENDING"
	StatusPaid            TransactionStatus = "PAID"
	StatusFailed          TransactionStatus = "FAILED"
	StatusCancelled       TransactionStatus = "CANCELLED"
	StatusFailedTemporary TransactionStatus = "FAILED_TEMPORARY"
	StatusRetryPending    TransactionStatus = "RETRY_PENDING"
)

// validTransitions encodes the transaction state machine. PAID, FAILED and
// CANCELLED are terminal.
var validTransitions = map[TransactionStatus][]TransactionStatus{
	StatusCreated:         {StatusPending, StatusFailed, StatusFailedTemporary},
	StatusPending:         {StatusPaid, StatusFailed, StatusCancelled, StatusFailedTemporary},
	StatusFailedTemporary: {StatusRetryPending, StatusFailed},
	StatusRetryPending:    {StatusPending, StatusPaid, StatusFailed, StatusCancelled},
}

func (s TransactionStatus) IsTerminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusCancelled
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transaction is the unit of work. Rows are never deleted (audit trail).
type Transaction struct {
	ID            string
	ClientID      string
	GatewayID     string
	OrderID       string
	Amount        int64
	Status        TransactionStatus
	ProviderTxnID string
	CheckoutURL   string
	RawResponse   string
	Attempts      int
	NextRetryAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TransactionRepository interface {
	CreateTransaction(txn *Transaction) error
	GetTransactionByID(txnID string) (*Transaction, error)
	GetTransactionByOrderID(clientID, orderID string) (*Transaction, error)

	// TransitionStatus applies from -> to as a single conditional update.
	// Returns ErrStatusConflict when the row is no longer in `from`, so
	// at-least-once webhook delivery stays idempotent.
	TransitionStatus(txnID string, from, to TransactionStatus) error
	// TransitionStatusWithCommission applies the status transition and the
	// wallet credit in one store transaction. Winning the transition is the
	// exactly-once guard for the credit; a failed credit rolls the
	// transition back so the job stays retryable.
	TransitionStatusWithCommission(txnID string, from, to TransactionStatus, clientID string, commission int64) error
	SetProviderResult(txnID, providerTxnID, checkoutURL string) error
	SetRawResponse(txnID, raw string) error
	ScheduleRetry(txnID string, at time.Time) error
	GetRetryableTransactions(now time.Time, limit int) ([]*Transaction, error)
}
