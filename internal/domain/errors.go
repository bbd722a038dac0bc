package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrClientNotFound       = errors.New("client not found")
	ErrClientSuspended      = errors.New("client suspended due to outstanding balance")
	ErrNoGatewayAvailable   = errors.New("no gateway available")
	ErrCapacityExceeded     = errors.New("gateway capacity exceeded")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrDuplicateOrderID     = errors.New("order id already used")
	ErrStatusConflict       = errors.New("transaction status conflict")
	ErrRotationConflict     = errors.New("rotation position moved concurrently")
	ErrLedgerInconsistency  = errors.New("ledger inconsistency")
	ErrQueueEmpty           = errors.New("queue empty")
)

// ProviderError classifies PSP failures. Retryable errors are nacked back to
// the queue with backoff; permanent errors fail the transaction outright.
type ProviderError struct {
	Provider  string
	Code      string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func NewTransientProviderError(provider, code string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Retryable: true, Err: err}
}

func NewPermanentProviderError(provider, code string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Code: code, Retryable: false, Err: err}
}

// IsRetryable reports whether err should go back to the queue.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
