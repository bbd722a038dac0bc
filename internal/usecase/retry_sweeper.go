package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
)

const retrySweepBatchSize = 200

type RetrySweeper interface {
	// SweepRetryableTransactions re-enqueues reconciliation for transactions
	// parked in FAILED_TEMPORARY whose retry time has come.
	SweepRetryableTransactions(ctx context.Context) (int, error)
}

type DefaultRetrySweeper struct {
	TxnRepo     domain.TransactionRepository
	GatewayRepo domain.GatewayRepository
	Queue       domain.JobQueue
	// Window bounds how long after creation a transaction keeps being
	// re-delivered. Past it the transaction fails for good. Zero disables
	// the cutoff.
	Window time.Duration
}

func NewDefaultRetrySweeper(
	txnRepo domain.TransactionRepository,
	gatewayRepo domain.GatewayRepository,
	queue domain.JobQueue,
	window time.Duration,
) *DefaultRetrySweeper {
	return &DefaultRetrySweeper{
		TxnRepo:     txnRepo,
		GatewayRepo: gatewayRepo,
		Queue:       queue,
		Window:      window,
	}
}

func (uc *DefaultRetrySweeper) SweepRetryableTransactions(ctx context.Context) (int, error) {
	txns, err := uc.TxnRepo.GetRetryableTransactions(time.Now(), retrySweepBatchSize)
	if err != nil {
		return 0, err
	}

	revived := 0
	for _, txn := range txns {
		if uc.Window > 0 && time.Since(txn.CreatedAt) > uc.Window {
			if err := uc.TxnRepo.TransitionStatus(txn.ID, domain.StatusFailedTemporary, domain.StatusFailed); err != nil &&
				!errors.Is(err, domain.ErrStatusConflict) {
				slog.Error("failed to expire transaction",
					"transaction_id", txn.ID, "error", err.Error())
				continue
			}
			slog.Warn("retry window elapsed, transaction failed",
				"transaction_id", txn.ID)
			continue
		}

		if txn.RawResponse == "" {
			// nothing to replay; the transaction stays parked until a fresh
			// webhook or an operator resolves it
			slog.Warn("retryable transaction has no stored callback",
				"transaction_id", txn.ID)
			continue
		}

		gateway, err := uc.GatewayRepo.GetGatewayByID(txn.GatewayID)
		if err != nil {
			slog.Error("failed to load gateway for retry",
				"transaction_id", txn.ID, "gateway_id", txn.GatewayID, "error", err.Error())
			continue
		}

		// flipping the status first makes the sweep idempotent: a concurrent
		// sweeper loses the conditional update and skips the transaction
		err = uc.TxnRepo.TransitionStatus(txn.ID, domain.StatusFailedTemporary, domain.StatusRetryPending)
		if errors.Is(err, domain.ErrStatusConflict) {
			continue
		}
		if err != nil {
			slog.Error("failed to revive transaction",
				"transaction_id", txn.ID, "error", err.Error())
			continue
		}

		payload, err := json.Marshal(domain.WebhookJobPayload{
			Provider: gateway.Provider,
			RawBody:  []byte(txn.RawResponse),
		})
		if err != nil {
			slog.Error("failed to marshal retry job", "transaction_id", txn.ID, "error", err.Error())
			continue
		}
		if _, err := uc.Queue.Enqueue(ctx, domain.QueueWebhook, payload); err != nil {
			slog.Error("failed to enqueue retry job",
				"transaction_id", txn.ID, "error", err.Error())
			continue
		}

		revived++
		slog.Info("transaction queued for retry",
			"transaction_id", txn.ID, "provider", gateway.Provider)
	}
	return revived, nil
}
