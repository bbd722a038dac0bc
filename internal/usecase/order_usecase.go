package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/metrics"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/psp"
)

type OrderUsecase interface {
	// ProcessOrderJob creates the order at the PSP for a queued transaction.
	// A returned error means the job should be nacked; permanent provider
	// failures are absorbed here by failing the transaction.
	ProcessOrderJob(ctx context.Context, payload []byte) error
}

type DefaultOrderUsecase struct {
	TxnRepo     domain.TransactionRepository
	GatewayRepo domain.GatewayRepository
	Registry    *psp.Registry
	Metrics     *metrics.PipelineMetrics
	CallTimeout time.Duration
}

func NewDefaultOrderUsecase(
	txnRepo domain.TransactionRepository,
	gatewayRepo domain.GatewayRepository,
	registry *psp.Registry,
	m *metrics.PipelineMetrics,
	callTimeout time.Duration,
) *DefaultOrderUsecase {
	return &DefaultOrderUsecase{
		TxnRepo:     txnRepo,
		GatewayRepo: gatewayRepo,
		Registry:    registry,
		Metrics:     m,
		CallTimeout: callTimeout,
	}
}

func (uc *DefaultOrderUsecase) ProcessOrderJob(ctx context.Context, payload []byte) error {
	var job domain.OrderJobPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		slog.Error("malformed order job dropped", "error", err.Error())
		return nil
	}

	txn, err := uc.TxnRepo.GetTransactionByID(job.TransactionID)
	if err != nil {
		return fmt.Errorf("failed to load transaction %s: %w", job.TransactionID, err)
	}
	// redelivered job for a transaction that already moved on
	if txn.Status != domain.StatusCreated {
		return nil
	}

	gateway, err := uc.GatewayRepo.GetGatewayByID(txn.GatewayID)
	if err != nil {
		return fmt.Errorf("failed to load gateway %s: %w", txn.GatewayID, err)
	}

	adapter, err := uc.Registry.Get(gateway.Provider)
	if err != nil {
		slog.Error("no adapter for gateway, failing transaction",
			"transaction_id", txn.ID, "provider", gateway.Provider)
		return uc.failTransaction(txn, err.Error())
	}

	callCtx, cancel := context.WithTimeout(ctx, uc.CallTimeout)
	defer cancel()

	result, err := adapter.CreateOrder(callCtx, domain.CreateOrderInput{
		Credentials:   gateway.Credentials,
		Amount:        txn.Amount,
		OrderID:       txn.OrderID,
		TransactionID: txn.ID,
	})
	if err != nil {
		if domain.IsRetryable(err) {
			return fmt.Errorf("order creation at %s failed: %w", gateway.Provider, err)
		}
		slog.Warn("permanent provider error, failing transaction",
			"transaction_id", txn.ID, "provider", gateway.Provider, "error", err.Error())
		return uc.failTransaction(txn, err.Error())
	}

	if err := uc.TxnRepo.SetProviderResult(txn.ID, result.ProviderTxnID, result.CheckoutURL); err != nil {
		return fmt.Errorf("failed to persist provider result: %w", err)
	}
	if result.RawResponse != "" {
		if err := uc.TxnRepo.SetRawResponse(txn.ID, result.RawResponse); err != nil {
			slog.Error("failed to persist raw provider response", "transaction_id", txn.ID, "error", err.Error())
		}
	}

	if err := uc.TxnRepo.TransitionStatus(txn.ID, domain.StatusCreated, domain.StatusPending); err != nil {
		// a webhook beat us to it; the checkout reference is saved either way
		if err == domain.ErrStatusConflict {
			return nil
		}
		return fmt.Errorf("failed to advance transaction %s: %w", txn.ID, err)
	}

	slog.Info("order created at provider",
		"transaction_id", txn.ID,
		"provider", gateway.Provider,
		"provider_txn_id", result.ProviderTxnID)
	return nil
}

func (uc *DefaultOrderUsecase) failTransaction(txn *domain.Transaction, reason string) error {
	if err := uc.TxnRepo.SetRawResponse(txn.ID, reason); err != nil {
		slog.Error("failed to persist failure reason", "transaction_id", txn.ID, "error", err.Error())
	}
	if err := uc.TxnRepo.TransitionStatus(txn.ID, txn.Status, domain.StatusFailed); err != nil {
		if err == domain.ErrStatusConflict {
			return nil
		}
		return err
	}
	if uc.Metrics != nil {
		uc.Metrics.RecordTransactionFailed(txn.ClientID, "", string(domain.StatusFailed), txn.Amount)
	}
	return nil
}
