package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/kafka"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/metrics"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/notifier"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/psp"
)

type ReconcileUsecase interface {
	// ProcessWebhookJob maps a queued provider callback onto the transaction
	// state machine. Idempotent: redelivery of an already-applied callback
	// is a no-op.
	ProcessWebhookJob(ctx context.Context, payload []byte) error
	// MarkTemporaryFailure parks the referenced transaction for the retry
	// sweeper after its reconciliation job dead-letters.
	MarkTemporaryFailure(payload []byte, retryAt time.Time)
}

type DefaultReconcileUsecase struct {
	TxnRepo     domain.TransactionRepository
	ClientRepo  domain.ClientRepository
	GatewayRepo domain.GatewayRepository
	Registry    *psp.Registry
	Publisher   TransactionEventPublisher
	Metrics     *metrics.PipelineMetrics
	EventTopic  string
}

func NewDefaultReconcileUsecase(
	txnRepo domain.TransactionRepository,
	clientRepo domain.ClientRepository,
	gatewayRepo domain.GatewayRepository,
	registry *psp.Registry,
	publisher TransactionEventPublisher,
	m *metrics.PipelineMetrics,
	eventTopic string,
) *DefaultReconcileUsecase {
	return &DefaultReconcileUsecase{
		TxnRepo:     txnRepo,
		ClientRepo:  clientRepo,
		GatewayRepo: gatewayRepo,
		Registry:    registry,
		Publisher:   publisher,
		Metrics:     m,
		EventTopic:  eventTopic,
	}
}

// CommissionFor computes the platform fee in minor units.
func CommissionFor(amount int64, feePercent float64) int64 {
	return int64(math.Round(float64(amount) * feePercent / 100))
}

func canonicalToStatus(c domain.CanonicalStatus) (domain.TransactionStatus, bool) {
	switch c {
	case domain.CanonicalPaid:
		return domain.StatusPaid, true
	case domain.CanonicalFailed:
		return domain.StatusFailed, true
	case domain.CanonicalCancelled:
		return domain.StatusCancelled, true
	default:
		return "", false
	}
}

func (uc *DefaultReconcileUsecase) ProcessWebhookJob(ctx context.Context, payload []byte) error {
	var job domain.WebhookJobPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		slog.Error("malformed webhook job dropped", "error", err.Error())
		return nil
	}

	adapter, err := uc.Registry.Get(job.Provider)
	if err != nil {
		slog.Error("webhook for unknown provider dropped", "provider", job.Provider)
		return nil
	}

	event, err := adapter.ParseWebhook(job.RawBody)
	if err != nil {
		slog.Error("unparseable webhook dropped", "provider", job.Provider, "error", err.Error())
		return nil
	}

	txn, err := uc.TxnRepo.GetTransactionByID(event.TransactionID)
	if err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			slog.Warn("webhook for unknown transaction dropped",
				"provider", job.Provider, "transaction_id", event.TransactionID)
			return nil
		}
		return fmt.Errorf("failed to load transaction %s: %w", event.TransactionID, err)
	}

	// keep the raw callback for audit and for the retry sweeper
	if err := uc.TxnRepo.SetRawResponse(txn.ID, string(job.RawBody)); err != nil {
		slog.Error("failed to persist webhook body", "transaction_id", txn.ID, "error", err.Error())
	}

	target, terminal := canonicalToStatus(event.Status)
	if !terminal {
		// informational callback, nothing to reconcile
		return nil
	}

	// duplicate delivery for a settled transaction is acknowledged, not an error
	if txn.Status.IsTerminal() {
		return nil
	}

	from := txn.Status
	if from == domain.StatusCreated {
		// webhook outran the order worker; pass through PENDING first
		if err := uc.TxnRepo.TransitionStatus(txn.ID, domain.StatusCreated, domain.StatusPending); err != nil &&
			!errors.Is(err, domain.ErrStatusConflict) {
			return fmt.Errorf("failed to advance created transaction: %w", err)
		}
		from = domain.StatusPending
	}
	if from == domain.StatusFailedTemporary {
		// the sweeper normally flips this, but apply directly when the
		// provider resolves the transaction before the sweep runs
		if err := uc.TxnRepo.TransitionStatus(txn.ID, domain.StatusFailedTemporary, domain.StatusRetryPending); err != nil &&
			!errors.Is(err, domain.ErrStatusConflict) {
			return fmt.Errorf("failed to revive temporary failure: %w", err)
		}
		from = domain.StatusRetryPending
	}

	if target == domain.StatusPaid {
		return uc.applyPaid(txn, from, event, job.Provider)
	}
	return uc.applyTerminalFailure(txn, from, target, job.Provider)
}

// applyPaid wins the transition and credits commission atomically; whoever
// loses the status race must not credit.
func (uc *DefaultReconcileUsecase) applyPaid(txn *domain.Transaction, from domain.TransactionStatus, event *domain.WebhookEvent, provider string) error {
	client, err := uc.ClientRepo.GetClientByID(txn.ClientID)
	if err != nil {
		return fmt.Errorf("failed to load client %s: %w", txn.ClientID, err)
	}

	commission := CommissionFor(txn.Amount, client.FeePercent)
	err = uc.TxnRepo.TransitionStatusWithCommission(txn.ID, from, domain.StatusPaid, client.ID, commission)
	if errors.Is(err, domain.ErrStatusConflict) {
		// someone else applied a terminal status; duplicate is a no-op
		return nil
	}
	if errors.Is(err, domain.ErrLedgerInconsistency) {
		slog.Error("wallet credit affected zero rows, failing closed",
			"transaction_id", txn.ID, "client_id", client.ID)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to apply paid transition: %w", err)
	}

	if event.ProviderTxnID != "" {
		if err := uc.TxnRepo.SetProviderResult(txn.ID, event.ProviderTxnID, txn.CheckoutURL); err != nil {
			slog.Error("failed to persist provider txn id", "transaction_id", txn.ID, "error", err.Error())
		}
	}

	if uc.Metrics != nil {
		uc.Metrics.RecordTransactionPaid(client.ID, provider, txn.Amount)
		uc.Metrics.RecordCommission(client.ID, commission)
	}
	uc.notify(txn, client, domain.StatusPaid, provider)

	slog.Info("transaction reconciled",
		"transaction_id", txn.ID,
		"status", domain.StatusPaid,
		"commission", commission)
	return nil
}

func (uc *DefaultReconcileUsecase) applyTerminalFailure(txn *domain.Transaction, from, target domain.TransactionStatus, provider string) error {
	err := uc.TxnRepo.TransitionStatus(txn.ID, from, target)
	if errors.Is(err, domain.ErrStatusConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply %s transition: %w", target, err)
	}

	client, err := uc.ClientRepo.GetClientByID(txn.ClientID)
	if err != nil {
		slog.Error("failed to load client for notification", "client_id", txn.ClientID, "error", err.Error())
		return nil
	}

	if uc.Metrics != nil {
		uc.Metrics.RecordTransactionFailed(client.ID, provider, string(target), txn.Amount)
	}
	uc.notify(txn, client, target, provider)
	return nil
}

// notify publishes the broker event and forwards the merchant callback.
// Both are best-effort and never affect the reconciliation outcome.
func (uc *DefaultReconcileUsecase) notify(txn *domain.Transaction, client *domain.Client, status domain.TransactionStatus, provider string) {
	if uc.Publisher != nil {
		go func(event kafka.TransactionEvent) {
			if err := uc.Publisher.PublishTransactionEvent(uc.EventTopic, event); err != nil {
				slog.Error("failed to publish transaction event", "error", err.Error())
			}
		}(kafka.TransactionEvent{
			TransactionID: txn.ID,
			ClientID:      client.ID,
			OrderID:       txn.OrderID,
			Status:        string(status),
			Amount:        txn.Amount,
			Provider:      provider,
		})
	}

	if client.WebhookURL != "" {
		notifier.SendCallback(client.WebhookURL, notifier.CallbackPayload{
			TransactionID: txn.ID,
			OrderID:       txn.OrderID,
			Status:        string(status),
			Amount:        txn.Amount,
			ConfirmedAt:   time.Now(),
		})
	}
}

// MarkTemporaryFailure is the dead-letter hook for the webhook queue. The
// transaction enters the FAILED_TEMPORARY loop and the sweeper re-delivers
// it once retryAt elapses.
func (uc *DefaultReconcileUsecase) MarkTemporaryFailure(payload []byte, retryAt time.Time) {
	var job domain.WebhookJobPayload
	if err := json.Unmarshal(payload, &job); err != nil {
		return
	}
	adapter, err := uc.Registry.Get(job.Provider)
	if err != nil {
		return
	}
	event, err := adapter.ParseWebhook(job.RawBody)
	if err != nil {
		return
	}

	txn, err := uc.TxnRepo.GetTransactionByID(event.TransactionID)
	if err != nil || txn.Status.IsTerminal() {
		return
	}

	// a revived job that failed again must pass back through PENDING before
	// it can be parked once more
	if txn.Status == domain.StatusRetryPending {
		if err := uc.TxnRepo.TransitionStatus(txn.ID, domain.StatusRetryPending, domain.StatusPending); err != nil {
			return
		}
		txn.Status = domain.StatusPending
	}

	if err := uc.TxnRepo.TransitionStatus(txn.ID, txn.Status, domain.StatusFailedTemporary); err != nil {
		if !errors.Is(err, domain.ErrStatusConflict) {
			slog.Error("failed to park transaction for retry", "transaction_id", txn.ID, "error", err.Error())
		}
		return
	}
	if err := uc.TxnRepo.ScheduleRetry(txn.ID, retryAt); err != nil {
		slog.Error("failed to schedule retry", "transaction_id", txn.ID, "error", err.Error())
	}
}
