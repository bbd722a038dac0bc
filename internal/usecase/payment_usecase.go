package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/jaevor/go-nanoid"
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/kafka"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/metrics"
	"github.com/lightspeedpay/payment-service/internal/signature"
)

type InitiatePaymentInput struct {
	Amount    int64
	OrderID   string
	ClientKey string
	Signature string
}

type InitiatePaymentOutput struct {
	TransactionID string
	Status        domain.TransactionStatus
	CheckoutURL   string
}

type PaymentUsecase interface {
	InitiatePayment(ctx context.Context, input *InitiatePaymentInput) (*InitiatePaymentOutput, error)
	GetTransaction(txnID string) (*domain.Transaction, error)
}

// TransactionEventPublisher is the broker surface the usecases need.
// *kafka.KafkaPublisher satisfies it.
type TransactionEventPublisher interface {
	PublishTransactionEvent(topic string, event kafka.TransactionEvent) error
}

type DefaultPaymentUsecase struct {
	ClientRepo    domain.ClientRepository
	WalletRepo    domain.WalletRepository
	TxnRepo       domain.TransactionRepository
	Selector      GatewaySelector
	Queue         domain.JobQueue
	Publisher     TransactionEventPublisher
	Metrics       *metrics.PipelineMetrics
	EventTopic    string
	PublicBaseURL string

	newTxnRef func() string
}

func NewDefaultPaymentUsecase(
	clientRepo domain.ClientRepository,
	walletRepo domain.WalletRepository,
	txnRepo domain.TransactionRepository,
	selector GatewaySelector,
	queue domain.JobQueue,
	publisher TransactionEventPublisher,
	m *metrics.PipelineMetrics,
	eventTopic, publicBaseURL string,
) *DefaultPaymentUsecase {
	gen, err := nanoid.CustomASCII("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ", 14)
	if err != nil {
		log.Fatalf("failed to init txn ref generator: %v", err)
	}
	return &DefaultPaymentUsecase{
		ClientRepo:    clientRepo,
		WalletRepo:    walletRepo,
		TxnRepo:       txnRepo,
		Selector:      selector,
		Queue:         queue,
		Publisher:     publisher,
		Metrics:       m,
		EventTopic:    eventTopic,
		PublicBaseURL: publicBaseURL,
		newTxnRef:     func() string { return "LSP_" + gen() },
	}
}

// InitiatePayment authenticates the request, claims a gateway, persists the
// transaction and defers order creation to the queue. Nothing here talks to
// a PSP: the HTTP path stays latency-bounded.
func (uc *DefaultPaymentUsecase) InitiatePayment(ctx context.Context, input *InitiatePaymentInput) (*InitiatePaymentOutput, error) {
	start := time.Now()

	client, err := uc.ClientRepo.GetClientByKey(input.ClientKey)
	if err != nil {
		return nil, err
	}
	if !client.IsActive {
		return nil, domain.ErrClientNotFound
	}

	if !signature.VerifyClientSignature(input.ClientKey, input.OrderID, input.Amount, input.Signature, client.ClientSalt) {
		return nil, domain.ErrAuthenticationFailed
	}

	wallet, err := uc.WalletRepo.GetWalletByClientID(client.ID)
	if err != nil {
		return nil, err
	}
	if wallet.BalanceDue > client.SuspendThreshold {
		return nil, domain.ErrClientSuspended
	}

	gateway, err := uc.Selector.SelectGateway(client.ID, input.Amount)
	if err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:        uc.newTxnRef(),
		ClientID:  client.ID,
		GatewayID: gateway.ID,
		OrderID:   input.OrderID,
		Amount:    input.Amount,
		Status:    domain.StatusCreated,
	}
	if err := uc.TxnRepo.CreateTransaction(txn); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(domain.OrderJobPayload{TransactionID: txn.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order job: %w", err)
	}
	if _, err := uc.Queue.Enqueue(ctx, domain.QueueOrderCreation, payload); err != nil {
		return nil, fmt.Errorf("failed to enqueue order creation: %w", err)
	}

	if uc.Metrics != nil {
		uc.Metrics.RecordTransactionCreated(client.ID, gateway.Provider)
	}

	// best-effort event, never blocks the response
	if uc.Publisher != nil {
		go func(event kafka.TransactionEvent) {
			if err := uc.Publisher.PublishTransactionEvent(uc.EventTopic, event); err != nil {
				slog.Error("failed to publish transaction event", "error", err.Error())
			}
		}(kafka.TransactionEvent{
			TransactionID: txn.ID,
			ClientID:      client.ID,
			OrderID:       txn.OrderID,
			Status:        string(txn.Status),
			Amount:        txn.Amount,
			Provider:      gateway.Provider,
		})
	}

	slog.Info("payment initiated",
		"transaction_id", txn.ID,
		"client_id", client.ID,
		"gateway_id", gateway.ID,
		"elapsed", time.Since(start))

	return &InitiatePaymentOutput{
		TransactionID: txn.ID,
		Status:        txn.Status,
		CheckoutURL:   fmt.Sprintf("%s/checkout/%s", uc.PublicBaseURL, txn.ID),
	}, nil
}

func (uc *DefaultPaymentUsecase) GetTransaction(txnID string) (*domain.Transaction, error) {
	return uc.TxnRepo.GetTransactionByID(txnID)
}
