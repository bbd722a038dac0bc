package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/models"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/repository"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/queue"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	DB          *gorm.DB
	ClientRepo  *repository.DefaultClientRepository
	GatewayRepo *repository.DefaultGatewayRepository
	HealthRepo  *repository.DefaultGatewayHealthRepository
	TxnRepo     *repository.DefaultTransactionRepository
	WalletRepo  *repository.DefaultWalletRepository
	Queue       *queue.GormJobQueue
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ClientModel{},
		&models.GatewayModel{},
		&models.GatewayAssignmentModel{},
		&models.GatewayHealthModel{},
		&models.TransactionModel{},
		&models.CommissionWalletModel{},
		&models.PayoutLogModel{},
		&models.JobModel{},
	))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return &testEnv{
		DB:          db,
		ClientRepo:  repository.NewDefaultClientRepository(db),
		GatewayRepo: repository.NewDefaultGatewayRepository(db),
		HealthRepo:  repository.NewDefaultGatewayHealthRepository(db),
		TxnRepo:     repository.NewDefaultTransactionRepository(db),
		WalletRepo:  repository.NewDefaultWalletRepository(db),
		Queue:       queue.NewGormJobQueue(db, 5, 0),
	}
}

func (e *testEnv) seedClient(t *testing.T, clientID string, mode domain.RotationMode) {
	require.NoError(t, e.DB.Create(&models.ClientModel{
		ID:               clientID,
		ClientKey:        "key-" + clientID,
		ClientSalt:       "salt-" + clientID,
		FeePercent:       3.5,
		SuspendThreshold: 100_000,
		RotationMode:     string(mode),
		WebhookURL:       "",
		IsActive:         true,
	}).Error)
	require.NoError(t, e.DB.Create(&models.CommissionWalletModel{
		ID:       "wallet-" + clientID,
		ClientID: clientID,
	}).Error)
}

func (e *testEnv) seedGateway(t *testing.T, clientID, gatewayID string, rotationOrder, priority int) {
	require.NoError(t, e.DB.Create(&models.GatewayModel{
		ID:          gatewayID,
		Provider:    "fake",
		Credentials: "{}",
		IsActive:    true,
		Priority:    priority,
	}).Error)
	require.NoError(t, e.DB.Create(&models.GatewayAssignmentModel{
		ID:            "as-" + gatewayID,
		ClientID:      clientID,
		GatewayID:     gatewayID,
		RotationOrder: rotationOrder,
		IsActive:      true,
		Weight:        1,
	}).Error)
}

func (e *testEnv) seedTransaction(t *testing.T, txnID, clientID, gatewayID string, amount int64, status domain.TransactionStatus) {
	require.NoError(t, e.DB.Create(&models.TransactionModel{
		ID:        txnID,
		ClientID:  clientID,
		GatewayID: gatewayID,
		OrderID:   "order-" + txnID,
		Amount:    amount,
		Status:    status,
	}).Error)
}

// fakeAdapter is a scriptable PSP for worker tests. Webhook bodies are plain
// JSON: {"transaction_id": "...", "status": "paid"}.
type fakeAdapter struct {
	provider    string
	createErr   error
	createCalls int
	mu          sync.Mutex
}

type fakeWebhook struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	ProviderTxnID string `json:"provider_txn_id"`
}

func (f *fakeAdapter) Provider() string { return f.provider }

func (f *fakeAdapter) CreateOrder(ctx context.Context, in domain.CreateOrderInput) (*domain.CreateOrderResult, error) {
	f.mu.Lock()
	f.createCalls++
	f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.CreateOrderResult{
		ProviderTxnID: "prov-" + in.TransactionID,
		CheckoutURL:   "https://fake.test/pay/" + in.TransactionID,
		RawResponse:   `{"ok":true}`,
	}, nil
}

func (f *fakeAdapter) ParseWebhook(rawBody []byte) (*domain.WebhookEvent, error) {
	var hook fakeWebhook
	if err := json.Unmarshal(rawBody, &hook); err != nil {
		return nil, err
	}
	return &domain.WebhookEvent{
		TransactionID: hook.TransactionID,
		ProviderTxnID: hook.ProviderTxnID,
		Status:        domain.CanonicalStatus(hook.Status),
	}, nil
}

func (f *fakeAdapter) VerifyWebhook(rawBody []byte, headers http.Header, secret string) bool {
	return true
}

func (f *fakeAdapter) ProbeHealth(ctx context.Context, creds map[string]string) (*domain.ProbeResult, error) {
	return &domain.ProbeResult{Online: true, LatencyMs: 5}, nil
}

func now(offsetMinutes int) time.Time {
	return time.Now().Add(time.Duration(offsetMinutes) * time.Minute)
}

func fakeWebhookBody(t *testing.T, txnID, status string) []byte {
	body, err := json.Marshal(fakeWebhook{TransactionID: txnID, Status: status, ProviderTxnID: "prov-" + txnID})
	require.NoError(t, err)
	return body
}
