package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/psp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderJob(t *testing.T, txnID string) []byte {
	payload, err := json.Marshal(domain.OrderJobPayload{TransactionID: txnID})
	require.NoError(t, err)
	return payload
}

func newOrderEnv(t *testing.T, adapter *fakeAdapter) (*testEnv, *DefaultOrderUsecase) {
	env := newTestEnv(t)
	registry := psp.NewRegistry(adapter)
	uc := NewDefaultOrderUsecase(env.TxnRepo, env.GatewayRepo, registry, nil, time.Second)
	return env, uc
}

func TestProcessOrderJobSuccess(t *testing.T) {
	adapter := &fakeAdapter{provider: "fake"}
	env, uc := newOrderEnv(t, adapter)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)
	env.seedGateway(t, "client-1", "gw-1", 0, 0)
	env.seedTransaction(t, "LSP_A", "client-1", "gw-1", 10000, domain.StatusCreated)

	require.NoError(t, uc.ProcessOrderJob(context.Background(), orderJob(t, "LSP_A")))

	txn, err := env.TxnRepo.GetTransactionByID("LSP_A")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, txn.Status)
	assert.Equal(t, "prov-LSP_A", txn.ProviderTxnID)
	assert.Equal(t, "https://fake.test/pay/LSP_A", txn.CheckoutURL)
}

func TestProcessOrderJobTransientErrorIsNacked(t *testing.T) {
	adapter := &fakeAdapter{
		provider:  "fake",
		createErr: domain.NewTransientProviderError("fake", "NETWORK", errors.New("connection refused")),
	}
	env, uc := newOrderEnv(t, adapter)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)
	env.seedGateway(t, "client-1", "gw-1", 0, 0)
	env.seedTransaction(t, "LSP_A", "client-1", "gw-1", 10000, domain.StatusCreated)

	err := uc.ProcessOrderJob(context.Background(), orderJob(t, "LSP_A"))
	require.Error(t, err)

	// the transaction stays CREATED so a redelivery can retry
	txn, err := env.TxnRepo.GetTransactionByID("LSP_A")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCreated, txn.Status)
}

func TestProcessOrderJobPermanentErrorFailsTransaction(t *testing.T) {
	adapter := &fakeAdapter{
		provider:  "fake",
		createErr: domain.NewPermanentProviderError("fake", "HTTP_400", errors.New("invalid credentials")),
	}
	env, uc := newOrderEnv(t, adapter)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)
	env.seedGateway(t, "client-1", "gw-1", 0, 0)
	env.seedTransaction(t, "LSP_A", "client-1", "gw-1", 10000, domain.StatusCreated)

	// permanent failures are absorbed, the job must be acked
	require.NoError(t, uc.ProcessOrderJob(context.Background(), orderJob(t, "LSP_A")))

	txn, err := env.TxnRepo.GetTransactionByID("LSP_A")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, txn.Status)
	assert.Contains(t, txn.RawResponse, "invalid credentials")
}

func TestProcessOrderJobSkipsMovedOnTransaction(t *testing.T) {
	adapter := &fakeAdapter{provider: "fake"}
	env, uc := newOrderEnv(t, adapter)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)
	env.seedGateway(t, "client-1", "gw-1", 0, 0)
	env.seedTransaction(t, "LSP_A", "client-1", "gw-1", 10000, domain.StatusPaid)

	require.NoError(t, uc.ProcessOrderJob(context.Background(), orderJob(t, "LSP_A")))
	assert.Equal(t, 0, adapter.createCalls)
}

func TestProcessOrderJobMalformedPayloadDropped(t *testing.T) {
	_, uc := newOrderEnv(t, &fakeAdapter{provider: "fake"})
	assert.NoError(t, uc.ProcessOrderJob(context.Background(), []byte("not json")))
}
