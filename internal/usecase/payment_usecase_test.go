package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signRequest(clientKey, orderID string, amount int64, salt string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	fmt.Fprintf(mac, "%s|%s|%d", clientKey, orderID, amount)
	return hex.EncodeToString(mac.Sum(nil))
}

func newPaymentEnv(t *testing.T) (*testEnv, *DefaultPaymentUsecase) {
	env := newTestEnv(t)
	selector := newSelector(env)
	uc := NewDefaultPaymentUsecase(
		env.ClientRepo, env.WalletRepo, env.TxnRepo,
		selector, env.Queue, nil, nil,
		"events", "https://pay.example.com",
	)
	return env, uc
}

func TestInitiatePayment(t *testing.T) {
	env, uc := newPaymentEnv(t)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)
	env.seedGateway(t, "client-1", "gw-1", 0, 0)

	out, err := uc.InitiatePayment(context.Background(), &InitiatePaymentInput{
		Amount:    10000,
		OrderID:   "order-1",
		ClientKey: "key-client-1",
		Signature: signRequest("key-client-1", "order-1", 10000, "salt-client-1"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.TransactionID, "LSP_"))
	assert.Equal(t, domain.StatusCreated, out.Status)
	assert.Equal(t, "https://pay.example.com/checkout/"+out.TransactionID, out.CheckoutURL)

	// an order-creation job is queued for the new transaction
	depth, err := env.Queue.Depth(context.Background(), domain.QueueOrderCreation)
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	txn, err := env.TxnRepo.GetTransactionByID(out.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, "gw-1", txn.GatewayID)
}

func TestInitiatePaymentRejectsBadSignature(t *testing.T) {
	env, uc := newPaymentEnv(t)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)
	env.seedGateway(t, "client-1", "gw-1", 0, 0)

	_, err := uc.InitiatePayment(context.Background(), &InitiatePaymentInput{
		Amount:    10000,
		OrderID:   "order-1",
		ClientKey: "key-client-1",
		Signature: signRequest("key-client-1", "order-1", 99999, "salt-client-1"),
	})
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailed)
}

func TestInitiatePaymentUnknownClient(t *testing.T) {
	_, uc := newPaymentEnv(t)

	_, err := uc.InitiatePayment(context.Background(), &InitiatePaymentInput{
		Amount:    10000,
		OrderID:   "order-1",
		ClientKey: "no-such-key",
		Signature: "sig",
	})
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestInitiatePaymentSuspendsOverdueClient(t *testing.T) {
	env, uc := newPaymentEnv(t)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)
	env.seedGateway(t, "client-1", "gw-1", 0, 0)
	require.NoError(t, env.WalletRepo.CreditCommission("client-1", 200_000))

	_, err := uc.InitiatePayment(context.Background(), &InitiatePaymentInput{
		Amount:    10000,
		OrderID:   "order-1",
		ClientKey: "key-client-1",
		Signature: signRequest("key-client-1", "order-1", 10000, "salt-client-1"),
	})
	assert.ErrorIs(t, err, domain.ErrClientSuspended)
}

func TestInitiatePaymentDuplicateOrderID(t *testing.T) {
	env, uc := newPaymentEnv(t)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)
	env.seedGateway(t, "client-1", "gw-1", 0, 0)

	input := &InitiatePaymentInput{
		Amount:    10000,
		OrderID:   "order-1",
		ClientKey: "key-client-1",
		Signature: signRequest("key-client-1", "order-1", 10000, "salt-client-1"),
	}
	_, err := uc.InitiatePayment(context.Background(), input)
	require.NoError(t, err)

	_, err = uc.InitiatePayment(context.Background(), input)
	assert.ErrorIs(t, err, domain.ErrDuplicateOrderID)
}

func TestInitiatePaymentNoEligibleGateway(t *testing.T) {
	env, uc := newPaymentEnv(t)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)

	_, err := uc.InitiatePayment(context.Background(), &InitiatePaymentInput{
		Amount:    10000,
		OrderID:   "order-1",
		ClientKey: "key-client-1",
		Signature: signRequest("key-client-1", "order-1", 10000, "salt-client-1"),
	})
	assert.ErrorIs(t, err, domain.ErrNoGatewayAvailable)
}
