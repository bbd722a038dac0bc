package usecase

import (
	"testing"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementSweepPaysOutDueWallets(t *testing.T) {
	env := newTestEnv(t)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)
	env.seedClient(t, "client-2", domain.RotationRoundRobin)
	require.NoError(t, env.WalletRepo.CreditCommission("client-1", 4321))
	uc := NewDefaultSettlementUsecase(env.WalletRepo, nil)

	settled, err := uc.RunSettlementSweep()
	require.NoError(t, err)
	assert.Equal(t, 1, settled)

	wallet, err := env.WalletRepo.GetWalletByClientID("client-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.BalanceDue)
	assert.Equal(t, int64(4321), wallet.SettledAmount)

	payouts, err := env.WalletRepo.ListPayouts("client-1")
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	assert.Equal(t, int64(4321), payouts[0].Amount)

	// an immediate re-run finds nothing due and pays nothing twice
	settled, err = uc.RunSettlementSweep()
	require.NoError(t, err)
	assert.Equal(t, 0, settled)

	payouts, err = env.WalletRepo.ListPayouts("client-1")
	require.NoError(t, err)
	assert.Len(t, payouts, 1)
}

func TestSettlementSweepSettlesAllDueWallets(t *testing.T) {
	env := newTestEnv(t)
	env.seedClient(t, "client-1", domain.RotationRoundRobin)
	env.seedClient(t, "client-2", domain.RotationRoundRobin)
	require.NoError(t, env.WalletRepo.CreditCommission("client-1", 100))
	require.NoError(t, env.WalletRepo.CreditCommission("client-2", 200))
	uc := NewDefaultSettlementUsecase(env.WalletRepo, nil)

	settled, err := uc.RunSettlementSweep()
	require.NoError(t, err)
	assert.Equal(t, 2, settled)

	for _, clientID := range []string{"client-1", "client-2"} {
		wallet, err := env.WalletRepo.GetWalletByClientID(clientID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), wallet.BalanceDue, clientID)
	}
}
