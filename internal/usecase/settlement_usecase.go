package usecase

import (
	"errors"
	"log/slog"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/metrics"
)

type SettlementUsecase interface {
	// RunSettlementSweep settles every wallet with a positive balance.
	// Returns the number of payouts written.
	RunSettlementSweep() (int, error)
}

type DefaultSettlementUsecase struct {
	WalletRepo domain.WalletRepository
	Metrics    *metrics.PipelineMetrics
}

func NewDefaultSettlementUsecase(walletRepo domain.WalletRepository, m *metrics.PipelineMetrics) *DefaultSettlementUsecase {
	return &DefaultSettlementUsecase{WalletRepo: walletRepo, Metrics: m}
}

func (uc *DefaultSettlementUsecase) RunSettlementSweep() (int, error) {
	wallets, err := uc.WalletRepo.ListDueWallets()
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, wallet := range wallets {
		payout, err := uc.WalletRepo.SettleWallet(wallet.ID, wallet.BalanceDue)
		if err != nil {
			// balance moved under us; the next sweep picks it up
			if errors.Is(err, domain.ErrStatusConflict) {
				slog.Warn("wallet balance changed mid-sweep, skipping",
					"wallet_id", wallet.ID, "client_id", wallet.ClientID)
				continue
			}
			slog.Error("failed to settle wallet",
				"wallet_id", wallet.ID, "client_id", wallet.ClientID, "error", err.Error())
			continue
		}

		settled++
		if uc.Metrics != nil {
			uc.Metrics.RecordSettlement(wallet.ClientID, payout.Amount)
		}
		slog.Info("wallet settled",
			"wallet_id", wallet.ID,
			"client_id", wallet.ClientID,
			"amount", payout.Amount,
			"payout_id", payout.ID)
	}
	return settled, nil
}
