package background

import (
	"context"
	"log"
	"time"

	"github.com/lightspeedpay/payment-service/internal/config"
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/metrics"
	"github.com/lightspeedpay/payment-service/internal/usecase"
)

type BackgroundTasks struct {
	SettlementUsecase usecase.SettlementUsecase
	RetrySweeper      usecase.RetrySweeper
	HealthMonitor     usecase.HealthMonitor
	GatewayRepo       domain.GatewayRepository
	Queue             domain.JobQueue
	Metrics           *metrics.PipelineMetrics
	Sweeps            config.Sweeps
}

func NewBackgroundTasks(
	settlementUC usecase.SettlementUsecase,
	sweeper usecase.RetrySweeper,
	monitor usecase.HealthMonitor,
	gatewayRepo domain.GatewayRepository,
	queue domain.JobQueue,
	m *metrics.PipelineMetrics,
	sweeps config.Sweeps,
) *BackgroundTasks {
	return &BackgroundTasks{
		SettlementUsecase: settlementUC,
		RetrySweeper:      sweeper,
		HealthMonitor:     monitor,
		GatewayRepo:       gatewayRepo,
		Queue:             queue,
		Metrics:           m,
		Sweeps:            sweeps,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startSettlementSweep(ctx)
	go bt.startRetrySweep(ctx)
	go bt.startHealthProbes(ctx)
	go bt.startDailyUsageReset(ctx)
	go bt.startQueueDepthGauge(ctx)
}

func (bt *BackgroundTasks) startSettlementSweep(ctx context.Context) {
	ticker := time.NewTicker(bt.Sweeps.SettlementInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			settled, err := bt.SettlementUsecase.RunSettlementSweep()
			if err != nil {
				log.Printf("Settlement sweep error: %v\n", err)
				continue
			}
			if settled > 0 {
				log.Printf("Settlement sweep finished: %d wallets settled", settled)
			}
		}
	}
}

func (bt *BackgroundTasks) startRetrySweep(ctx context.Context) {
	ticker := time.NewTicker(bt.Sweeps.RetrySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := bt.RetrySweeper.SweepRetryableTransactions(ctx); err != nil {
				log.Printf("Retry sweep error: %v\n", err)
			}
		}
	}
}

func (bt *BackgroundTasks) startHealthProbes(ctx context.Context) {
	// probe once at startup so the selector has data before the first tick
	bt.HealthMonitor.ProbeGateways(ctx)

	ticker := time.NewTicker(bt.Sweeps.HealthProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.HealthMonitor.ProbeGateways(ctx)
		}
	}
}

// startDailyUsageReset zeroes assignment windows once the day rolls over. The
// ticker fires more often than once a day; the reset itself is cheap and
// idempotent for already-zeroed rows.
func (bt *BackgroundTasks) startDailyUsageReset(ctx context.Context) {
	ticker := time.NewTicker(bt.Sweeps.DailyResetInterval)
	defer ticker.Stop()

	lastReset := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if now.Day() == lastReset.Day() && now.Sub(lastReset) < 24*time.Hour {
				continue
			}
			rows, err := bt.GatewayRepo.ResetDailyUsage()
			if err != nil {
				log.Printf("Daily usage reset error: %v\n", err)
				continue
			}
			lastReset = now
			log.Printf("Daily usage reset: %d assignments cleared", rows)
		}
	}
}

func (bt *BackgroundTasks) startQueueDepthGauge(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	queues := []string{domain.QueueOrderCreation, domain.QueueWebhook}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, queue := range queues {
				depth, err := bt.Queue.Depth(ctx, queue)
				if err != nil {
					continue
				}
				bt.Metrics.QueueDepthGauge.WithLabelValues(queue).Set(float64(depth))
			}
		}
	}
}
