package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/metrics"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/psp"
)

type HealthMonitor interface {
	// ProbeGateways hits every active gateway's status endpoint and records
	// the result for the selector.
	ProbeGateways(ctx context.Context)
}

type DefaultHealthMonitor struct {
	GatewayRepo domain.GatewayRepository
	HealthRepo  domain.GatewayHealthRepository
	Registry    *psp.Registry
	Metrics     *metrics.PipelineMetrics
}

func NewDefaultHealthMonitor(
	gatewayRepo domain.GatewayRepository,
	healthRepo domain.GatewayHealthRepository,
	registry *psp.Registry,
	m *metrics.PipelineMetrics,
) *DefaultHealthMonitor {
	return &DefaultHealthMonitor{
		GatewayRepo: gatewayRepo,
		HealthRepo:  healthRepo,
		Registry:    registry,
		Metrics:     m,
	}
}

func (uc *DefaultHealthMonitor) ProbeGateways(ctx context.Context) {
	gateways, err := uc.GatewayRepo.GetActiveGateways()
	if err != nil {
		slog.Error("failed to list gateways for health probe", "error", err.Error())
		return
	}

	for _, gateway := range gateways {
		adapter, err := uc.Registry.Get(gateway.Provider)
		if err != nil {
			continue
		}

		result, err := adapter.ProbeHealth(ctx, gateway.Credentials)
		if err != nil {
			// probe failure counts as offline, not as an error
			result = &domain.ProbeResult{Online: false}
		}

		health := &domain.GatewayHealth{
			GatewayID: gateway.ID,
			IsOnline:  result.Online,
			LatencyMs: result.LatencyMs,
			CheckedAt: time.Now(),
		}
		if err := uc.HealthRepo.RecordProbe(health); err != nil {
			slog.Error("failed to record gateway probe",
				"gateway_id", gateway.ID, "error", err.Error())
			continue
		}

		if uc.Metrics != nil {
			uc.Metrics.RecordProbe(gateway.ID, gateway.Provider, result.Online, float64(result.LatencyMs)/1000)
		}
		if !result.Online {
			slog.Warn("gateway offline", "gateway_id", gateway.ID, "provider", gateway.Provider)
		}
	}
}
