package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics covers the payment routing and settlement pipeline.
type PipelineMetrics struct {
	TransactionsCreatedTotal prometheus.CounterVec
	TransactionsPaidTotal    prometheus.CounterVec
	TransactionsFailedTotal  prometheus.CounterVec
	TransactionsAmountTotal  prometheus.CounterVec

	GatewaySelectedTotal   prometheus.CounterVec
	NoGatewayTotal         prometheus.CounterVec
	GatewayProbeLatency    prometheus.HistogramVec
	GatewayOnlineGauge     prometheus.GaugeVec

	CommissionCreditedTotal prometheus.CounterVec
	SettlementsTotal        prometheus.CounterVec
	SettlementAmountTotal   prometheus.CounterVec

	QueueDepthGauge      prometheus.GaugeVec
	JobsProcessedTotal   prometheus.CounterVec
	JobsRetriedTotal     prometheus.CounterVec
	JobsDeadLetteredTotal prometheus.CounterVec
	JobDuration          prometheus.HistogramVec

	WebhooksReceivedTotal  prometheus.CounterVec
	WebhooksRejectedTotal  prometheus.CounterVec
	UnverifiedWebhookTotal prometheus.CounterVec
}

func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		TransactionsCreatedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_created_total",
				Help: "Transactions accepted by the payment initiator",
			},
			[]string{"client_id", "provider"},
		),
		TransactionsPaidTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_paid_total",
				Help: "Transactions reconciled to PAID",
			},
			[]string{"client_id", "provider"},
		),
		TransactionsFailedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_failed_total",
				Help: "Transactions reconciled to FAILED or CANCELLED",
			},
			[]string{"client_id", "provider", "status"},
		),
		TransactionsAmountTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_amount_total",
				Help: "Total transaction amount in minor units by final status",
			},
			[]string{"client_id", "status"},
		),
		GatewaySelectedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_selected_total",
				Help: "Gateway selections by rotation mode",
			},
			[]string{"gateway_id", "mode"},
		),
		NoGatewayTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_unavailable_total",
				Help: "Payment requests rejected because no gateway was eligible",
			},
			[]string{"client_id"},
		),
		GatewayProbeLatency: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_probe_latency_seconds",
				Help:    "Health probe round-trip per gateway",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
			},
			[]string{"gateway_id", "provider"},
		),
		GatewayOnlineGauge: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gateway_online",
				Help: "1 when the latest probe of the gateway succeeded",
			},
			[]string{"gateway_id", "provider"},
		),
		CommissionCreditedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commission_credited_total",
				Help: "Commission credited to client wallets in minor units",
			},
			[]string{"client_id"},
		),
		SettlementsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlements_total",
				Help: "Settlement payout records written",
			},
			[]string{"client_id"},
		),
		SettlementAmountTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_amount_total",
				Help: "Settled amount in minor units",
			},
			[]string{"client_id"},
		),
		QueueDepthGauge: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "queue_depth",
				Help: "Jobs waiting per queue",
			},
			[]string{"queue"},
		),
		JobsProcessedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_jobs_processed_total",
				Help: "Jobs acked per queue",
			},
			[]string{"queue"},
		),
		JobsRetriedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_jobs_retried_total",
				Help: "Jobs nacked back with backoff per queue",
			},
			[]string{"queue"},
		),
		JobsDeadLetteredTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_jobs_dead_lettered_total",
				Help: "Jobs parked after exhausting the attempt budget",
			},
			[]string{"queue"},
		),
		JobDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "queue_job_duration_seconds",
				Help:    "Job handler execution time",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"queue", "outcome"},
		),
		WebhooksReceivedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhooks_received_total",
				Help: "Provider callbacks accepted and enqueued",
			},
			[]string{"provider"},
		),
		WebhooksRejectedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhooks_rejected_total",
				Help: "Provider callbacks rejected at the boundary",
			},
			[]string{"provider", "reason"},
		),
		UnverifiedWebhookTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhooks_unverified_total",
				Help: "Callbacks passed through with no secret configured",
			},
			[]string{"provider"},
		),
	}
}

func (m *PipelineMetrics) RecordTransactionCreated(clientID, provider string) {
	m.TransactionsCreatedTotal.WithLabelValues(clientID, provider).Inc()
}

func (m *PipelineMetrics) RecordTransactionPaid(clientID, provider string, amount int64) {
	m.TransactionsPaidTotal.WithLabelValues(clientID, provider).Inc()
	m.TransactionsAmountTotal.WithLabelValues(clientID, "PAID").Add(float64(amount))
}

func (m *PipelineMetrics) RecordTransactionFailed(clientID, provider, status string, amount int64) {
	m.TransactionsFailedTotal.WithLabelValues(clientID, provider, status).Inc()
	m.TransactionsAmountTotal.WithLabelValues(clientID, status).Add(float64(amount))
}

func (m *PipelineMetrics) RecordProbe(gatewayID, provider string, online bool, latencySeconds float64) {
	m.GatewayProbeLatency.WithLabelValues(gatewayID, provider).Observe(latencySeconds)
	v := 0.0
	if online {
		v = 1.0
	}
	m.GatewayOnlineGauge.WithLabelValues(gatewayID, provider).Set(v)
}

func (m *PipelineMetrics) RecordCommission(clientID string, commission int64) {
	m.CommissionCreditedTotal.WithLabelValues(clientID).Add(float64(commission))
}

func (m *PipelineMetrics) RecordSettlement(clientID string, amount int64) {
	m.SettlementsTotal.WithLabelValues(clientID).Inc()
	m.SettlementAmountTotal.WithLabelValues(clientID).Add(float64(amount))
}
