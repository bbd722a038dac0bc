package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type PaymentConfig struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	PaymentDB  `yaml:"payment_db"`
	LogConfig  `yaml:"log_config"`
	Kafka      `yaml:"kafka"`
	Queue      `yaml:"queue"`
	Providers  `yaml:"providers"`
	Sweeps     `yaml:"sweeps"`
	// PublicBaseURL is the externally visible host used to build checkout
	// links before the PSP returns its own.
	PublicBaseURL string `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
}

type HTTPServer struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

type PaymentDB struct {
	Dsn            string `yaml:"dsn" env:"PAYMENT_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env-default:"info"`
	LogFormat string `yaml:"log_format" env-default:"json"`
}

type Kafka struct {
	Host       string `yaml:"host" env:"KAFKA_HOST"`
	Port       string `yaml:"port" env:"KAFKA_PORT"`
	EventTopic string `yaml:"event_topic" env-default:"transaction-events"`
	AlertTopic string `yaml:"alert_topic" env-default:"pipeline-alerts"`
}

type Queue struct {
	OrderConcurrency   int           `yaml:"order_concurrency" env:"QUEUE_ORDER_CONCURRENCY" env-default:"25"`
	WebhookConcurrency int           `yaml:"webhook_concurrency" env:"QUEUE_WEBHOOK_CONCURRENCY" env-default:"50"`
	MaxAttempts        int           `yaml:"max_attempts" env:"QUEUE_MAX_ATTEMPTS" env-default:"5"`
	BackoffBase        time.Duration `yaml:"backoff_base" env:"QUEUE_BACKOFF_BASE" env-default:"5s"`
	BackoffCap         time.Duration `yaml:"backoff_cap" env:"QUEUE_BACKOFF_CAP" env-default:"10m"`
	LeaseTimeout       time.Duration `yaml:"lease_timeout" env-default:"30s"`
}

// Providers holds per-provider webhook shared secrets. An empty secret makes
// verification pass through (see signature.Verifier) and must not happen in
// production.
type Providers struct {
	RazorpayWebhookSecret string        `yaml:"razorpay_webhook_secret" env:"RAZORPAY_WEBHOOK_SECRET"`
	EasebuzzWebhookSecret string        `yaml:"easebuzz_webhook_secret" env:"EASEBUZZ_WEBHOOK_SECRET"`
	CallTimeout           time.Duration `yaml:"call_timeout" env-default:"10s"`
}

type Sweeps struct {
	SettlementInterval  time.Duration `yaml:"settlement_interval" env:"SETTLEMENT_INTERVAL" env-default:"24h"`
	WebhookRetryWindow  time.Duration `yaml:"webhook_retry_window" env-default:"24h"`
	RetrySweepInterval  time.Duration `yaml:"retry_sweep_interval" env:"RETRY_SWEEP_INTERVAL" env-default:"1m"`
	HealthProbeInterval time.Duration `yaml:"health_probe_interval" env:"HEALTH_PROBE_INTERVAL" env-default:"2m"`
	DailyResetInterval  time.Duration `yaml:"daily_reset_interval" env-default:"1h"`
}

func MustLoad() *PaymentConfig {

	// Processing env config variable and file
	configPath := os.Getenv("PAYMENT_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("PAYMENT_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg PaymentConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	return &cfg
}

func (p Providers) WebhookSecret(provider string) string {
	switch provider {
	case "razorpay":
		return p.RazorpayWebhookSecret
	case "easebuzz":
		return p.EasebuzzWebhookSecret
	default:
		return ""
	}
}
