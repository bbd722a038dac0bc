package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lightspeedpay/payment-service/internal/app/background"
	"github.com/lightspeedpay/payment-service/internal/config"
	deliveryhttp "github.com/lightspeedpay/payment-service/internal/delivery/http"
	"github.com/lightspeedpay/payment-service/internal/delivery/http/handlers"
	"github.com/lightspeedpay/payment-service/internal/domain"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/kafka"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/logger"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/metrics"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/migrate"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/postgres/repository"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/psp"
	"github.com/lightspeedpay/payment-service/internal/infrastructure/queue"
	"github.com/lightspeedpay/payment-service/internal/signature"
	"github.com/lightspeedpay/payment-service/internal/usecase"
	"github.com/lightspeedpay/payment-service/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	logger.Setup(cfg.LogConfig)

	// Init database
	db := postgres.MustInitDB(cfg)
	if cfg.PaymentDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.PaymentDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	brokers := []string{fmt.Sprintf("%s:%s", cfg.Kafka.Host, cfg.Kafka.Port)}
	publisher := kafka.NewKafkaPublisher(brokers)
	defer publisher.Close()

	pipelineMetrics := metrics.NewPipelineMetrics()

	// Init repos
	clientRepo := repository.NewDefaultClientRepository(db)
	gatewayRepo := repository.NewDefaultGatewayRepository(db)
	healthRepo := repository.NewDefaultGatewayHealthRepository(db)
	txnRepo := repository.NewDefaultTransactionRepository(db)
	walletRepo := repository.NewDefaultWalletRepository(db)

	// Init queue
	jobQueue := queue.NewGormJobQueue(db, cfg.Queue.MaxAttempts, cfg.Queue.LeaseTimeout)

	// Init PSP adapters
	registry := psp.NewRegistry(
		psp.NewRazorpayAdapter(cfg.Providers.CallTimeout),
		psp.NewEasebuzzAdapter(cfg.Providers.CallTimeout),
	)
	verifier := signature.NewVerifier(registry, cfg.Providers.WebhookSecret, pipelineMetrics)

	// Init usecases
	selector := usecase.NewDefaultGatewaySelector(clientRepo, gatewayRepo, healthRepo, pipelineMetrics)
	paymentUC := usecase.NewDefaultPaymentUsecase(
		clientRepo,
		walletRepo,
		txnRepo,
		selector,
		jobQueue,
		publisher,
		pipelineMetrics,
		cfg.Kafka.EventTopic,
		cfg.PublicBaseURL,
	)
	orderUC := usecase.NewDefaultOrderUsecase(txnRepo, gatewayRepo, registry, pipelineMetrics, cfg.Providers.CallTimeout)
	reconcileUC := usecase.NewDefaultReconcileUsecase(
		txnRepo,
		clientRepo,
		gatewayRepo,
		registry,
		publisher,
		pipelineMetrics,
		cfg.Kafka.EventTopic,
	)
	settlementUC := usecase.NewDefaultSettlementUsecase(walletRepo, pipelineMetrics)
	retrySweeper := usecase.NewDefaultRetrySweeper(txnRepo, gatewayRepo, jobQueue, cfg.Sweeps.WebhookRetryWindow)
	healthMonitor := usecase.NewDefaultHealthMonitor(gatewayRepo, healthRepo, registry, pipelineMetrics)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker pools
	orderPool := &worker.Pool{
		Queue:       jobQueue,
		QueueName:   domain.QueueOrderCreation,
		Concurrency: cfg.Queue.OrderConcurrency,
		MaxAttempts: cfg.Queue.MaxAttempts,
		BackoffBase: cfg.Queue.BackoffBase,
		BackoffCap:  cfg.Queue.BackoffCap,
		Handler:     orderUC.ProcessOrderJob,
		Publisher:   publisher,
		AlertTopic:  cfg.Kafka.AlertTopic,
		Metrics:     pipelineMetrics,
	}
	webhookPool := &worker.Pool{
		Queue:        jobQueue,
		QueueName:    domain.QueueWebhook,
		Concurrency:  cfg.Queue.WebhookConcurrency,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		BackoffBase:  cfg.Queue.BackoffBase,
		BackoffCap:   cfg.Queue.BackoffCap,
		Handler:      reconcileUC.ProcessWebhookJob,
		OnDeadLetter: reconcileUC.MarkTemporaryFailure,
		Publisher:    publisher,
		AlertTopic:   cfg.Kafka.AlertTopic,
		Metrics:      pipelineMetrics,
	}
	orderPool.Start(ctx)
	webhookPool.Start(ctx)

	// Background sweeps
	tasks := background.NewBackgroundTasks(
		settlementUC,
		retrySweeper,
		healthMonitor,
		gatewayRepo,
		jobQueue,
		pipelineMetrics,
		cfg.Sweeps,
	)
	tasks.StartAll(ctx)

	// HTTP server
	paymentHandler := handlers.NewPaymentHandler(paymentUC)
	webhookHandler := handlers.NewWebhookHandler(verifier, jobQueue, pipelineMetrics)
	router := deliveryhttp.NewRouter(cfg.Env, paymentHandler, webhookHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler: router,
	}
	go func() {
		slog.Info("http server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v\n", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err.Error())
	}
	orderPool.Wait()
	webhookPool.Wait()
	slog.Info("shutdown complete")
}
