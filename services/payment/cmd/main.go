package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sakashimaa/eventhub/pkg/bus"
	sharedConfig "github.com/sakashimaa/eventhub/pkg/config"
	"github.com/sakashimaa/eventhub/pkg/db"
	"github.com/sakashimaa/eventhub/pkg/httpclient"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	outbox "github.com/sakashimaa/eventhub/pkg/outbox/repository"
	"github.com/sakashimaa/eventhub/pkg/outbox/worker"
	"github.com/sakashimaa/eventhub/pkg/server"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/payment/internal/client"
	"github.com/sakashimaa/eventhub/services/payment/internal/config"
	"github.com/sakashimaa/eventhub/services/payment/internal/provider"
	"github.com/sakashimaa/eventhub/services/payment/internal/repository"
	"github.com/sakashimaa/eventhub/services/payment/internal/service"
	paymentHttp "github.com/sakashimaa/eventhub/services/payment/internal/transport/http"
	"go.uber.org/zap"
)

const serviceName = "payment-service"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}

	cfg := config.MustLoad()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := utils.InitTracer(ctx, serviceName, cfg.Env)
	if err != nil {
		log.Fatalf("Error init tracer: %v", err)
	}

	loggerCfg := cfg.LoggerConfig()
	loggerCfg.Service = serviceName

	logger, err := sharedConfig.NewLogger(loggerCfg)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.Postgres.MigrateOnStart {
		if err := db.Migrate(cfg.Postgres.URL, cfg.Postgres.MigrationsPath); err != nil {
			logger.Fatal("Error applying migrations", zap.Error(err))
		}
	}

	pool, err := db.NewPostgresDB(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns)
	if err != nil {
		logger.Fatal("Error creating postgres DB", zap.Error(err))
	}

	mylogger.Info(ctx, logger, "Payment service started!")

	providers := []provider.Provider{}
	var webhook provider.WebhookParser
	if cfg.Stripe.Enabled() {
		stripeProvider := provider.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, nil, logger)
		providers = append(providers, stripeProvider)
		webhook = stripeProvider
	}
	providers = append(providers, provider.NewSimulated(cfg.Payment.PublicURL))

	paymentRepo := repository.NewPaymentRepository(pool, logger)
	refundRepo := repository.NewRefundRepository()
	outboxRepo := outbox.NewOutboxRepository(pool, logger)
	orderClient := client.NewOrderClient(httpclient.New("order", cfg.Services.OrderURL, cfg.Client.Timeout, logger))

	paymentService := service.NewPaymentService(service.PaymentDeps{
		Pool:        pool,
		PaymentRepo: paymentRepo,
		RefundRepo:  refundRepo,
		OutboxRepo:  outboxRepo,
		Providers:   provider.NewRegistry(providers...),
		Webhook:     webhook,
		Orders:      orderClient,
	}, logger)

	producer, err := bus.NewProducer(cfg.Config, logger)
	if err != nil {
		logger.Fatal("error creating bus producer", zap.Error(err))
	}

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, producer, logger, worker.WithInterval(cfg.Payment.OutboxInterval))
	go outboxProcessor.Start(ctx)

	app := server.New(serviceName, cfg.HTTP, logger)
	paymentHttp.RegisterRoutes(app, paymentHttp.NewPaymentHandler(paymentService, logger), server.Limiter(cfg.Limiter))

	server.Run(ctx, app, cfg.HTTP.Port, logger)

	shutdownCtx, exit := context.WithTimeout(context.Background(), 5*time.Second)
	defer exit()

	if err := producer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Error closing producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Error(shutdownCtx, logger, "Error shutting down telemetry", zap.Error(err))
	} else {
		mylogger.Info(shutdownCtx, logger, "Telemetry down correctly")
	}

	pool.Close()
	mylogger.Info(shutdownCtx, logger, "Pool down correctly")
}
