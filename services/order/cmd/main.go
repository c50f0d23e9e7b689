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
	outboxRepository "github.com/sakashimaa/eventhub/pkg/outbox/repository"
	"github.com/sakashimaa/eventhub/pkg/outbox/worker"
	"github.com/sakashimaa/eventhub/pkg/server"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/order/internal/client"
	"github.com/sakashimaa/eventhub/services/order/internal/config"
	"github.com/sakashimaa/eventhub/services/order/internal/repository"
	"github.com/sakashimaa/eventhub/services/order/internal/service"
	orderHttp "github.com/sakashimaa/eventhub/services/order/internal/transport/http"
	orderKafka "github.com/sakashimaa/eventhub/services/order/internal/transport/kafka"
	"go.uber.org/zap"
)

const serviceName = "order-service"

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
		log.Fatalf("failed to init tracer: %v", err)
	}

	loggerCfg := cfg.LoggerConfig()
	loggerCfg.Service = serviceName

	logger, err := sharedConfig.NewLogger(loggerCfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if cfg.Postgres.MigrateOnStart {
		if err := db.Migrate(cfg.Postgres.URL, cfg.Postgres.MigrationsPath); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	pool, err := db.NewPostgresDB(ctx, cfg.Postgres.URL, cfg.Postgres.MaxConns)
	if err != nil {
		logger.Fatal("failed to create pool", zap.Error(err))
	}

	inventoryClient := client.NewInventoryClient(httpclient.New("inventory", cfg.Services.InventoryURL, cfg.Client.Timeout, logger))
	paymentClient := client.NewPaymentClient(httpclient.New("payment", cfg.Services.PaymentURL, cfg.Client.Timeout, logger))
	ticketClient := client.NewTicketClient(httpclient.New("ticket", cfg.Services.TicketURL, cfg.Client.Timeout, logger))

	orderRepo := repository.NewOrderRepository(pool, logger)
	reservationRepo := repository.NewReservationRepository(pool, logger)
	paymentInfoRepo := repository.NewPaymentInfoRepository(pool)
	userRepo := repository.NewUserRepository(pool, logger)
	sagaRepo := repository.NewSagaRepository(pool)
	outboxRepo := outboxRepository.NewOutboxRepository(pool, logger)

	reservationService := service.NewReservationService(pool, reservationRepo, inventoryClient, ticketClient, logger)
	compensator := service.NewCompensator(pool, sagaRepo, orderRepo, paymentInfoRepo, reservationService, inventoryClient, logger)
	orderService := service.NewOrderService(service.OrderDeps{
		Pool:            pool,
		OrderRepo:       orderRepo,
		ReservationRepo: reservationRepo,
		PaymentInfoRepo: paymentInfoRepo,
		UserRepo:        userRepo,
		SagaRepo:        sagaRepo,
		OutboxRepo:      outboxRepo,
		Reservations:    reservationService,
		Compensator:     compensator,
		Inventory:       inventoryClient,
		Payments:        paymentClient,
	}, logger)

	producer, err := bus.NewProducer(cfg.Config, logger)
	if err != nil {
		logger.Fatal("error creating bus producer", zap.Error(err))
	}

	outboxProcessor := worker.NewOutboxProcessor(pool, outboxRepo, producer, logger, worker.WithInterval(cfg.Workers.OutboxInterval))
	go outboxProcessor.Start(ctx)

	go service.NewSweeper(reservationService, cfg.Workers.SweepInterval, logger).Start(ctx)

	recoverer := service.NewSagaRecoverer(sagaRepo, compensator, logger,
		service.WithRecoveryInterval(cfg.Workers.SagaRecoveryInterval),
		service.WithStaleAfter(cfg.Workers.SagaStaleAfter),
	)
	go recoverer.Start(ctx)

	consumer := orderKafka.NewConsumer(orderService, logger)
	go func() {
		if err := consumer.Start(ctx, cfg.Config); err != nil {
			logger.Error("consumer stopped", zap.Error(err))
		}
	}()

	app := server.New(serviceName, cfg.HTTP, logger)
	orderHttp.RegisterRoutes(app, orderHttp.NewHandler(reservationService, orderService, logger), server.Limiter(cfg.Limiter), cfg.Auth.AccessSecret)

	server.Run(ctx, app, cfg.HTTP.Port, logger)

	shutdownCtx, exit := context.WithTimeout(context.Background(), 5*time.Second)
	defer exit()

	mylogger.Info(shutdownCtx, logger, "Shutting down order server")

	if err := producer.Close(); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to close producer", zap.Error(err))
	}

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Failed to shut down telemetry", zap.Error(err))
	} else {
		mylogger.Info(shutdownCtx, logger, "Successfully down telemetry")
	}

	pool.Close()
}
