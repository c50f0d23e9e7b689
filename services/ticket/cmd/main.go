package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	sharedConfig "github.com/sakashimaa/eventhub/pkg/config"
	"github.com/sakashimaa/eventhub/pkg/db"
	"github.com/sakashimaa/eventhub/pkg/httpclient"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/pkg/server"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/ticket/internal/client"
	"github.com/sakashimaa/eventhub/services/ticket/internal/config"
	"github.com/sakashimaa/eventhub/services/ticket/internal/repository"
	"github.com/sakashimaa/eventhub/services/ticket/internal/service"
	ticketHttp "github.com/sakashimaa/eventhub/services/ticket/internal/transport/http"
	ticketKafka "github.com/sakashimaa/eventhub/services/ticket/internal/transport/kafka"
	"go.uber.org/zap"
)

const serviceName = "ticket-service"

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

	mylogger.Info(ctx, logger, "Ticket service started!")

	ticketService := service.NewTicketService(service.TicketDeps{
		Pool:         pool,
		TicketRepo:   repository.NewTicketRepository(pool, logger),
		SnapshotRepo: repository.NewSnapshotRepository(pool),
		Orders:       client.NewOrderClient(httpclient.New("order", cfg.Services.OrderURL, cfg.Client.Timeout, logger)),
		Inventory:    client.NewInventoryClient(httpclient.New("inventory", cfg.Services.InventoryURL, cfg.Client.Timeout, logger)),
	}, logger)

	consumer := ticketKafka.NewConsumer(ticketService, logger)
	go func() {
		if err := consumer.Start(ctx, cfg.Config); err != nil {
			logger.Error("Consumer stopped", zap.Error(err))
		}
	}()

	app := server.New(serviceName, cfg.HTTP, logger)
	ticketHttp.RegisterRoutes(app, ticketHttp.NewTicketHandler(ticketService, logger), server.Limiter(cfg.Limiter), cfg.Auth.AccessSecret)

	server.Run(ctx, app, cfg.HTTP.Port, logger)

	shutdownCtx, exit := context.WithTimeout(context.Background(), 5*time.Second)
	defer exit()

	if err := tp.Shutdown(shutdownCtx); err != nil {
		mylogger.Error(shutdownCtx, logger, "Error shutting down telemetry", zap.Error(err))
	} else {
		mylogger.Info(shutdownCtx, logger, "Telemetry down correctly")
	}

	pool.Close()
	mylogger.Info(shutdownCtx, logger, "Pool down correctly")
}
