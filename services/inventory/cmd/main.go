package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	sharedConfig "github.com/sakashimaa/eventhub/pkg/config"
	"github.com/sakashimaa/eventhub/pkg/db"
	"github.com/sakashimaa/eventhub/pkg/server"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"github.com/sakashimaa/eventhub/services/inventory/internal/config"
	"github.com/sakashimaa/eventhub/services/inventory/internal/repository"
	"github.com/sakashimaa/eventhub/services/inventory/internal/service"
	inventoryHttp "github.com/sakashimaa/eventhub/services/inventory/internal/transport/http"
	inventoryKafka "github.com/sakashimaa/eventhub/services/inventory/internal/transport/kafka"
	"go.uber.org/zap"
)

const serviceName = "inventory-service"

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
		logger.Fatal("Error creating new postgres DB", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	logger.Info("inventory service started!")

	ticketTypeRepository := repository.NewTicketTypeRepository(pool, logger)
	discountRepository := repository.NewDiscountRepository(pool, logger)
	eventRepository := repository.NewEventRepository(pool)

	inventoryService := service.NewInventoryService(pool, ticketTypeRepository, discountRepository, eventRepository, logger)
	cachedInventoryService := service.NewCachedInventoryService(inventoryService, rdb, cfg.Redis.CacheTTL, logger)

	consumer := inventoryKafka.NewConsumer(cachedInventoryService, logger)
	go func() {
		if err := consumer.Start(ctx, cfg.Config); err != nil {
			logger.Error("Consumer stopped", zap.Error(err))
		}
	}()

	app := server.New(serviceName, cfg.HTTP, logger)
	inventoryHttp.RegisterRoutes(app, inventoryHttp.NewInventoryHandler(cachedInventoryService, logger))

	server.Run(ctx, app, cfg.HTTP.Port, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Close(); err != nil {
		logger.Warn("Error closing redis client", zap.Error(err))
	}

	pool.Close()
	logger.Info("Closed db pool successfully")

	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Error stopping telemetry", zap.Error(err))
	} else {
		logger.Info("Telemetry closed correctly")
	}
}
