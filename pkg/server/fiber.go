package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sakashimaa/eventhub/pkg/config"
	"github.com/sakashimaa/eventhub/pkg/metrics"
	"github.com/sakashimaa/eventhub/pkg/mylogger"
	"github.com/sakashimaa/eventhub/pkg/utils"
	"go.uber.org/zap"
)

// New builds a fiber app with tracing, panic recovery, metrics and /healthz.
func New(service string, cfg config.HTTP, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      service,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		ErrorHandler: errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	app.Use(metrics.Middleware(service))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	return app
}

// Limiter throttles public routes per client IP.
func Limiter(cfg config.Limiter) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(utils.ErrorBody{
				Error: "Too many requests. Try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	})
}

// Run serves app until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, app *fiber.App, port string, logger *zap.Logger) {
	go func() {
		mylogger.Info(ctx, logger, "HTTP server listening", zap.String("port", port))
		if err := app.Listen(port); err != nil {
			mylogger.Error(ctx, logger, "HTTP server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		mylogger.Warn(shutdownCtx, logger, "Error shutting down HTTP app", zap.Error(err))
		return
	}

	mylogger.Info(shutdownCtx, logger, "HTTP app stopped gracefully")
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		if code >= fiber.StatusInternalServerError {
			mylogger.Error(c.UserContext(), logger, "Unhandled request error",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(utils.ErrorBody{Error: err.Error()})
	}
}
