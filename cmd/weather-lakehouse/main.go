package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "weather-lakehouse/internal/api/http"
	"weather-lakehouse/internal/config"
	"weather-lakehouse/internal/db"
	"weather-lakehouse/internal/db/migrate"
	"weather-lakehouse/internal/logging"
	"weather-lakehouse/internal/orchestrator"
	"weather-lakehouse/internal/pipeline"
	"weather-lakehouse/internal/scheduler"
	"weather-lakehouse/internal/store"
	"weather-lakehouse/internal/weather"
	"weather-lakehouse/internal/weather/providers"
)

const appName = "weather-lakehouse"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slog.SetDefault(logging.New(cfg.AppEnv, cfg.LogLevel, appName))
	slog.Info("starting",
		"env", cfg.AppEnv,
		"provider", cfg.Provider,
		"fetchInterval", cfg.FetchInterval,
		"transformInterval", cfg.TransformInterval,
		"sqlitePath", cfg.SQLitePath,
	)

	// Database plus schema migrations before anything else touches it.
	conn, err := db.Open(db.Options{
		Path:            cfg.SQLitePath,
		DSN:             cfg.SQLiteDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		slog.Error("db open failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			slog.Error("db close", "error", err)
		}
	}()

	if err := migrate.Run(conn); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	st := store.New(conn)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var provider weather.Provider
	switch cfg.Provider {
	case "weatherapi":
		provider = providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey)
	default:
		provider = providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)
	}

	pipe := pipeline.New(provider, st)

	// Two independent periodic loops sharing only the database.
	sched := scheduler.New(cfg.Locations, cfg.FetchInterval, pipe)
	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	orch := orchestrator.New(pipe, st, cfg.TransformInterval)
	if err := orch.Start(); err != nil {
		slog.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}
	defer orch.Stop()

	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		var ok int
		if err := st.DB().QueryRowContext(c.Context(), `SELECT 1`).Scan(&ok); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "database unreachable")
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})

	httpapi.RegisterRoutes(app, pipe, st)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
}
