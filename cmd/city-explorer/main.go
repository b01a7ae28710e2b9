package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/city-explorer/internal/api/http"
	"github.com/i474232898/city-explorer/internal/config"
	"github.com/i474232898/city-explorer/internal/explorer"
	"github.com/i474232898/city-explorer/internal/explorer/providers"
	"github.com/i474232898/city-explorer/internal/logger"
	"github.com/i474232898/city-explorer/internal/scheduler"
	"github.com/i474232898/city-explorer/internal/store"
	"github.com/i474232898/city-explorer/internal/telemetry"
)

const serviceName = "city-explorer"

// pinger is implemented by stores backed by a database connection.
type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Init(cfg.LogLevel); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()
	appLog := logger.GetLogger("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerShutdown, err := telemetry.InitTracer(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		appLog.Warnf("tracing disabled: %v", err)
	}

	// Persistence: one store for the life of the process.
	var st explorer.Store
	if cfg.UsesMemoryStore() {
		st = store.NewMemoryStore()
		appLog.Info("using in-memory store")
	} else {
		sqlStore, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			appLog.Fatalf("failed to open store: %v", err)
		}
		st = sqlStore
	}

	// Shared HTTP client for outbound provider calls. Per-call deadlines come from
	// the orchestrator.
	httpClient := &http.Client{Timeout: cfg.ProviderTimeout}

	backoff := providers.DefaultBackoff
	backoff.MaxRetries = cfg.ProviderMaxRetries
	fetcher := providers.NewResilientFetcher(providers.HTTPClientConfig{
		Client:  httpClient,
		Backoff: backoff,
	})

	adapters := []explorer.Adapter{
		providers.NewGeocodeAdapter(cfg.GeocodeBaseURL, cfg.GeocodeAPIKey),
		providers.NewDarkSkyAdapter(cfg.WeatherBaseURL, cfg.WeatherAPIKey),
		providers.NewEventbriteAdapter(cfg.EventsBaseURL, cfg.EventbriteAPIKey),
		providers.NewTMDBAdapter(cfg.MoviesBaseURL, cfg.MovieAPIKey),
	}

	service, err := explorer.NewService(st, fetcher, adapters, explorer.Options{
		ProviderTimeout: cfg.ProviderTimeout,
		DedupeInflight:  cfg.DedupeInflight,
	})
	if err != nil {
		appLog.Fatalf("failed to build service: %v", err)
	}

	// Background cache warming for configured search queries.
	sched := scheduler.New(cfg.WarmLocations, cfg.WarmInterval, service)
	if err := sched.Start(); err != nil {
		appLog.Fatalf("failed to start scheduler: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		Immutable:             true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${locals:requestid} | ${status} | ${latency} | ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, OPTIONS",
	}))
	app.Use(telemetry.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		if p, ok := st.(pinger); ok {
			if err := p.Ping(c.UserContext()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":  "unavailable",
					"service": serviceName,
				})
			}
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})
	app.Get("/metrics", telemetry.Handler())

	// API routes, then the catch-all.
	httpapi.RegisterRoutes(app, service)
	httpapi.RegisterFallback(app)

	go func() {
		appLog.Infof("listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLog.Errorf("fiber server stopped: %v", err)
			stop()
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLog.Errorf("error during shutdown: %v", err)
	}
	sched.Stop()

	if c, ok := st.(io.Closer); ok {
		if err := c.Close(); err != nil {
			appLog.Errorf("error closing store: %v", err)
		}
	}
	if tracerShutdown != nil {
		if err := tracerShutdown(shutdownCtx); err != nil {
			appLog.Errorf("error shutting down tracer: %v", err)
		}
	}
}
