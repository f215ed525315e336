package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/obliquemerc/internal/adapters/http"
	natsadapter "github.com/samirrijal/obliquemerc/internal/adapters/nats"
	"github.com/samirrijal/obliquemerc/internal/adapters/postgres"
	"github.com/samirrijal/obliquemerc/internal/adapters/render"
	"github.com/samirrijal/obliquemerc/internal/adapters/valkey"
	"github.com/samirrijal/obliquemerc/internal/core/ports"
	"github.com/samirrijal/obliquemerc/internal/core/usecases"
	"github.com/samirrijal/obliquemerc/internal/pkg/config"
	"github.com/samirrijal/obliquemerc/internal/pkg/logging"
	"github.com/samirrijal/obliquemerc/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("obliquemerc-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	deps := &http.Dependencies{Defaults: cfg.Projection.Scenario()}

	// Port values stay nil interfaces unless the adapter is actually up.
	var (
		cache     ports.CacheService
		publisher ports.EventPublisher
		history   ports.RenderRepository
	)

	// Database
	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		deps.DB = db
		history = postgres.NewRenderRepo(db)
	}

	// Cache
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer vc.Close()
			deps.Cache = vc
			cache = vc
		}
	}

	// NATS, shared by the event publisher and the WebSocket relay
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			deps.NATS = pub.Conn()
			publisher = pub
		}
	}

	deps.Projections = usecases.NewProjectionService(
		usecases.ProjectionOptions{
			ValidateReference: cfg.Projection.Validate,
			Parallel:          cfg.Projection.Parallel,
			CacheTTLSeconds:   cfg.Valkey.TTLSeconds,
		},
		cache, publisher, history,
		render.NewPNG(cfg.Render.Width, cfg.Render.Height, cfg.Render.Padding, cfg.Render.LineWidth),
		render.GeoJSON{},
	)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Oblique Mercator API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr,
			"database", cfg.Database.Enabled, "valkey", cfg.Valkey.Enabled, "nats", cfg.NATS.Enabled)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
