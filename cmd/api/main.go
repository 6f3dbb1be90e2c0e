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
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/poimap/internal/adapters/http"
	"github.com/samirrijal/poimap/internal/adapters/memory"
	natsadapter "github.com/samirrijal/poimap/internal/adapters/nats"
	"github.com/samirrijal/poimap/internal/adapters/postgres"
	"github.com/samirrijal/poimap/internal/adapters/valkey"
	"github.com/samirrijal/poimap/internal/core/ports"
	"github.com/samirrijal/poimap/internal/core/usecases"
	"github.com/samirrijal/poimap/internal/pkg/config"
	"github.com/samirrijal/poimap/internal/pkg/logging"
	"github.com/samirrijal/poimap/internal/pkg/telemetry"
)

const cachePrefix = "poimap:"

func main() {
	cfg, err := config.Load("poimap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Storage
	var repo ports.PointOfInterestRepository
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory storage, data is lost on restart")
		repo = memory.NewPOIRepo()
	default:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		go db.ReportPoolStats(ctx, 15*time.Second)
		repo = postgres.NewPOIRepo(db)
	}

	// Cache
	var (
		cache      ports.CacheService
		cachePing  http.Pinger
		publisher  ports.EventPublisher
		subscriber *natsadapter.Subscriber
		natsConn   *nats.Conn
	)
	if cfg.Valkey.Enabled {
		vc, err := valkey.New(cfg.Valkey.Addr, cachePrefix)
		if err != nil {
			slog.Warn("valkey unavailable, caching disabled", "error", err)
		} else {
			defer vc.Close()
			cache, cachePing = vc, vc
		}
	}

	// NATS
	if cfg.NATS.Enabled {
		nc, err := natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
		if err != nil {
			slog.Warn("nats unavailable, events disabled", "error", err)
		} else {
			defer nc.Close()
			natsConn = nc
			pub, err := natsadapter.NewPublisher(nc)
			if err != nil {
				slog.Warn("jetstream unavailable, events disabled", "error", err)
			} else {
				publisher = pub
			}
		}
	}

	// Use cases
	mapper, err := cfg.Map.Mapper()
	if err != nil {
		log.Fatalf("map config: %v", err)
	}
	poiSvc := usecases.NewPOIService(repo, cache, publisher)
	mapSvc := usecases.NewMapService(poiSvc, mapper, cfg.Map.Defaults())

	// Other instances' writes invalidate our cache.
	if publisher != nil && cache != nil {
		subscriber, err = natsadapter.NewSubscriber(natsConn)
		if err == nil {
			err = subscriber.SubscribePOIEvents(ctx, poiSvc.HandleRemoteEvent)
		}
		if err != nil {
			slog.Warn("poi event subscription failed", "error", err)
		} else {
			defer subscriber.Close()
		}
	}

	deps := &http.Dependencies{
		POIs:      poiSvc,
		Map:       mapSvc,
		NATS:      natsConn,
		Cache:     cachePing,
		BaseURL:   cfg.Server.BaseURL,
		RateLimit: cfg.Server.RateLimit,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "POI Map API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Origin, Content-Type, Accept, If-None-Match",
		ExposeHeaders: "Location, Link, X-Total-Count, X-Search-Radius, ETag",
		MaxAge:        3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
