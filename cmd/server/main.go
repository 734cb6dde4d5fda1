package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"venue-backend/internal/admin"
	"venue-backend/internal/auth"
	"venue-backend/internal/cache"
	"venue-backend/internal/config"
	"venue-backend/internal/engine"
	"venue-backend/internal/events"
	"venue-backend/internal/instrument"
	"venue-backend/internal/logger"
	"venue-backend/internal/metadata"
	"venue-backend/internal/storage"
	"venue-backend/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	slog.Info("config loaded", "port", cfg.Server.Port, "driver", cfg.Database.Driver, "database", cfg.Database.Name)

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	// 3. Bootstrap system tables and the default admin
	if err := db.Bootstrap(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		logger.Fatal("failed to bootstrap system tables", "error", err)
	}

	// 4. Load the entity catalog
	reg := metadata.NewRegistry()
	if err := reg.Load(metadata.Catalog()); err != nil {
		logger.Fatal("invalid entity catalog", "error", err)
	}

	// 5. Migrate entity tables
	migrator := store.NewMigrator(db)
	if cfg.Database.AutoMigrate {
		if err := migrator.MigrateAll(ctx, reg); err != nil {
			logger.Fatal("failed to migrate schema", "error", err)
		}
	}

	// 6. Engine, metrics and change listeners
	eng := engine.NewEngine(db, reg, cfg.Pagination.PerPage)

	var metrics *instrument.Metrics
	if cfg.Metrics.Enabled {
		metrics = instrument.NewMetrics()
		eng.SetRecorder(metrics)
	}

	var readCache func(*metadata.Entity) fiber.Handler
	if cfg.Cache.Enabled {
		rdb, err := cache.NewClient(ctx, cfg.Cache)
		if err != nil {
			slog.Warn("read cache disabled", "error", err)
		} else {
			defer rdb.Close()
			rc := cache.New(rdb, reg, cfg.Cache)
			eng.Subscribe(rc)
			readCache = rc.Middleware
			slog.Info("read cache enabled", "addr", cfg.Cache.Addr, "ttl", cfg.Cache.TTL)
		}
	}

	if cfg.Events.Enabled {
		pub, err := events.NewPublisher(cfg.Events)
		if err != nil {
			slog.Warn("change events disabled", "error", err)
		} else {
			defer pub.Close()
			eng.Subscribe(pub)
			slog.Info("change events enabled", "queue", cfg.Events.Queue)
		}
	}

	// 7. Blob storage for images
	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init storage", "error", err)
	}
	images, err := engine.NewImageHandler(eng, "imagen", files, cfg.Storage.MaxFileSize, cfg.Storage.PublicURL)
	if err != nil {
		logger.Fatal("failed to init image handler", "error", err)
	}

	// 8. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler,
		// leave room for multipart overhead so oversized images get FILE_TOO_LARGE
		BodyLimit: int(cfg.Storage.MaxFileSize) + 1<<20,
	})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.RequestLogger())
	if metrics != nil {
		app.Use(metrics.Middleware())
		app.Get(cfg.Metrics.Path, metrics.Handler())
	}

	// 9. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.DB.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 10. Auth routes
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret)
	auth.RegisterAuthRoutes(app, auth.NewAuthHandler(db, issuer))
	authMW := auth.AuthMiddleware(issuer)

	// 11. Admin routes (auth + admin required)
	admin.RegisterAdminRoutes(app, admin.NewHandler(db, reg, migrator), authMW, auth.RequireAdmin())

	// 12. Entity and image routes; writes require a token
	engine.RegisterEntityRoutes(app, eng, engine.RouteOptions{Auth: authMW, ReadCache: readCache})
	engine.RegisterImageRoutes(app, images, authMW)

	// 13. Start server
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		slog.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("starting server", "addr", addr)
	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", "error", err)
	}
}
