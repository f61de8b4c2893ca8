package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"bookapi/internal/auth"
	"bookapi/internal/config"
	"bookapi/internal/database"
	"bookapi/internal/database/migration"
	"bookapi/internal/engine"
	"bookapi/internal/filestore"
	handlers "bookapi/internal/http/handler"
	"bookapi/internal/http/middleware"
	"bookapi/internal/logger"
	"bookapi/internal/otel"
	"bookapi/internal/repository/postgres"
	"bookapi/internal/service"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	files, err := newFileStore(cfg)
	if err != nil {
		zlog.Fatal("failed to initialize file store", zap.Error(err))
	}

	tokens, err := auth.NewTokenMaker(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	if err != nil {
		zlog.Fatal("failed to initialize token maker", zap.Error(err))
	}

	validate := engine.NewValidator()

	bookRepo := postgres.NewBookPostgres(db)
	categoryRepo := postgres.NewCategoryPostgres(db)
	userRepo := postgres.NewUserPostgres(db)

	svcs := handlers.Services{
		Books:      service.NewBookService(bookRepo, categoryRepo, files, validate, zlog),
		Categories: service.NewCategoryService(categoryRepo, files, validate, zlog),
		Users:      service.NewUserService(userRepo, files, tokens, validate, zlog),
	}

	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := svcs.Users.EnsureAdmin(seedCtx, cfg.Admin); err != nil {
		cancel()
		zlog.Fatal("failed to seed admin account", zap.Error(err))
	}
	cancel()

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		zlog.Fatal("failed to register metrics", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Leave headroom above the upload limit so oversized files reach
		// the store's validation instead of a blunt 413.
		BodyLimit: int(cfg.Upload.MaxFileSize) + 1<<20,
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(zlog))
	app.Use(promMW.Handler())

	handlers.RegisterRoutes(app, db, svcs, tokens)

	addr := cfg.AppHost + ":" + cfg.Port
	zlog.Info("starting server", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}

// newFileStore selects the attachment backend from configuration.
func newFileStore(cfg *config.AppConfig) (filestore.FileStore, error) {
	if cfg.Upload.Backend == "s3" {
		return filestore.NewS3(cfg.MinIO, cfg.Upload)
	}
	return filestore.NewDisk(cfg.Upload)
}
