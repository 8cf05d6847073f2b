package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/story-relay-api/internal/auth"
	"github.com/yukikurage/story-relay-api/internal/config"
	"github.com/yukikurage/story-relay-api/internal/database"
	"github.com/yukikurage/story-relay-api/internal/handlers"
	"github.com/yukikurage/story-relay-api/internal/jobs"
	"github.com/yukikurage/story-relay-api/internal/logging"
	"github.com/yukikurage/story-relay-api/internal/middleware"
	"github.com/yukikurage/story-relay-api/internal/repository"
	"github.com/yukikurage/story-relay-api/internal/services"
	"github.com/yukikurage/story-relay-api/internal/storage"
	"github.com/yukikurage/story-relay-api/internal/storage/fs"
	"github.com/yukikurage/story-relay-api/internal/storage/minio"
	"github.com/yukikurage/story-relay-api/internal/storage/s3"
	"github.com/yukikurage/story-relay-api/internal/validation"

	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set Gin mode
	gin.SetMode(cfg.HTTP.GinMode)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	// Run migrations
	if err := database.Migrate(db); err != nil {
		return err
	}

	if err := validation.RegisterGinValidators(); err != nil {
		return err
	}

	backend, err := newBackend(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage init error: %w", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	jobRepo := repository.NewExportJobRepository(db)

	worker := jobs.NewExportWorker(storyRepo, jobRepo, backend, logger)

	var queue jobs.Queue
	switch cfg.Queue.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis init error: %w", err)
		}
		redisQueue := jobs.NewRedisQueue(rdb, cfg.Queue.RedisKey, worker, cfg.Queue.Workers, cfg.Queue.JobTimeout, logger)
		redisQueue.Start(context.Background())
		queue = redisQueue
	default:
		queue = jobs.NewMemoryQueue(worker, cfg.Queue.Workers, cfg.Queue.BufferSize, cfg.Queue.JobTimeout, logger)
	}

	// Initialize services
	issuer := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
	authService := services.NewAuthService(userRepo, tokenRepo, issuer, cfg.JWT.RefreshTokenTTL, backend, logger)
	storyService := services.NewStoryService(storyRepo, backend, logger)
	exportService := services.NewExportService(storyRepo, jobRepo, queue, backend, logger)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	handlers.RegisterRoutes(r, handlers.Handlers{
		Health: handlers.NewHealthHandler(db),
		Auth:   handlers.NewAuthHandler(authService),
		Story:  handlers.NewStoryHandler(storyService),
		Export: handlers.NewExportHandler(exportService),
	}, issuer, cfg.HTTP.RequestTimeout)

	if local, ok := backend.(*fs.FSBackend); ok {
		r.Static("/media", local.Root())
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "server starting", "addr", srv.Addr, "queue", cfg.Queue.Backend, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			queue.Close()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown failed", "error", err)
	}

	// let in-flight exports finish before the database closes
	if err := queue.Close(); err != nil {
		logger.Error(shutdownCtx, "queue shutdown failed", "error", err)
	}

	logger.Info(context.Background(), "server stopped")
	return nil
}

func newBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "s3":
		return s3.NewS3Backend(ctx, s3.Config{
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			Endpoint:        cfg.Endpoint,
		})
	case "minio":
		return minio.NewMinioBackend(ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket, cfg.UseSSL)
	default:
		return fs.NewFSBackend(cfg.MediaRoot)
	}
}
