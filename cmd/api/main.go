package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasklist/internal/config"
	"tasklist/internal/database"
	"tasklist/internal/lists"
	"tasklist/internal/logger"
	"tasklist/internal/ratelimit"
	"tasklist/internal/server"
	"tasklist/internal/storage"
	"tasklist/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger.SetDefault(logger.New())

	if err := config.ValidateEnv([]string{"DATABASE_URL", "JWT_SECRET_KEY"}); err != nil {
		slog.Error("Missing configuration", "error", err)
		os.Exit(1)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(ctx); err != nil {
		cancel()
		slog.Error("Failed to apply migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to database")

	deps := server.Deps{
		DB:      db,
		Users:   users.NewPostgresStore(db),
		Lists:   lists.NewPostgresRepository(db),
		Limiter: ratelimit.NewNoop(),
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis unreachable, login throttling will fail open", "addr", cfg.RedisAddr, "error", err)
		}
		deps.Limiter = ratelimit.NewRedisLimiter(redisClient, ratelimit.Config{
			MaxAttempts: cfg.LoginMaxAttempts,
			Window:      cfg.LoginWindow,
		})
		slog.Info("Login throttling enabled", "redis_addr", cfg.RedisAddr)
	}

	if cfg.S3.Enabled() {
		files, err := storage.New(ctx, cfg.S3)
		if err != nil {
			slog.Warn("Failed to initialize storage, attachments disabled", "error", err)
		} else {
			deps.Storage = files
			slog.Info("Storage service initialized", "bucket", cfg.S3.Bucket)
		}
	}
	cancel()

	srv, err := server.New(cfg, deps)
	if err != nil {
		slog.Error("Failed to build server", "error", err)
		os.Exit(1)
	}
	httpServer := srv.HTTPServer()

	go func() {
		slog.Info("API listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down API")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}
	if err := db.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}

	slog.Info("API stopped")
}
