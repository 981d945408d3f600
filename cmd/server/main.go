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

	"forumhub/internal/cache"
	"forumhub/internal/config"
	"forumhub/internal/db"
	"forumhub/internal/logger"
	"forumhub/internal/router"
	"forumhub/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel); err != nil {
		slog.Error("Failed to init logger", "error", err)
		os.Exit(1)
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Database
	conn, err := db.Init(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	if err := db.EnsureAdmin(conn, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		slog.Error("Failed to create admin account", "error", err)
		os.Exit(1)
	}

	c, closeCache, err := newCache(cfg)
	if err != nil {
		slog.Error("Failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer closeCache()

	svc := services.New(conn, c, services.Options{
		JWTSecret:      []byte(cfg.JWTSecret),
		JWTTTL:         cfg.JWTTTL,
		CacheTTL:       cfg.CacheTTL,
		UploadDir:      cfg.UploadDir,
		UploadMaxBytes: cfg.UploadMaxBytes,
	})

	r, err := router.New(svc, router.Options{
		SessionSecret: cfg.SessionSecret,
		CORSOrigins:   cfg.CORSOrigins,
		TemplatesDir:  cfg.TemplatesDir,
	})
	if err != nil {
		slog.Error("Failed to build router", "error", err)
		os.Exit(1)
	}
	r.MaxMultipartMemory = cfg.UploadMaxBytes

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("forumhub server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
}

// newCache picks the comment tree cache backend.
func newCache(cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, err
		}
		slog.Info("Using redis cache", "addr", cfg.RedisAddr)
		return cache.NewRedis(rdb), func() { rdb.Close() }, nil
	case "none":
		slog.Info("Comment tree cache disabled")
		return nil, func() {}, nil
	default:
		lru, err := cache.NewLRU(cfg.CacheSize)
		if err != nil {
			return nil, nil, err
		}
		return lru, func() {}, nil
	}
}
