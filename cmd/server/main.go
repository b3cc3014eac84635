package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/deerking0923/prj-sketch-backend/internal/backend"
	"github.com/deerking0923/prj-sketch-backend/internal/backend/ratelimit"
	"github.com/deerking0923/prj-sketch-backend/internal/core"
	"github.com/redis/go-redis/v9"
)

func getConfigPath() string {
	// First check if config path is provided via environment variable
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	// Default to config.yaml in current working directory
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.yaml")
}

func main() {
	configPath := getConfigPath()
	config, err := core.LoadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	coreService, err := core.NewCoreService(config)
	if err != nil {
		slog.Error("failed to initialize core service", "error", err)
		os.Exit(1)
	}

	rateLimiter, redisClient, err := newRateLimiter(config)
	if err != nil {
		slog.Error("failed to initialize rate limiter", "error", err)
		_ = coreService.Close()
		os.Exit(1)
	}

	server := backend.NewServer()
	apiService := backend.NewAPIService(config, coreService, rateLimiter)
	apiService.SetRoutes(server)

	portString := fmt.Sprintf(":%d", config.Port)

	// Start HTTP server in a goroutine to allow graceful shutdown
	go func() {
		slog.Info("starting server", "port", config.Port)
		if err := server.Start(portString); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("redis client close error", "error", err)
		}
	}
	if err := coreService.Close(); err != nil {
		slog.Error("core service close error", "error", err)
	}
}

// newRateLimiter returns a nil limiter when rate limiting is disabled.
func newRateLimiter(config *core.ServiceConfig) (backend.RateLimiter, *redis.Client, error) {
	if !config.RateLimit.Enabled {
		return nil, nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Address,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis not reachable, requests pass until it is", "address", config.Redis.Address, "error", err)
	}

	limiter, err := ratelimit.NewRedisTokenBucket(client, config.RateLimit.Capacity, config.RateLimit.Window, "")
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	slog.Info("rate limiting enabled",
		"capacity", config.RateLimit.Capacity,
		"window", config.RateLimit.Window,
		"redis", config.Redis.Address)
	return limiter, client, nil
}
