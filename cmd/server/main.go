// backend-go/cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/api"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/auth"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/cache"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/config"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/service"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/session"
	"github.com/andresuchdata/buyer-dashboard/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetFormat(cfg.Log.Format)
	logger.SetLevel(cfg.Log.Level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Shared Redis client for the view cache and the attempt store
	var redisClient *redis.Client
	if cfg.Cache.Enabled || strings.EqualFold(cfg.Auth.AttemptStore, "redis") {
		client, err := cache.NewRedisClient(cfg.Cache)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		redisClient = client
		defer redisClient.Close()
	}

	viewCache := cache.NewViewCache(cfg.Cache, redisClient)

	// Initialize services
	sessions := session.NewStore(time.Duration(cfg.App.SessionTTLMinutes) * time.Minute)
	dashboardService := service.NewDashboardService(sessions, viewCache, service.Options{
		MaxUploadBytes:            cfg.App.UploadMaxBytes,
		MaxConcurrentComputations: cfg.App.MaxConcurrentComputations,
	})

	guard, err := newGuard(cfg.Auth, redisClient)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize auth")
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Log.Warn().Msg("AUTH_JWT_SECRET is empty; sessions will not survive a restart")
	}
	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize token issuer")
	}

	// Initialize HTTP server
	router, err := api.NewRouter(&api.Services{
		Dashboard: dashboardService,
		Guard:     guard,
		Tokens:    tokens,
	}, api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LoginRate:      cfg.Auth.LoginRate,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to build router")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// newGuard layers the secrets file over environment credentials and picks
// the attempt store.
func newGuard(cfg config.AuthConfig, redisClient *redis.Client) (*auth.Guard, error) {
	secrets, err := auth.LoadSecretsFile(cfg.SecretsFile)
	if err != nil {
		return nil, err
	}
	store := auth.Layered{secrets, auth.NewEnvStore()}

	for role, ok := range auth.Availability(store) {
		if !ok {
			logger.Log.Warn().Str("role", string(role)).Msg("No credentials configured; logins for this role will fail")
		}
	}

	var attempts auth.AttemptStore = auth.NewMemoryAttemptStore()
	if redisClient != nil && strings.EqualFold(cfg.AttemptStore, "redis") {
		attempts = auth.NewRedisAttemptStore(redisClient, time.Duration(cfg.AttemptTTLHours)*time.Hour)
	}

	return auth.NewGuard(store, attempts,
		auth.WithMaxFailures(cfg.MaxFailures),
		auth.WithLockout(time.Duration(cfg.LockoutMinutes)*time.Minute),
	), nil
}
