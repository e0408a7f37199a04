// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/api/handlers"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/api/middleware"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/auth"
	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/service"
)

const defaultLoginRate = "20-M"

type Services struct {
	Dashboard *service.DashboardService
	Guard     *auth.Guard
	Tokens    *auth.TokenIssuer
}

type RouterOptions struct {
	AllowedOrigins []string
	// LoginRate limits login attempts per client IP, e.g. "20-M".
	LoginRate string
}

func NewRouter(services *Services, opts RouterOptions) (*gin.Engine, error) {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services == nil {
		return router, nil
	}

	if services.Guard != nil && services.Tokens != nil {
		rate := opts.LoginRate
		if rate == "" {
			rate = defaultLoginRate
		}
		loginLimit, err := middleware.RateLimit(rate)
		if err != nil {
			return nil, err
		}

		authHandler := handlers.NewAuthHandler(services.Guard, services.Tokens)
		apiGroup.POST("/auth/login", loginLimit, authHandler.Login)
	}

	if services.Dashboard != nil && services.Tokens != nil {
		snapshotHandler := handlers.NewSnapshotHandler(services.Dashboard)
		snapshotGroup := apiGroup.Group("/snapshots", middleware.RequireAuth(services.Tokens))
		{
			snapshotGroup.POST("", snapshotHandler.Upload)
			snapshotGroup.GET("/:id/options", snapshotHandler.Options)
			snapshotGroup.GET("/:id/views/:tab", snapshotHandler.View)
			snapshotGroup.GET("/:id/views/:tab/export", middleware.RequireExport(), snapshotHandler.Export)
			snapshotGroup.DELETE("/:id", snapshotHandler.Delete)
		}
	}

	return router, nil
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
