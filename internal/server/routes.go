// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/company-intel/internal/config"
	"github.com/fleveque/company-intel/internal/handler"
	"github.com/fleveque/company-intel/internal/middleware"
	"github.com/fleveque/company-intel/internal/service"
	"github.com/fleveque/company-intel/internal/storage"
)

// Deps bundles the dependencies handlers need. In Go, we pass dependencies
// explicitly — no DI container, no magic.
type Deps struct {
	LookupService *service.LookupService
	LookupRepo    storage.LookupRepository
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	companyHandler := handler.NewCompanyHandler(deps.LookupService, logger)
	adminHandler := handler.NewAdminHandler(deps.LookupService, deps.LookupRepo, logger)

	// Public endpoints (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	// CORS middleware applies to the entire API group.
	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Authenticated API endpoints
	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.GET("/companies/:name", companyHandler.Lookup)
	}

	// Admin endpoints (separate auth with admin keys)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/settings", adminHandler.GetSettings)
		admin.PUT("/settings", adminHandler.SaveSettings)
		admin.POST("/settings/validate", adminHandler.ValidateKey)
		admin.GET("/lookups", adminHandler.Lookups)
		admin.GET("/stats", adminHandler.Stats)
	}
}
