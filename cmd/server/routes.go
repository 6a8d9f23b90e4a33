package main

import (
	"github.com/gin-gonic/gin"
	"github.com/konfig-io/konfig/internal/config"
	"github.com/konfig-io/konfig/internal/middleware"
	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	r.GET("/health", svc.healthHandler.CheckHealth)

	db := models.GetDB()

	api := r.Group("/api/v1")
	{
		// Auth routes (public, rate limited to slow down credential stuffing)
		auth := api.Group("/auth")
		if cfg.RateLimit.Enabled {
			authLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
			auth.Use(authLimiter.Middleware())
		}
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/refresh", svc.authHandler.Refresh)
		}

		// Everything below requires an authenticated principal, either a
		// bearer token or an API key.
		protected := api.Group("")
		protected.Use(middleware.Auth(db, svc.tokens))
		{
			protected.GET("/auth/me", svc.authHandler.Me)

			// Tenant profile and settings
			protected.GET("/tenant", svc.tenantHandler.Get)
			protected.PATCH("/tenant",
				middleware.RequireRole(models.RoleOwner), svc.tenantHandler.Update)

			// Users (interactive sessions only)
			users := protected.Group("/users", middleware.RequireUser())
			{
				users.GET("", middleware.RequireRole(models.RoleAdmin), svc.userHandler.List)
				users.GET("/:id", middleware.RequireRole(models.RoleAdmin), svc.userHandler.Get)
				users.POST("", middleware.RequireRole(models.RoleAdmin), svc.userHandler.Create)
				users.PATCH("/:id", svc.userHandler.Update)
				users.DELETE("/:id", middleware.RequireRole(models.RoleOwner), svc.userHandler.Delete)
			}

			// API keys (interactive admin sessions only)
			apikeys := protected.Group("/apikeys", middleware.RequireRole(models.RoleAdmin))
			{
				apikeys.GET("", svc.apiKeyHandler.List)
				apikeys.GET("/:id", svc.apiKeyHandler.Get)
				apikeys.POST("", svc.apiKeyHandler.Create)
				apikeys.POST("/:id/revoke", svc.apiKeyHandler.Revoke)
				apikeys.DELETE("/:id", svc.apiKeyHandler.Delete)
			}

			// Namespaces
			namespaces := protected.Group("/namespaces")
			{
				namespaces.GET("", middleware.RequireScope(models.ScopeRead), svc.namespaceHandler.List)
				namespaces.GET("/:id", middleware.RequireScope(models.ScopeRead), svc.namespaceHandler.Get)
				namespaces.POST("", middleware.RequireScope(models.ScopeWrite), svc.namespaceHandler.Create)
				namespaces.PATCH("/:id", middleware.RequireScope(models.ScopeWrite), svc.namespaceHandler.Update)
				namespaces.DELETE("/:id", middleware.RequireScope(models.ScopeAdmin), svc.namespaceHandler.Delete)

				// Configuration entries within a namespace
				namespaces.GET("/:id/configs", middleware.RequireScope(models.ScopeRead), svc.configHandler.List)
				namespaces.GET("/:id/configs/:key", middleware.RequireScope(models.ScopeRead), svc.configHandler.Get)
				namespaces.GET("/:id/configs/:key/history", middleware.RequireScope(models.ScopeRead), svc.configHandler.History)
				namespaces.POST("/:id/configs", middleware.RequireScope(models.ScopeWrite), svc.configHandler.Create)
				namespaces.PATCH("/:id/configs/:key", middleware.RequireScope(models.ScopeWrite), svc.configHandler.Update)
				namespaces.DELETE("/:id/configs/:key", middleware.RequireScope(models.ScopeWrite), svc.configHandler.Delete)
			}

			// Audit log (interactive admin sessions only)
			protected.GET("/audit",
				middleware.RequireRole(models.RoleAdmin), svc.auditHandler.List)
		}
	}
}
