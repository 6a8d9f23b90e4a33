package main

import (
	"time"

	"github.com/konfig-io/konfig/internal/config"
	"github.com/konfig-io/konfig/internal/handlers"
	"github.com/konfig-io/konfig/internal/models"
	"github.com/konfig-io/konfig/internal/secure"
	"github.com/konfig-io/konfig/internal/services"
	"github.com/konfig-io/konfig/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	tokens       *secure.TokenService
	auditService *services.AuditService

	authHandler      *handlers.AuthHandler
	userHandler      *handlers.UserHandler
	tenantHandler    *handlers.TenantHandler
	namespaceHandler *handlers.NamespaceHandler
	configHandler    *handlers.ConfigHandler
	apiKeyHandler    *handlers.APIKeyHandler
	auditHandler     *handlers.AuditHandler
	healthHandler    *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, crypto, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	encryptor, err := secure.NewEncryptor(secure.EncryptorConfig{
		Key:        cfg.Encryption.Key,
		SaltFile:   cfg.Encryption.SaltFile,
		LegacySalt: cfg.Encryption.LegacySalt,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize encryption: %v", err)
	}

	tokens := secure.NewTokenService(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessExpireMinutes)*time.Minute,
		time.Duration(cfg.JWT.RefreshExpireDays)*24*time.Hour,
	)

	auditService := services.NewAuditService(db, cfg.Audit.RetentionDays)
	auditService.StartScheduler()

	authService := services.NewAuthService(db, tokens)
	configService := services.NewConfigService(db, encryptor)

	return &appServices{
		tokens:       tokens,
		auditService: auditService,

		authHandler:      handlers.NewAuthHandler(authService, auditService),
		userHandler:      handlers.NewUserHandler(services.NewUserService(db), auditService),
		tenantHandler:    handlers.NewTenantHandler(services.NewTenantService(db), auditService),
		namespaceHandler: handlers.NewNamespaceHandler(services.NewNamespaceService(db), auditService),
		configHandler:    handlers.NewConfigHandler(configService, auditService),
		apiKeyHandler:    handlers.NewAPIKeyHandler(services.NewAPIKeyService(db), auditService),
		auditHandler:     handlers.NewAuditHandler(auditService),
		healthHandler:    handlers.NewHealthHandler(),
	}
}

// shutdown gracefully stops background schedulers.
func (s *appServices) shutdown() {
	s.auditService.StopScheduler()
	logger.Info().Msg("Schedulers stopped")
}
