package router

import (
	"github.com/chatverse/auth-service/internal/application"
	"github.com/chatverse/auth-service/internal/container"
	"github.com/chatverse/auth-service/internal/infrastructure/postgres"
	handlers "github.com/chatverse/auth-service/internal/interface/http"
	"github.com/chatverse/auth-service/internal/router/modules"
	"github.com/chatverse/auth-service/pkg/helpers"
	"github.com/chatverse/auth-service/pkg/mailer"
)

// InitModules wires the feature modules from container singletons and
// registers them with the registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	store := postgres.NewUserRepository(container.GetPGPool())
	audit := postgres.NewAuditStore(container.GetPGPool(), logger)
	cookies := helpers.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure())
	notifier := mailer.NewQueueNotifier(container.GetRabbitPub(), cfg.MailSendEnabled)

	authSvc := application.NewAuthService(store, container.GetJWT(), notifier, logger, cfg.BaseURL)
	authHandler := handlers.NewAuthHandler(authSvc, cookies, audit, logger)

	var oauthHandler *handlers.OAuthHandler
	var adapters []*handlers.ProviderAdapter
	if cfg.GoogleClientID != "" {
		adapters = append(adapters, handlers.GoogleAdapter(cfg))
	}
	if cfg.FacebookClientID != "" {
		adapters = append(adapters, handlers.FacebookAdapter(cfg))
	}
	if len(adapters) > 0 {
		linker := application.NewIdentityLinker(store, logger)
		oauthHandler = handlers.NewOAuthHandler(linker, authSvc, cookies, logger, adapters...)
	}

	userSvc := application.NewUserService(store, container.GetRedis(), container.GetGCS(), cfg.GCSBucket, logger)
	userHandler := handlers.NewUserHandler(userSvc, logger)

	r.Add(modules.NewAuthModule(authHandler, oauthHandler, store, container.GetJWT(), container.GetRedis()))
	r.Add(modules.NewUserModule(userHandler, store, container.GetJWT(), container.GetRedis()))
}
