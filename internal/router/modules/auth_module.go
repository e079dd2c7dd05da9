package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/chatverse/auth-service/internal/domain/repository"
	handlers "github.com/chatverse/auth-service/internal/interface/http"
	"github.com/chatverse/auth-service/internal/interface/middleware"
	"github.com/chatverse/auth-service/pkg/helpers"
)

// AuthModule wires the credential lifecycle endpoints.
// Public: signup, login, refresh, verify-email, resend-verification,
// forgot-password, reset-password, provider redirects and callbacks.
// Protected: logout, update-password.
type AuthModule struct {
	Handler *handlers.AuthHandler
	OAuth   *handlers.OAuthHandler
	Store   repository.CredentialStore
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, oauth *handlers.OAuthHandler, store repository.CredentialStore, jwt *helpers.JWTManager, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, OAuth: oauth, Store: store, JWT: jwt, Redis: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIP())
	signupLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath())
	resetLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath())
	refreshLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIP())

	rg.POST("/auth/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)
	rg.GET("/auth/verify-email", m.Handler.VerifyEmail)
	rg.POST("/auth/resend-verification", resetLimiter, m.Handler.ResendVerification)
	rg.POST("/auth/forgot-password", resetLimiter, m.Handler.ForgotPassword)
	rg.POST("/auth/reset-password", resetLimiter, m.Handler.ResetPassword)

	if m.OAuth != nil {
		for _, p := range m.OAuth.Providers() {
			rg.GET("/auth/"+string(p), m.OAuth.Redirect(p))
			rg.GET("/auth/"+string(p)+"/callback", m.OAuth.Callback(p))
		}
	}

	auth := rg.Group("/")
	auth.Use(middleware.RequireAuth(m.Store, m.JWT))
	auth.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID()))
	{
		auth.POST("/auth/logout", m.Handler.Logout)
		auth.PATCH("/auth/update-password", m.Handler.UpdatePassword)
	}
}
