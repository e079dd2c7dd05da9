package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/chatverse/auth-service/internal/domain/entity"
	"github.com/chatverse/auth-service/internal/domain/repository"
	handlers "github.com/chatverse/auth-service/internal/interface/http"
	"github.com/chatverse/auth-service/internal/interface/middleware"
	"github.com/chatverse/auth-service/pkg/helpers"
)

// UserModule wires the profile endpoints. Everything here requires a valid
// access token; listing and deletion additionally require the admin role.
type UserModule struct {
	Handler *handlers.UserHandler
	Store   repository.CredentialStore
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, store repository.CredentialStore, jwt *helpers.JWTManager, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Store: store, JWT: jwt, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.RequireAuth(m.Store, m.JWT))
	users.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID()))
	{
		users.GET("/me", m.Handler.Me)
		users.PATCH("/me", m.Handler.UpdateMe)
		users.POST("/me/avatar", m.Handler.UploadAvatar)
	}

	admin := users.Group("/")
	admin.Use(middleware.RequireRoles(entity.RoleAdmin))
	{
		admin.GET("/", m.Handler.List)
		admin.DELETE("/:id", m.Handler.Delete)
	}
}
