package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chatverse/auth-service/internal/domain/entity"
	"github.com/chatverse/auth-service/internal/domain/repository"
	"github.com/chatverse/auth-service/pkg/apperr"
	"github.com/chatverse/auth-service/pkg/helpers"
	"github.com/chatverse/auth-service/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxUserKey   = "currentUser"
)

// RequireAuth is the per-request guard: it extracts a bearer token from the
// Authorization header (or the access-token cookie as a fallback), verifies
// it, loads the subject, and rejects tokens issued before the subject's last
// password change. That timestamp comparison is the only revocation
// mechanism in the system.
func RequireAuth(store repository.CredentialStore, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Fail(c, apperr.New(apperr.KindMissingToken, "you are not logged in, please log in to access this resource"))
			return
		}

		claims, err := jwt.Verify(token, helpers.AccessToken)
		if err != nil {
			response.Fail(c, err)
			return
		}

		u, err := store.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Fail(c, apperr.Wrap(apperr.KindInvalidToken, "the user belonging to this token no longer exists", err))
			return
		}

		if claims.IssuedAt != nil && u.TokenIssuedBeforePasswordChange(claims.IssuedAt.Time) {
			response.Fail(c, apperr.New(apperr.KindStalePasswordToken, "user recently changed password, please log in again"))
			return
		}

		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxUserKey, u)
		c.Next()
	}
}

// RequireRoles allows the request only when the subject resolved by
// RequireAuth holds one of the given roles.
func RequireRoles(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			response.Fail(c, apperr.New(apperr.KindMissingToken, "you are not logged in, please log in to access this resource"))
			return
		}
		for _, role := range roles {
			if u.Role == role {
				c.Next()
				return
			}
		}
		response.Fail(c, apperr.New(apperr.KindForbidden, "you do not have permission to perform this action"))
	}
}

// CurrentUser returns the subject loaded by RequireAuth, or nil.
func CurrentUser(c *gin.Context) *entity.User {
	if v, ok := c.Get(CtxUserKey); ok {
		if u, ok := v.(*entity.User); ok {
			return u
		}
	}
	return nil
}

func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if tok, err := c.Cookie(helpers.AccessCookieName); err == nil {
		return tok
	}
	return ""
}
