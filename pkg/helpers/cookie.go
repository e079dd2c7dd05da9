package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RefreshCookieName is the canonical cookie carrying the refresh token.
// AccessCookieName is an optional fallback read by the auth middleware for
// clients that keep the access token in a cookie instead of a header.
const (
	RefreshCookieName = "refresh_token"
	AccessCookieName  = "access_token"

	cookiePath = "/"
)

// CookieManager owns every write of the refresh cookie so the set and clear
// paths always use identical name, path and attributes. A browser silently
// ignores a clear whose path differs from the set.
type CookieManager struct {
	Domain string
	Secure bool
}

func NewCookieManager(domain string, secure bool) *CookieManager {
	return &CookieManager{Domain: domain, Secure: secure}
}

// SetRefresh stores the refresh token: http-only, same-site strict, fixed
// path, max age derived from the token's expiry.
func (m *CookieManager) SetRefresh(c *gin.Context, token string, exp time.Time) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, token, maxAgeFrom(exp), cookiePath, m.Domain, m.Secure, true)
}

// ClearRefresh expires the refresh cookie with the exact attributes used by
// SetRefresh.
func (m *CookieManager) ClearRefresh(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, "", -1, cookiePath, m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
