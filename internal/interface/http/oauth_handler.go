package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/google"

	"github.com/chatverse/auth-service/config"
	"github.com/chatverse/auth-service/internal/application"
	"github.com/chatverse/auth-service/internal/domain/entity"
	"github.com/chatverse/auth-service/pkg/apperr"
	"github.com/chatverse/auth-service/pkg/helpers"
	"github.com/chatverse/auth-service/pkg/response"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// ProviderAdapter exchanges an authorization code with one external provider
// and normalizes its userinfo payload into the fixed ExternalProfile shape
// before anything reaches the identity linker.
type ProviderAdapter struct {
	Provider    entity.Provider
	Config      *oauth2.Config
	UserInfoURL string
	normalize   func([]byte) (application.ExternalProfile, error)
}

// GoogleAdapter builds the Google provider adapter.
func GoogleAdapter(cfg *config.Config) *ProviderAdapter {
	return &ProviderAdapter{
		Provider: entity.ProviderGoogle,
		Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
		normalize: func(body []byte) (application.ExternalProfile, error) {
			var info struct {
				Sub   string `json:"sub"`
				Name  string `json:"name"`
				Email string `json:"email"`
			}
			if err := json.Unmarshal(body, &info); err != nil {
				return application.ExternalProfile{}, err
			}
			return application.ExternalProfile{
				Email:       info.Email,
				DisplayName: info.Name,
				Provider:    entity.ProviderGoogle,
				ProviderID:  info.Sub,
			}, nil
		},
	}
}

// FacebookAdapter builds the Facebook provider adapter.
func FacebookAdapter(cfg *config.Config) *ProviderAdapter {
	return &ProviderAdapter{
		Provider: entity.ProviderFacebook,
		Config: &oauth2.Config{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
			RedirectURL:  cfg.FacebookRedirectURL,
			Endpoint:     facebook.Endpoint,
			Scopes:       []string{"email", "public_profile"},
		},
		UserInfoURL: "https://graph.facebook.com/me?fields=id,name,email",
		normalize: func(body []byte) (application.ExternalProfile, error) {
			var info struct {
				ID    string `json:"id"`
				Name  string `json:"name"`
				Email string `json:"email"`
			}
			if err := json.Unmarshal(body, &info); err != nil {
				return application.ExternalProfile{}, err
			}
			return application.ExternalProfile{
				Email:       info.Email,
				DisplayName: info.Name,
				Provider:    entity.ProviderFacebook,
				ProviderID:  info.ID,
			}, nil
		},
	}
}

func (a *ProviderAdapter) fetchProfile(ctx context.Context, code string) (application.ExternalProfile, error) {
	tok, err := a.Config.Exchange(ctx, code)
	if err != nil {
		return application.ExternalProfile{}, fmt.Errorf("code exchange: %w", err)
	}
	client := a.Config.Client(ctx, tok)
	resp, err := client.Get(a.UserInfoURL)
	if err != nil {
		return application.ExternalProfile{}, fmt.Errorf("userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return application.ExternalProfile{}, fmt.Errorf("userinfo: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return application.ExternalProfile{}, err
	}
	return a.normalize(body)
}

// OAuthHandler serves the provider redirect and callback endpoints. One
// linker instance per handler, injected at construction.
type OAuthHandler struct {
	Linker   *application.IdentityLinker
	Auth     *application.AuthService
	Cookies  *helpers.CookieManager
	Adapters map[entity.Provider]*ProviderAdapter
	Logger   *logrus.Logger
}

func NewOAuthHandler(linker *application.IdentityLinker, auth *application.AuthService, cookies *helpers.CookieManager, logger *logrus.Logger, adapters ...*ProviderAdapter) *OAuthHandler {
	m := make(map[entity.Provider]*ProviderAdapter, len(adapters))
	for _, a := range adapters {
		m[a.Provider] = a
	}
	return &OAuthHandler{Linker: linker, Auth: auth, Cookies: cookies, Adapters: m, Logger: logger}
}

// Providers lists the providers this handler was constructed with.
func (h *OAuthHandler) Providers() []entity.Provider {
	out := make([]entity.Provider, 0, len(h.Adapters))
	for p := range h.Adapters {
		out = append(out, p)
	}
	return out
}

// Redirect GET /api/auth/<provider>
func (h *OAuthHandler) Redirect(provider entity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		adapter, ok := h.Adapters[provider]
		if !ok {
			response.Fail(c, apperr.New(apperr.KindNotFound, "unknown provider"))
			return
		}

		state, err := helpers.GenVerificationToken()
		if err != nil {
			response.Fail(c, err)
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(stateCookieName, state, int(stateCookieTTL.Seconds()), "/", h.Cookies.Domain, h.Cookies.Secure, true)
		c.Redirect(http.StatusTemporaryRedirect, adapter.Config.AuthCodeURL(state))
	}
}

// Callback GET /api/auth/<provider>/callback
// The provider redirect carries an opaque authorization result; on success
// the response uses the identical envelope as local login.
func (h *OAuthHandler) Callback(provider entity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		adapter, ok := h.Adapters[provider]
		if !ok {
			response.Fail(c, apperr.New(apperr.KindNotFound, "unknown provider"))
			return
		}
		h.callback(c, adapter)
	}
}

func (h *OAuthHandler) callback(c *gin.Context, adapter *ProviderAdapter) {
	state, err := c.Cookie(stateCookieName)
	if err != nil || state == "" || state != c.Query("state") {
		response.Fail(c, apperr.New(apperr.KindForbidden, "invalid oauth state"))
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, "", -1, "/", h.Cookies.Domain, h.Cookies.Secure, true)

	code := c.Query("code")
	if code == "" {
		response.Fail(c, apperr.New(apperr.KindInvalidCredentials, "authorization was denied"))
		return
	}

	profile, err := adapter.fetchProfile(c.Request.Context(), code)
	if err != nil {
		h.Logger.WithError(err).WithField("provider", adapter.Provider).Warn("provider profile fetch failed")
		response.Fail(c, apperr.Wrap(apperr.KindInvalidCredentials, "could not authenticate with provider", err))
		return
	}

	u, err := h.Linker.Link(c.Request.Context(), profile)
	if err != nil {
		response.Fail(c, err)
		return
	}

	pub, pair, err := h.Auth.IssueTokensFor(u)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.Cookies.SetRefresh(c, pair.RefreshToken, pair.RefreshExpiry)
	response.OK(c, http.StatusOK, "login successful", pub)
}
