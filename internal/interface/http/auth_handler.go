package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/chatverse/auth-service/internal/application"
	"github.com/chatverse/auth-service/internal/infrastructure/postgres"
	"github.com/chatverse/auth-service/internal/interface/middleware"
	"github.com/chatverse/auth-service/pkg/apperr"
	"github.com/chatverse/auth-service/pkg/helpers"
	"github.com/chatverse/auth-service/pkg/response"
	"github.com/chatverse/auth-service/pkg/validation"
)

// AuthHandler exposes the credential and session lifecycle over HTTP.
type AuthHandler struct {
	Svc     *application.AuthService
	Cookies *helpers.CookieManager
	Audit   *postgres.AuditStore
	Logger  *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, cookies *helpers.CookieManager, audit *postgres.AuditStore, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Cookies: cookies, Audit: audit, Logger: logger}
}

type signupRequest struct {
	Fullname        string `json:"fullname" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
	Country         string `json:"country"`
	Phone           string `json:"phone"`
	PhoneCode       string `json:"phoneCode"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password" binding:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
	ResetToken      string `json:"resetToken" binding:"required"`
}

type updatePasswordRequest struct {
	Password        string `json:"password" binding:"required,pwd"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

// Signup POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, validation.ToDetails(err))
		return
	}

	profile, pair, err := h.Svc.Signup(c.Request.Context(), application.SignupInput{
		Fullname:        req.Fullname,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		Country:         req.Country,
		Phone:           req.Phone,
		PhoneCode:       req.PhoneCode,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.audit(c, profile.ID, profile.Email, "signup", nil)
	h.Cookies.SetRefresh(c, pair.RefreshToken, pair.RefreshExpiry)
	response.Created(c, "signup successful, please verify your email", profile)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, validation.ToDetails(err))
		return
	}

	profile, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.audit(c, "", req.Email, "login_failed", map[string]any{"reason": apperr.MessageOf(err)})
		response.Fail(c, err)
		return
	}

	h.audit(c, profile.ID, profile.Email, "login", nil)
	h.Cookies.SetRefresh(c, pair.RefreshToken, pair.RefreshExpiry)
	response.OK(c, http.StatusOK, "login successful", profile)
}

// Logout POST /api/auth/logout
// Clears the refresh cookie. Already-issued access tokens stay valid until
// natural expiry; that is the documented trade of the stateless design.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.ClearRefresh(c)
	h.audit(c, c.GetString(middleware.CtxUserIDKey), "", "logout", nil)
	response.OK[any](c, http.StatusOK, "logout successful", nil)
}

// Refresh POST /api/auth/refresh
// Cookie-only. A missing or bad refresh token is a 403, not a 401.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(helpers.RefreshCookieName)
	if err != nil || token == "" {
		response.Fail(c, apperr.New(apperr.KindForbidden, "no refresh token provided"))
		return
	}

	access, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, "token refreshed", gin.H{"accessToken": access})
}

// VerifyEmail GET /api/auth/verify-email?token=...
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if err := h.Svc.VerifyEmail(c.Request.Context(), token); err != nil {
		response.Fail(c, err)
		return
	}
	h.audit(c, "", "", "verify_email", nil)
	response.OK[any](c, http.StatusOK, "email verified successfully", nil)
}

// ResendVerification POST /api/auth/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK[any](c, http.StatusOK, "verification email sent successfully", nil)
}

// ForgotPassword POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, validation.ToDetails(err))
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.Fail(c, err)
		return
	}
	h.audit(c, "", req.Email, "forgot_password", nil)
	response.OK[any](c, http.StatusOK, "password reset token sent", nil)
}

// ResetPassword POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, validation.ToDetails(err))
		return
	}

	profile, pair, err := h.Svc.ResetPassword(c.Request.Context(), application.PasswordInput{
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		ResetToken:      req.ResetToken,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.audit(c, profile.ID, profile.Email, "reset_password", nil)
	h.Cookies.SetRefresh(c, pair.RefreshToken, pair.RefreshExpiry)
	response.OK(c, http.StatusOK, "password reset successful", profile)
}

// UpdatePassword PATCH /api/auth/update-password (auth required)
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, validation.ToDetails(err))
		return
	}

	profile, pair, err := h.Svc.UpdatePassword(c.Request.Context(), uid, application.PasswordInput{
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}

	h.audit(c, uid, profile.Email, "update_password", nil)
	h.Cookies.SetRefresh(c, pair.RefreshToken, pair.RefreshExpiry)
	response.OK(c, http.StatusOK, "password updated successfully", profile)
}

func (h *AuthHandler) audit(c *gin.Context, userID, email, action string, metadata map[string]any) {
	if h.Audit == nil {
		return
	}
	ip := c.GetString("real_ip")
	if ip == "" {
		ip = c.ClientIP()
	}
	h.Audit.Record(c.Request.Context(), action, userID, email, ip, c.GetHeader("User-Agent"), metadata)
}
