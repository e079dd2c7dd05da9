package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/chatverse/auth-service/internal/application"
	"github.com/chatverse/auth-service/internal/interface/middleware"
	"github.com/chatverse/auth-service/pkg/response"
	"github.com/chatverse/auth-service/pkg/validation"
)

const maxAvatarSize = 5 << 20

// UserHandler serves profile endpoints on top of the auth gate.
type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Fullname  string `json:"fullname"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	PhoneCode string `json:"phoneCode"`
}

// Me GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.Svc.GetByID(c.Request.Context(), c.GetString(middleware.CtxUserIDKey))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", u)
}

// UpdateMe PATCH /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Invalid(c, validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), application.UpdateProfileInput{
		Fullname:  req.Fullname,
		Country:   req.Country,
		Phone:     req.Phone,
		PhoneCode: req.PhoneCode,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, "profile updated", u)
}

// UploadAvatar POST /api/users/me/avatar (multipart field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Invalid(c, map[string]string{"avatar": "is required"})
		return
	}
	if fh.Size > maxAvatarSize {
		response.Invalid(c, map[string]string{"avatar": "must be at most 5MB"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Fail(c, err)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), c.GetString(middleware.CtxUserIDKey),
		f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, "avatar uploaded", gin.H{"pic": url})
}

// List GET /api/users?page=&limit= (admin only)
func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	users, err := h.Svc.List(c.Request.Context(), page, limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", users)
}

// Delete DELETE /api/users/:id (admin only)
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK[any](c, http.StatusOK, "user deleted", nil)
}
