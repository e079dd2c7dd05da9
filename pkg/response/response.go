package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chatverse/auth-service/pkg/apperr"
)

var productionMode = true

// SetMode enables diagnostic error bodies outside production.
func SetMode(env string) { productionMode = env == "production" }

// Envelope is the uniform success body. Signup responses carry the profile
// under "user", every other flow under "data".
type Envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
	User    T      `json:"user,omitempty"`
}

type errorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Cause   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// OK renders a success envelope with the payload under "data".
func OK[T any](c *gin.Context, status int, message string, data T) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Envelope[T]{Status: "success", Message: message, Data: data})
}

// Created renders a 201 envelope with the payload under "user".
func Created[T any](c *gin.Context, message string, user T) {
	c.JSON(http.StatusCreated, Envelope[T]{Status: "success", Message: message, User: user})
}

// Fail is the single error boundary: it maps the error kind to a status code
// and renders {status, message}. The underlying cause is included only
// outside production mode.
func Fail(c *gin.Context, err error) {
	status := apperr.StatusOf(err)
	body := errorBody{Status: statusWord(status), Message: apperr.MessageOf(err)}
	if !productionMode && err != nil {
		body.Cause = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
}

// Invalid renders a 400 for malformed payloads with per-field details.
// Validation details are caller-facing, so they survive production mode.
func Invalid(c *gin.Context, details map[string]string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{
		Status:  "fail",
		Message: "invalid payload",
		Details: details,
	})
}

func statusWord(status int) string {
	if status >= http.StatusInternalServerError {
		return "error"
	}
	return "fail"
}
