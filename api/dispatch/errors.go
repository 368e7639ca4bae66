package dispatch

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/hydrodispatch/core/model"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// statusFor maps a core error kind to an HTTP status.
func statusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindInvalidParameter, model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindInfeasible:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func codeFor(err error) string {
	k := model.KindOf(err)
	if k == model.KindUnknown {
		return "INTERNAL_ERROR"
	}
	return strings.ToUpper(k.String())
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), ErrorResponse{Error: ErrorDetail{Code: codeFor(err), Message: err.Error()}})
}

func badRequest(c *gin.Context, code string, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

// recovery turns panics into a JSON 500.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "INTERNAL_ERROR", Message: msg}})
	})
}
