package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campussecurity/internal/auth"
	"campussecurity/internal/httpmiddleware"
	"campussecurity/internal/records"
	"campussecurity/internal/session"
)

// fail maps service errors onto status codes. Unknown errors are logged and
// reported as 500 without detail.
func (h *Handler) fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	msg := "internal server error"
	switch {
	case errors.Is(err, records.ErrInvalid), errors.Is(err, session.ErrInvalidSignup):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, records.ErrNotFound):
		code, msg = http.StatusNotFound, "not found"
	case errors.Is(err, records.ErrDuplicateEmail):
		code, msg = http.StatusConflict, "email already registered"
	case errors.Is(err, auth.ErrInvalidToken):
		code, msg = http.StatusUnauthorized, "invalid token"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		code, msg = http.StatusGatewayTimeout, "request cancelled"
	default:
		h.d.Log.Error().Err(err).
			Str("request_id", httpmiddleware.GetRequestID(c)).
			Str("path", c.FullPath()).
			Msg("request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
