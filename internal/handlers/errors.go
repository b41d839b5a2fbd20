package handlers

import (
	"errors"
	"net/http"

	lf "lost_and_found"
	"lost_and_found/internal/service"

	"github.com/gin-gonic/gin"
)

// statusFor is the single mapping from service error kinds to HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation,
		service.KindDuplicateUsername,
		service.KindDuplicateEmail,
		service.KindInvalidToken,
		service.KindInvalidOrExpiredToken:
		return http.StatusBadRequest
	case service.KindInvalidCredentials, service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err under logKey and writes the client-safe error body.
// The underlying cause is only exposed when diagnostics are enabled.
func (h *Handler) respondError(c *gin.Context, err error, logKey string, kv ...interface{}) {
	var se *service.Error
	if !errors.As(err, &se) {
		se = &service.Error{Kind: service.KindStorage, Message: service.MsgInternal, Err: err}
	}
	status := statusFor(se.Kind)

	body := lf.ErrorResponse{Error: se.Message, Field: se.Field}
	if status >= http.StatusInternalServerError {
		if h.opts.Diagnostics && se.Err != nil {
			body.Detail = se.Err.Error()
		}
		if h.log != nil {
			h.log.Errorw(logKey, append([]interface{}{"kind", se.Kind.String(), "err", err}, kv...)...)
		}
	} else if h.log != nil {
		h.log.Infow(logKey, append([]interface{}{"kind", se.Kind.String()}, kv...)...)
	}

	c.AbortWithStatusJSON(status, body)
}

// badRequest answers 400 with a plain message.
func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, lf.ErrorResponse{Error: msg})
}
