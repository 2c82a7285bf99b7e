package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/openslot/booking-api/pkg/errors"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler logs errors attached to the gin context and renders the
// last one. Handlers normally respond directly via httputil; this is the
// safety net for errors pushed with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)

		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("trace_id", traceID).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("request error")
		}

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		status := http.StatusInternalServerError
		if appErr, ok := lastErr.Err.(*errors.AppError); ok {
			switch appErr.Kind {
			case errors.KindNotFound:
				status = http.StatusNotFound
			case errors.KindForbidden:
				status = http.StatusForbidden
			case errors.KindSlotConflict, errors.KindInvalidTransition:
				status = http.StatusConflict
			case errors.KindValidation:
				status = http.StatusBadRequest
			case errors.KindUnavailable:
				status = http.StatusServiceUnavailable
			}
		}

		c.JSON(status, ErrorResponse{
			Code:    status,
			Message: lastErr.Error(),
			TraceID: traceID,
		})
	}
}
