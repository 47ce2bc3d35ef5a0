package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/gentacalc/pkg/errors"
	"github.com/jwalitptl/gentacalc/pkg/httputil"
)

// ErrorHandler writes the last error attached with c.Error as the response.
// Handlers that already wrote a body are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		lastErr := c.Errors.Last().Err
		event := log.Warn()
		if appErr, ok := errors.As(lastErr); !ok || appErr.Code == errors.ErrInternal {
			event = log.Error().Err(lastErr)
		}
		event.
			Str("request_id", c.GetString(ContextRequestID)).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("Request error")

		if c.Writer.Written() {
			return
		}
		httputil.RespondWithError(c, lastErr)
	}
}
