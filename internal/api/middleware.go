package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request and turns panics into 500 responses.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()

		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().
					Str("panic", fmt.Sprintf("%+v", rec)).
					Str("stacktrace", string(debug.Stack())).
					Msg("panic recovered")
				writeError(c, http.StatusInternalServerError, "internal error")
			}

			status := c.Writer.Status()
			event := logger.Info()
			switch {
			case status >= http.StatusInternalServerError:
				event = logger.Error()
			case status >= http.StatusBadRequest:
				event = logger.Warn()
			}
			if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
				event = event.Str("errors", errs.String())
			}
			event.
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Str("client_ip", c.ClientIP()).
				Msg("request completed")
		}()

		c.Next()
	}
}
