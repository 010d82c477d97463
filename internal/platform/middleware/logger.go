package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/emr/emr/internal/platform/auth"
)

// Logger emits one structured line per request. The authenticated user
// is attached when the guard has run; the identity is read after the
// handler so guarded routes carry it even though the guard sits further
// down the chain.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			req := c.Request()
			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}

			evt = evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if identity := auth.IdentityFromContext(req.Context()); identity != nil {
				evt = evt.Str("user_id", identity.UserID).Str("username", identity.Username)
			}

			evt.Msg("request")
			return err
		}
	}
}
