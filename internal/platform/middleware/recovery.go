package middleware

import (
	"fmt"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mediclass/mediclass/internal/platform/apperr"
	"github.com/mediclass/mediclass/internal/platform/auth"
)

// Recovery turns a panic in a handler into an invariant violation. The
// operator sees the generic 500; the log keeps the route, the acting staff
// member and the stack.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				stack := make([]byte, 4096)
				stack = stack[:runtime.Stack(stack, false)]

				ev := logger.Error().
					Str("request_id", requestID(c)).
					Str("method", c.Request().Method).
					Str("route", c.Path()).
					Str("panic", fmt.Sprint(r)).
					Bytes("stack", stack)
				if cpf := c.Param("cpf"); cpf != "" {
					ev = ev.Str("cpf", cpf)
				}
				if sess, ok := auth.SessionFromContext(c.Request().Context()); ok {
					ev = ev.Str("login", sess.Login)
				}
				ev.Msg("panic recovered")

				err = apperr.ToHTTP(apperr.Invariant("panic in %s %s", c.Request().Method, c.Path()))
			}()
			return next(c)
		}
	}
}
