package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// DevRoleHeader selects the role of the synthetic session created by
// DevAuthMiddleware.
const DevRoleHeader = "X-Dev-Role"

func bearerToken(c echo.Context) (string, *echo.HTTPError) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func attach(c echo.Context, s Session) {
	c.Set("session_login", s.Login)
	c.SetRequest(c.Request().WithContext(WithSession(c.Request().Context(), s)))
}

// SessionMiddleware requires a valid bearer session token on every request
// not matched by AuthSkipper.
func SessionMiddleware(issuer *Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if AuthSkipper(c) {
				return next(c)
			}
			tokenStr, herr := bearerToken(c)
			if herr != nil {
				return herr
			}
			s, err := issuer.Parse(tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			attach(c, s)
			return next(c)
		}
	}
}

// DevAuthMiddleware is a permissive middleware for development. Requests
// without a token get a session for the role named in DevRoleHeader
// (default intake); requests with a token are validated as usual.
func DevAuthMiddleware(issuer *Issuer) echo.MiddlewareFunc {
	strict := SessionMiddleware(issuer)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		checked := strict(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "" || AuthSkipper(c) {
				return checked(c)
			}
			role := RoleIntake
			if h := c.Request().Header.Get(DevRoleHeader); h != "" {
				r, err := ParseRole(h)
				if err != nil {
					return echo.NewHTTPError(http.StatusBadRequest, err.Error())
				}
				role = r
			}
			attach(c, NewSession("dev-"+string(role), "Dev "+string(role), "0000", role))
			return next(c)
		}
	}
}
