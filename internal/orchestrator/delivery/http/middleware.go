package http

import (
	"golang-ea-automation/pkg/auth"
	"golang-ea-automation/pkg/errs"
	"golang-ea-automation/pkg/logger"

	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// TokenVerifier turns a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

// Authenticate rejects requests without a valid bearer token and stores the caller's principal.
func Authenticate(verifier TokenVerifier, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := verifier.Verify(auth.BearerToken(c.Request().Header.Get(echo.HeaderAuthorization)))
			if err != nil {
				return respondError(c, log, err)
			}
			c.Set(principalKey, p)
			c.SetRequest(c.Request().WithContext(auth.WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}

// RequireAdmin rejects non-admin callers with 403.
func RequireAdmin(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !principal(c).IsAdmin() {
				return respondError(c, log, errs.Forbidden("http", "Admin access required"))
			}
			return next(c)
		}
	}
}

func principal(c echo.Context) auth.Principal {
	if p, ok := c.Get(principalKey).(auth.Principal); ok {
		return p
	}
	p, _ := auth.PrincipalFromContext(c.Request().Context())
	return p
}
