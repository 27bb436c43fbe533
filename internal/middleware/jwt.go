package middleware // reusable HTTP middleware for the echo server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

// IdentityResolver turns a bearer token into an identity.
type IdentityResolver interface {
	CurrentIdentity(token string) (model.Identity, bool)
}

// JWTAuth rejects requests without a valid Bearer access token and stores
// the caller's identity on the context for CurrentIdentity.
func JWTAuth(resolver IdentityResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			id, ok := resolver.CurrentIdentity(strings.TrimPrefix(auth, "Bearer "))
			if !ok || id.IsZero() {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(identityKey, id)
			return next(c)
		}
	}
}
