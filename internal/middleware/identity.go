package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/model"
)

const identityKey = "identity"

// CurrentIdentity returns the identity JWTAuth stored on c, or the zero
// Identity for anonymous requests.
func CurrentIdentity(c echo.Context) model.Identity {
	if id, ok := c.Get(identityKey).(model.Identity); ok {
		return id
	}
	return model.Identity{}
}

// userKey identifies the caller for rate limiting.
func userKey(c echo.Context) string {
	if id := CurrentIdentity(c); !id.IsZero() {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
