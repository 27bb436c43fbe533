// Package router registers the HTTP routes of the API on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication and
// are not part of the versioned API.
func RegisterRoutes(e *echo.Echo, deps map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health(deps))
}

// RegisterAuth registers the account endpoints.  Both issue an access
// token, so neither is behind JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
}

// RegisterPublic registers the catalog endpoints guests may browse.  The
// concert list, schedules and venue layout change rarely and go through
// the response cache; seat maps reflect live holds and never do.
func RegisterPublic(e *echo.Echo, p *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/concerts", p.ListConcerts, cache)
	e.GET("/v1/concerts/:id/performances", p.ListPerformances, cache)
	e.GET("/v1/concerts/:id/layout", p.VenueLayout, cache)
	e.GET("/v1/performances/:concert_id/:date_time/seats", p.PerformanceSeats)
}
