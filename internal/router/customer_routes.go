package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/handler"
	"github.com/iliyamo/concert-seat-reservation/internal/middleware"
)

// RegisterCustomer registers the endpoints of a signed-in customer under
// /v1.  Reserve and confirm contend for seats and are rate limited per
// caller.
func RegisterCustomer(e *echo.Echo, auth middleware.IdentityResolver, r *handler.ReservationHandler, p *handler.PaymentHandler, limit echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(auth))

	g.POST("/reservations", r.Reserve, limit)
	g.GET("/reservations/:id", r.GetHold)
	g.POST("/reservations/:id/confirm", r.Confirm, limit)
	g.GET("/bookings", r.ListBookings)

	g.POST("/credit-cards", p.RegisterCard)
}
