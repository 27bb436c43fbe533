package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/concert-seat-reservation/internal/middleware"
	"github.com/iliyamo/concert-seat-reservation/internal/repository"
	"github.com/iliyamo/concert-seat-reservation/internal/reservation"
	"github.com/iliyamo/concert-seat-reservation/internal/service"
)

// errorMapping maps sentinel errors to a status and a stable message.
var errorMapping = []struct {
	err    error
	status int
	msg    string
}{
	{reservation.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
	{reservation.ErrOwnershipMismatch, http.StatusForbidden, "reservation belongs to another user"},
	{reservation.ErrInvalidRequest, http.StatusBadRequest, "seat count must be positive and price band must exist"},
	{reservation.ErrNotScheduled, http.StatusBadRequest, "concert is not scheduled at the requested date-time"},
	{reservation.ErrInsufficientSeats, http.StatusConflict, "not enough seats available in the requested price band"},
	{reservation.ErrHoldNotFound, http.StatusNotFound, "reservation not found"},
	{reservation.ErrHoldExpired, http.StatusGone, "reservation has expired"},
	{reservation.ErrPaymentMethodMissing, http.StatusPaymentRequired, "no valid credit card registered"},
	{service.ErrMissingFields, http.StatusBadRequest, "username and password are required"},
	{service.ErrUsernameTaken, http.StatusConflict, "username is already taken"},
	{service.ErrUnknownUser, http.StatusNotFound, "unknown user"},
	{service.ErrBadPassword, http.StatusUnauthorized, "wrong password"},
	{service.ErrInvalidCard, http.StatusBadRequest, ""},
	{repository.ErrNotFound, http.StatusNotFound, "not found"},
}

// respondError writes the JSON error body for err.  Unknown errors become
// 500 without leaking details.
func respondError(c echo.Context, err error) error {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			msg := m.msg
			if msg == "" {
				msg = err.Error()
			}
			return c.JSON(m.status, echo.Map{"error": msg})
		}
	}
	middleware.Logger(c).WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"route":  c.Path(),
	}).Error("unhandled error")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
