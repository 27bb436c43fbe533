package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/middleware"
	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/reservation"
)

// ReservationEngine is the part of the reservation manager the
// customer endpoints use.
type ReservationEngine interface {
	Reserve(ctx context.Context, id model.Identity, req reservation.ReserveRequest) (model.Hold, error)
	Confirm(ctx context.Context, id model.Identity, holdID string) (model.Booking, error)
	Hold(ctx context.Context, id model.Identity, holdID string) (model.Hold, error)
	Bookings(ctx context.Context, id model.Identity) ([]model.Booking, error)
}

// ReservationHandler serves holds and bookings for the authenticated
// caller.  JWTAuth must run first.
type ReservationHandler struct {
	Engine ReservationEngine
}

func NewReservationHandler(engine ReservationEngine) *ReservationHandler {
	return &ReservationHandler{Engine: engine}
}

type reserveReq struct {
	ConcertID uint64 `json:"concert_id"`
	DateTime  string `json:"date_time"`
	PriceBand string `json:"price_band"`
	SeatCount int    `json:"seat_count"`
}

type holdResp struct {
	ID        string          `json:"id"`
	ConcertID uint64          `json:"concert_id"`
	DateTime  time.Time       `json:"date_time"`
	PriceBand model.PriceBand `json:"price_band"`
	SeatCount int             `json:"seat_count"`
	Seats     []model.SeatRef `json:"seats"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

type bookingResp struct {
	ID          uint64          `json:"id"`
	HoldID      string          `json:"hold_id"`
	ConcertID   uint64          `json:"concert_id"`
	DateTime    time.Time       `json:"date_time"`
	PriceBand   model.PriceBand `json:"price_band"`
	Seats       []model.SeatRef `json:"seats"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
}

func toHoldResp(h model.Hold) holdResp {
	return holdResp{
		ID:        h.ID,
		ConcertID: h.Performance.ConcertID,
		DateTime:  h.Performance.DateTime,
		PriceBand: h.PriceBand,
		SeatCount: h.SeatCount,
		Seats:     h.Seats,
		CreatedAt: h.CreatedAt,
		ExpiresAt: h.ExpiresAt,
	}
}

func toBookingResp(b model.Booking) bookingResp {
	return bookingResp{
		ID:          b.ID,
		HoldID:      b.HoldID,
		ConcertID:   b.Performance.ConcertID,
		DateTime:    b.Performance.DateTime,
		PriceBand:   b.PriceBand,
		Seats:       b.Seats,
		ConfirmedAt: b.ConfirmedAt,
	}
}

// Reserve handles POST /v1/reservations.  It holds seat_count seats of
// price_band for the concert at date_time and returns the hold with its
// expiry.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	var body reserveReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	at, err := parseDateTime(body.DateTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_time must be RFC 3339"})
	}
	band, ok := model.ParsePriceBand(body.PriceBand)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown price band"})
	}

	hold, err := h.Engine.Reserve(c.Request().Context(), middleware.CurrentIdentity(c), reservation.ReserveRequest{
		ConcertID: body.ConcertID,
		DateTime:  at,
		PriceBand: band,
		SeatCount: body.SeatCount,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toHoldResp(hold))
}

// GetHold handles GET /v1/reservations/:id.
func (h *ReservationHandler) GetHold(c echo.Context) error {
	hold, err := h.Engine.Hold(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toHoldResp(hold))
}

// Confirm handles POST /v1/reservations/:id/confirm.  On success the hold
// is replaced by a booking.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	booking, err := h.Engine.Confirm(c.Request().Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResp(booking))
}

// ListBookings handles GET /v1/bookings.
func (h *ReservationHandler) ListBookings(c echo.Context) error {
	bookings, err := h.Engine.Bookings(c.Request().Context(), middleware.CurrentIdentity(c))
	if err != nil {
		return respondError(c, err)
	}
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, out)
}

func parseDateTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
