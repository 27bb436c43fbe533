// Package handler holds the echo handlers of the public and customer API.
// Public catalog endpoints need no authentication.
package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-seat-reservation/internal/layout"
	"github.com/iliyamo/concert-seat-reservation/internal/model"
	"github.com/iliyamo/concert-seat-reservation/internal/reservation"
)

// ConcertReader reads the concert catalog.
type ConcertReader interface {
	List(ctx context.Context) ([]model.Concert, error)
	Dates(ctx context.Context, concertID uint64) ([]time.Time, error)
}

// SeatReader exposes live seat availability.
type SeatReader interface {
	Seats(ctx context.Context, concertID uint64, at time.Time) ([]model.Seat, error)
	Availability(ctx context.Context, concertID uint64, at time.Time) (map[model.PriceBand]reservation.Availability, error)
}

type CatalogHandler struct {
	Concerts ConcertReader
	Layout   *layout.Index
	Seats    SeatReader
}

func NewCatalogHandler(concerts ConcertReader, idx *layout.Index, seats SeatReader) *CatalogHandler {
	return &CatalogHandler{Concerts: concerts, Layout: idx, Seats: seats}
}

type concertResp struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
}

type layoutRow struct {
	Row       string          `json:"row"`
	Seats     int             `json:"seats"`
	PriceBand model.PriceBand `json:"price_band"`
}

// ListConcerts handles GET /v1/concerts.
func (h *CatalogHandler) ListConcerts(c echo.Context) error {
	concerts, err := h.Concerts.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]concertResp, 0, len(concerts))
	for _, con := range concerts {
		out = append(out, concertResp{ID: con.ID, Title: con.Title})
	}
	return c.JSON(http.StatusOK, out)
}

// ListPerformances handles GET /v1/concerts/:id/performances.
func (h *CatalogHandler) ListPerformances(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid concert id"})
	}
	dates, err := h.Concerts.Dates(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"concert_id": id, "date_times": dates})
}

// VenueLayout handles GET /v1/concerts/:id/layout.  Every concert is performed
// in the same venue.
func (h *CatalogHandler) VenueLayout(c echo.Context) error {
	rows := make([]layoutRow, 0, len(h.Layout.Rows()))
	for _, r := range h.Layout.Rows() {
		band, _ := h.Layout.BandForRow(r)
		rows = append(rows, layoutRow{Row: r, Seats: h.Layout.SeatsInRow(r), PriceBand: band})
	}
	return c.JSON(http.StatusOK, echo.Map{"venue": h.Layout.Name(), "capacity": h.Layout.Capacity(), "rows": rows})
}

// PerformanceSeats handles GET /v1/performances/:concert_id/:date_time/seats.
// The response is never cached: it reflects live holds.
func (h *CatalogHandler) PerformanceSeats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("concert_id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid concert id"})
	}
	raw, err := url.PathUnescape(c.Param("date_time"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_time must be RFC 3339"})
	}
	at, err := parseDateTime(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_time must be RFC 3339"})
	}

	ctx := c.Request().Context()
	seats, err := h.Seats.Seats(ctx, id, at)
	if err != nil {
		return respondError(c, err)
	}
	counts, err := h.Seats.Availability(ctx, id, at)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"availability": counts, "seats": seats})
}
