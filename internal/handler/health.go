package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything that can report its own reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports "ok" with 200 when every dependency answers a ping, and
// 503 naming the failing ones otherwise.
func Health(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		failing := map[string]string{}
		for name, p := range deps {
			if err := p.PingContext(ctx); err != nil {
				failing[name] = err.Error()
			}
		}
		if len(failing) > 0 {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "failing": failing})
		}
		return c.String(http.StatusOK, "ok")
	}
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }
