package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const loggerKey = "logger"

// Logger returns the logger RequestLogger stored on c, or the standard
// logrus logger when the request did not pass through it.
func Logger(c echo.Context) logrus.FieldLogger {
	if l, ok := c.Get(loggerKey).(logrus.FieldLogger); ok {
		return l
	}
	return logrus.StandardLogger()
}

// RequestLogger writes one access log entry per request and makes log
// available to handlers through Logger.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Set(loggerKey, log)
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := logrus.Fields{
				"method":    req.Method,
				"path":      req.URL.Path,
				"route":     c.Path(),
				"status":    c.Response().Status,
				"latency":   time.Since(start).String(),
				"remote":    c.RealIP(),
				"user":      userKey(c),
				"bytes_out": c.Response().Size,
			}
			entry := log.WithFields(fields)
			switch status := c.Response().Status; {
			case status >= 500:
				entry.WithError(err).Error("request failed")
			case status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request served")
			}
			return nil
		}
	}
}
