package middleware

import (
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"schooldocs/internal/logger"
)

// Logger logs each HTTP request as one JSON line with request_id, method,
// path, status and latency (milliseconds).
func Logger(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := statusOf(c, err)
		attrs := []any{
			"request_id", GetRequestID(c),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", float64(time.Since(start).Microseconds()) / 1000,
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.ErrorContext(c.UserContext(), "http_request", attrs...)
		case status >= fiber.StatusBadRequest:
			log.WarnContext(c.UserContext(), "http_request", attrs...)
		default:
			log.InfoContext(c.UserContext(), "http_request", attrs...)
		}
		return err
	}
}

// LoggerWithWriter is Logger on a dedicated JSON logger writing to w, with
// timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logger.New(w, logger.Options{Location: loc}))
}

// statusOf returns the status the error handler will answer with.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
